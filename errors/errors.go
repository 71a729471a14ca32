// Package errors defines the issue model shared by the schema reader and the
// compiler passes. Every failure is reported as Issues so callers can inspect
// codes and paths with errors.As.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/yamodel/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnknownNodeKind   = "unknown_node_kind"
	CodeUnknownConstraint = "unknown_constraint"
	CodeDuplicateAnchor   = "duplicate_anchor"
	CodeDanglingLink      = "dangling_link"
	CodeRespecialization  = "respecialization_conflict"
	CodeNameExhaustion    = "name_exhaustion"
	CodeMissingDefinition = "missing_definition"
	CodeInvalidChoose     = "invalid_choose"
	// Reader (schema text) failures
	CodeSchemaSyntax = "schema_syntax"
	CodeDuplicateKey = "duplicate_key"
	// Warnings: never returned as an error from a compile.
	CodeFieldShadow = "field_shadow"
)

// Issue represents a single compile diagnostic.
type Issue struct {
	Path    string // schema path (for example: /Person/name) or data path for anchors.
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, conflicting paths, etc.
	Cause   error  // Optional: underlying error.
	// Line and Column locate the issue in the schema text (0 when unknown).
	Line   int
	Column int
	// Params carries structured parameters (e.g., {"anchor": "widget"}) for
	// i18n and logging.
	Params map[string]string
}

// Error formats the issue as "code at path: message".
func (it Issue) Error() string {
	b := &strings.Builder{}
	b.WriteString(it.Code)
	if it.Path != "" {
		fmt.Fprintf(b, " at %s", it.Path)
	}
	if it.Line > 0 {
		fmt.Fprintf(b, " (line %d, column %d)", it.Line, it.Column)
	}
	if it.Message != "" {
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	if it.Hint != "" {
		fmt.Fprintf(b, " (%s)", it.Hint)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (it Issue) Unwrap() error { return it.Cause }

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].Error())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// New builds an Issue whose message is rendered from the code's catalogue
// entry with params.
func New(code, path string, params map[string]string) Issue {
	return Issue{Path: path, Code: code, Message: i18n.T(code, params), Params: params}
}

// Fail wraps a single new Issue as an error.
func Fail(code, path string, params map[string]string) error {
	return Issues{New(code, path, params)}
}

// Failf wraps a single Issue with a hint formatted from format and args.
func Failf(code, path string, params map[string]string, format string, args ...any) error {
	it := New(code, path, params)
	it.Hint = fmt.Sprintf(format, args...)
	return Issues{it}
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var it Issue
	if errors.As(err, &it) {
		return Issues{it}, true
	}
	return nil, false
}

// HasCode reports whether err carries an issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// First returns the first issue carried by err.
func First(err error) (Issue, bool) {
	iss, ok := AsIssues(err)
	if !ok || len(iss) == 0 {
		return Issue{}, false
	}
	return iss[0], true
}
