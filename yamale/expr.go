package yamale

import (
	"fmt"
	"strconv"
	"strings"
)

// Validator expressions use a call syntax:
//
//	str(required=False, min=1)
//	list(include('person'), min=2)
//	choose(include('Base'), A=include('A'), type_field='kind')
//
// Literals are single or double quoted strings, integers, floats,
// True/False/None (lower-case accepted) and [lists].

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokInt
	tokFloat
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
	tokAssign
)

func (k tokKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokInt, tokFloat:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBrack:
		return "'['"
	case tokRBrack:
		return "']'"
	case tokComma:
		return "','"
	case tokAssign:
		return "'='"
	default:
		return "token"
	}
}

type token struct {
	kind tokKind
	text string
	off  int
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, off: l.pos}, nil
	}
	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, off: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, off: start}, nil
	case c == '[':
		l.pos++
		return token{kind: tokLBrack, off: start}, nil
	case c == ']':
		l.pos++
		return token{kind: tokRBrack, off: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, off: start}, nil
	case c == '=':
		l.pos++
		return token{kind: tokAssign, off: start}, nil
	case c == '\'' || c == '"':
		return l.quoted(c)
	case isDigit(c) || ((c == '-' || c == '+' || c == '.') && l.pos+1 < len(l.src) && (isDigit(l.src[l.pos+1]) || l.src[l.pos+1] == '.')):
		return l.number()
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], off: start}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
}

func (l *lexer) quoted(q byte) (token, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == q:
			l.pos++
			return token{kind: tokString, text: b.String(), off: start}, nil
		case c == '\\' && l.pos+1 < len(l.src):
			n := l.src[l.pos+1]
			switch n {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(n)
			default:
				// unknown escapes are kept verbatim (regex patterns rely on it)
				b.WriteByte('\\')
				b.WriteByte(n)
			}
			l.pos += 2
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string starting at offset %d", start)
}

func (l *lexer) number() (token, error) {
	start := l.pos
	if c := l.src[l.pos]; c == '-' || c == '+' {
		l.pos++
	}
	float := false
scan:
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c) || c == '_':
		case c == '.' || c == 'e' || c == 'E':
			float = true
		case (c == '-' || c == '+') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E'):
		default:
			break scan
		}
		l.pos++
	}
	text := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	if float {
		return token{kind: tokFloat, text: text, off: start}, nil
	}
	return token{kind: tokInt, text: text, off: start}, nil
}

func isSpace(c byte) bool      { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

type parser struct {
	lx  lexer
	tok token
}

// ParseExpression parses a single validator expression.
func ParseExpression(src string) (*Validator, error) {
	p := &parser{lx: lexer{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	v, err := p.call()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at offset %d after expression", p.tok.kind, p.tok.off)
	}
	return v, nil
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// peek returns the token after the current one without consuming it.
func (p *parser) peek() (token, error) {
	lx := p.lx
	return lx.next()
}

func (p *parser) expect(k tokKind) (token, error) {
	if p.tok.kind != k {
		return token{}, fmt.Errorf("expected %s at offset %d, found %s", k, p.tok.off, p.tok.kind)
	}
	t := p.tok
	return t, p.advance()
}

func (p *parser) call() (*Validator, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var (
		args   []any
		kwargs = map[string]any{}
		order  []string
	)
	for p.tok.kind != tokRParen {
		if p.tok.kind == tokIdent {
			nt, err := p.peek()
			if err != nil {
				return nil, err
			}
			if nt.kind == tokAssign {
				key := p.tok.text
				if err := p.advance(); err != nil {
					return nil, err
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
				val, err := p.value()
				if err != nil {
					return nil, err
				}
				if _, dup := kwargs[key]; dup {
					return nil, fmt.Errorf("keyword argument %q repeated in %s()", key, name.text)
				}
				kwargs[key] = val
				order = append(order, key)
				if err := p.separator(tokRParen); err != nil {
					return nil, err
				}
				continue
			}
		}
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("positional argument follows keyword argument at offset %d", p.tok.off)
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		args = append(args, val)
		if err := p.separator(tokRParen); err != nil {
			return nil, err
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return newValidator(name.text, args, kwargs, order)
}

// separator consumes a ',' or stops before the closing token.
func (p *parser) separator(closing tokKind) error {
	switch p.tok.kind {
	case tokComma:
		return p.advance()
	case closing:
		return nil
	default:
		return fmt.Errorf("expected ',' or %s at offset %d, found %s", closing, p.tok.off, p.tok.kind)
	}
}

func (p *parser) value() (any, error) {
	switch p.tok.kind {
	case tokIdent:
		nt, err := p.peek()
		if err != nil {
			return nil, err
		}
		if nt.kind == tokLParen {
			return p.call()
		}
		word := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch word {
		case "True", "true":
			return true, nil
		case "False", "false":
			return false, nil
		case "None", "null":
			return nil, nil
		}
		return nil, fmt.Errorf("unknown name %q", word)
	case tokString:
		s := p.tok.text
		return s, p.advance()
	case tokInt:
		n, err := strconv.ParseInt(p.tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p.tok.text)
		}
		return n, p.advance()
	case tokFloat:
		f, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p.tok.text)
		}
		return f, p.advance()
	case tokLBrack:
		if err := p.advance(); err != nil {
			return nil, err
		}
		list := []any{}
		for p.tok.kind != tokRBrack {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			if err := p.separator(tokRBrack); err != nil {
				return nil, err
			}
		}
		return list, p.advance()
	}
	return nil, fmt.Errorf("unexpected %s at offset %d", p.tok.kind, p.tok.off)
}

// newValidator checks a call against the tag registry and extracts its
// required flag and active constraints.
func newValidator(tag string, args []any, kwargs map[string]any, order []string) (*Validator, error) {
	spec, ok := tags[tag]
	if !ok {
		return nil, fmt.Errorf("unknown validator %s()", tag)
	}
	if err := checkArgs(tag, spec.args, args); err != nil {
		return nil, err
	}
	v := &Validator{Tag: tag, Args: args, Kwargs: kwargs, Required: true, order: order}
	for _, k := range order {
		val := kwargs[k]
		switch {
		case k == "required" || k == "none":
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("%s(): %s must be a boolean", tag, k)
			}
			if k == "required" {
				v.Required = b
			}
		case isConstraintArg(spec.constraints, k) || contains(spec.options, k):
		case spec.variants:
			if sub, ok := val.(*Validator); !ok || !sub.IsInclude() {
				return nil, fmt.Errorf("%s(): variant %s must be an include", tag, k)
			}
		default:
			return nil, fmt.Errorf("%s(): unknown keyword argument %s", tag, k)
		}
	}
	for _, c := range spec.constraints {
		if val, ok := kwargs[c.arg]; ok {
			v.Constraints = append(v.Constraints, Constraint{Kind: c.kind, Arg: c.arg, Value: val})
		}
	}
	return v, nil
}

func checkArgs(tag string, shape argShape, args []any) error {
	switch shape {
	case argsNone:
		if len(args) > 0 {
			return fmt.Errorf("%s() takes no positional arguments", tag)
		}
	case argsOneString:
		if len(args) != 1 {
			return fmt.Errorf("%s() takes exactly one name", tag)
		}
		if _, ok := args[0].(string); !ok {
			return fmt.Errorf("%s() name must be a string", tag)
		}
	case argsOptionalString:
		if len(args) > 1 {
			return fmt.Errorf("%s() takes at most one name", tag)
		}
		if len(args) == 1 {
			if _, ok := args[0].(string); !ok {
				return fmt.Errorf("%s() name must be a string", tag)
			}
		}
	case argsStrings:
		if len(args) == 0 {
			return fmt.Errorf("%s() needs at least one pattern", tag)
		}
		for _, a := range args {
			if _, ok := a.(string); !ok {
				return fmt.Errorf("%s() patterns must be strings", tag)
			}
		}
	case argsValidators:
		for _, a := range args {
			if _, ok := a.(*Validator); !ok {
				return fmt.Errorf("%s() arguments must be validators", tag)
			}
		}
	case argsLiterals:
		for _, a := range args {
			if _, ok := a.(*Validator); ok {
				return fmt.Errorf("%s() arguments must be literals", tag)
			}
		}
	}
	return nil
}

func isConstraintArg(cs []constraintArg, name string) bool {
	for _, c := range cs {
		if c.arg == name {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
