// Package yamodel compiles yamale validation schemas into the model
// description used by the repository model builder.
//
// A compile runs four passes in order over one in-memory tree:
//
//   - build: validator tree to IR, includes expanded to a fixpoint
//   - links: anchors discovered globally, then links bound to them
//   - poly: every choose variant cloned and merged with its base
//   - prune: definitions unreachable from the root dropped
//
// The result is serialized deterministically as YAML or JSON. Any fatal
// issue aborts the compile and nothing is emitted; non-fatal issues
// (variant fields shadowing base fields) are reported by Model.Warnings.
//
// Typical usage:
//
//	m, err := yamodel.CompileFile("schemas/MST.yaml", yamodel.Options{}, "schemas/general_parameters.yaml")
//	if err != nil {
//		return err
//	}
//	out, err := m.YAML()
//
// Errors are ymerrors.Issues values (package errors); use errors.HasCode to
// test for a specific condition.
package yamodel
