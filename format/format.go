// Package format renders final C0 syntax trees for people and tools.
package format

import (
	"encoding"

	"github.com/dhamidi/c0ls/c0/ast"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(decls []ast.Decl) error
}
