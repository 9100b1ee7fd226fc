package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/c0ls/c0/ast"
)

type ASTJSONEncoder struct {
	w     io.Writer
	decls []ast.Decl
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(decls []ast.Decl) error {
	e.decls = decls
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *ASTJSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(convertAll(e.decls), "", "  ")
}

// MarshalNode renders a single node, such as an expression typed into the
// REPL.
func MarshalNode(n ast.Node) ([]byte, error) {
	return json.MarshalIndent(convert(n, ""), "", "  ")
}
