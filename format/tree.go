package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dhamidi/c0ls/c0/ast"
)

// TreeEncoder prints one node per line, indented by depth:
//
//	FunDecl 3:1-5:2 Name=...
//	  Ret: BasicType 3:1-3:4 Kind=int
type TreeEncoder struct {
	w     io.Writer
	decls []ast.Decl
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(decls []ast.Decl) error {
	e.decls = decls
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, n := range convertAll(e.decls) {
		writeTree(&sb, n, 0)
	}
	return []byte(sb.String()), nil
}

func writeTree(sb *strings.Builder, n *outNode, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if n.Role != "" {
		sb.WriteString(n.Role)
		sb.WriteString(": ")
	}
	sb.WriteString(n.Kind)
	if n.Span != nil {
		fmt.Fprintf(sb, " %d:%d-%d:%d", n.Span.Start.Line, n.Span.Start.Column, n.Span.End.Line, n.Span.End.Column)
	}

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := n.Attrs[k]
		if s, ok := v.(string); ok {
			v = fmt.Sprintf("%q", s)
		}
		fmt.Fprintf(sb, " %s=%v", k, v)
	}
	sb.WriteByte('\n')

	for _, c := range n.Children {
		writeTree(sb, c, depth+1)
	}
}
