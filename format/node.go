package format

import (
	"fmt"
	"reflect"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/source"
)

// outNode is the encoder-neutral view of an AST node. Scalar fields become
// attributes; node-valued fields become children labelled with the field
// they came from.
type outNode struct {
	Kind     string         `json:"kind"`
	Role     string         `json:"role,omitempty"`
	Span     *outSpan       `json:"span,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Children []*outNode     `json:"children,omitempty"`
}

type outSpan struct {
	File  string      `json:"file,omitempty"`
	Start outPosition `json:"start"`
	End   outPosition `json:"end"`
}

type outPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

var nodeType = reflect.TypeOf((*ast.Node)(nil)).Elem()

func convert(n ast.Node, role string) *outNode {
	v := reflect.ValueOf(n)
	if !v.IsValid() || v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	out := &outNode{Kind: reflect.Indirect(v).Type().Name(), Role: role}
	if s := n.Span(); !s.IsZero() {
		out.Span = toSpan(s)
	}
	collect(out, reflect.Indirect(v))
	if d, ok := n.(ast.Decl); ok {
		if doc := ast.DocOf(d); doc != "" {
			setAttr(out, "Doc", reflect.ValueOf(doc))
		}
	}
	return out
}

func toSpan(s source.Span) *outSpan {
	return &outSpan{
		File:  s.File,
		Start: outPosition{Line: s.Start.Line, Column: s.Start.Column},
		End:   outPosition{Line: s.End.Line, Column: s.End.Column},
	}
}

func collect(out *outNode, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}

		switch {
		case f.Type.Implements(nodeType):
			if fv.IsNil() {
				continue
			}
			if c := convert(fv.Interface().(ast.Node), f.Name); c != nil {
				out.Children = append(out.Children, c)
			}
		case f.Type.Kind() == reflect.Slice && f.Type.Elem().Implements(nodeType):
			for j := 0; j < fv.Len(); j++ {
				ev := fv.Index(j)
				if ev.IsNil() {
					continue
				}
				if c := convert(ev.Interface().(ast.Node), f.Name); c != nil {
					out.Children = append(out.Children, c)
				}
			}
		default:
			setAttr(out, f.Name, fv)
		}
	}
}

func setAttr(out *outNode, name string, v reflect.Value) {
	if v.IsZero() && v.Kind() != reflect.Bool {
		return
	}
	if out.Attrs == nil {
		out.Attrs = make(map[string]any)
	}
	switch x := v.Interface().(type) {
	case fmt.Stringer:
		out.Attrs[name] = x.String()
	case byte:
		out.Attrs[name] = int(x)
	default:
		out.Attrs[name] = x
	}
}

func convertAll(decls []ast.Decl) []*outNode {
	out := make([]*outNode, 0, len(decls))
	for _, d := range decls {
		if c := convert(d, ""); c != nil {
			out = append(out, c)
		}
	}
	return out
}
