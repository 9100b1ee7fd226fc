// Package navigate finds what is under the cursor in a checked file.
package navigate

import (
	"fmt"
	"strings"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/c0/typecheck"
)

// Result is one of FoundIdentifier, FoundType, FoundField or FoundLink.
type Result interface {
	Span() source.Span
	Hover() string
}

// FoundIdentifier is a variable, parameter or function name.
type FoundIdentifier struct {
	Name  string
	Range source.Span
	Type  typecheck.Type
	// Local is set for parameters and local variables.
	Local *typecheck.Local
	// Func is set for function names.
	Func      *ast.FunDecl
	Signature string
}

// FoundType is a reference to a type, or the name of a struct or typedef
// at its declaration.
type FoundType struct {
	Range    source.Span
	Type     ast.Type
	Resolved typecheck.Type
	// Decl is the struct or typedef declaration the type names, if any.
	Decl ast.Decl
}

// FoundField is a struct field, either at its declaration or in an access.
type FoundField struct {
	Range  source.Span
	Access *ast.FieldExpr
	Struct *ast.StructDecl
	Field  *ast.FieldDecl
	Type   typecheck.Type
}

// FoundLink is a #use pragma.
type FoundLink struct {
	Decl    ast.Decl
	Library string
	File    string
}

func (r *FoundIdentifier) Span() source.Span { return r.Range }
func (r *FoundType) Span() source.Span       { return r.Range }
func (r *FoundField) Span() source.Span      { return r.Range }
func (r *FoundLink) Span() source.Span       { return r.Decl.Span() }

func (r *FoundIdentifier) Hover() string {
	if r.Func != nil {
		return withDoc(r.Signature, ast.DocOf(r.Func))
	}
	return fmt.Sprintf("%s %s", r.Type, r.Name)
}

func (r *FoundType) Hover() string {
	switch d := r.Decl.(type) {
	case *ast.TypedefDecl:
		return withDoc(fmt.Sprintf("typedef %s %s", r.Resolved, d.Name.Value), d.Doc)
	case *ast.FunTypedefDecl:
		if fn, ok := r.Resolved.(*typecheck.Func); ok {
			return withDoc(fmt.Sprintf("typedef %s %s", fn.Sig, d.Name.Value), d.Doc)
		}
		return withDoc("typedef "+d.Name.Value, d.Doc)
	case *ast.StructDecl:
		var b strings.Builder
		fmt.Fprintf(&b, "struct %s", d.Name.Value)
		if d.Defined {
			b.WriteString(" {")
			for _, f := range d.Fields {
				fmt.Fprintf(&b, " %s %s;", ast.TypeString(f.Type), f.Name.Value)
			}
			b.WriteString(" }")
		}
		return withDoc(b.String(), d.Doc)
	}
	if r.Resolved != nil {
		return r.Resolved.String()
	}
	return ast.TypeString(r.Type)
}

func (r *FoundField) Hover() string {
	return fmt.Sprintf("%s %s (field of struct %s)", r.Type, r.Field.Name.Value, r.Struct.Name.Value)
}

func (r *FoundLink) Hover() string {
	if r.Library != "" {
		return withDoc("#use <"+r.Library+">", ast.DocOf(r.Decl))
	}
	return withDoc(`#use "`+r.File+`"`, ast.DocOf(r.Decl))
}

func withDoc(text, doc string) string {
	if doc == "" {
		return text
	}
	return text + "\n\n" + doc
}

// DeclAt returns the declaration of file that contains pos.
func DeclAt(e *env.Env, file string, pos source.Position) ast.Decl {
	for _, d := range e.DeclsInFile(file) {
		if pos.Before(d.Span().Start) {
			break
		}
		if d.Span().Contains(pos) {
			return d
		}
	}
	return nil
}

// Find returns what is at pos in file, or nil. c must be the checker that
// checked the file.
func Find(c *typecheck.Checker, file string, pos source.Position) Result {
	d := DeclAt(c.Env(), file, pos)
	if d == nil {
		return nil
	}
	var path []ast.Node
	ast.Walk(d, func(n ast.Node) bool {
		if !n.Span().Contains(pos) {
			return false
		}
		path = append(path, n)
		return true
	})

	f := &finder{c: c, info: c.Info(), file: file, pos: pos}
	for i := len(path) - 1; i >= 0; i-- {
		if r := f.classify(path[i], path[:i]); r != nil {
			return r
		}
	}
	return nil
}

type finder struct {
	c    *typecheck.Checker
	info *typecheck.Info
	file string
	pos  source.Position
}

func (f *finder) resolve(t ast.Type) typecheck.Type {
	r, _ := f.c.TryResolve(t)
	return r
}

func (f *finder) classify(n ast.Node, ancestors []ast.Node) Result {
	var parent ast.Node
	if len(ancestors) > 0 {
		parent = ancestors[len(ancestors)-1]
	}
	switch n := n.(type) {
	case *ast.UseLib:
		return &FoundLink{Decl: n, Library: n.Name}
	case *ast.UseFile:
		return &FoundLink{Decl: n, File: n.Path}
	case *ast.Ident:
		return f.ident(n)
	case *ast.FieldExpr:
		return f.fieldAccess(n)
	case *ast.Name:
		return f.name(n, parent, ancestors)
	case ast.Type:
		return f.typ(n)
	}
	return nil
}

func (f *finder) ident(id *ast.Ident) Result {
	r := &FoundIdentifier{Name: id.Name, Range: id.Span(), Local: f.info.Uses[id]}
	if r.Local == nil {
		r.Func = f.c.Env().Function(id.Name)
	}
	if r.Func != nil {
		r.Signature = f.c.Describe(r.Func)
	}
	r.Type = f.info.TypeOf(id)
	if r.Type == nil || r.Type == typecheck.Invalid {
		switch {
		case r.Local != nil:
			r.Type = r.Local.Type
		case r.Func != nil:
			r.Type = &typecheck.Func{Sig: f.c.Signature(r.Func)}
		default:
			r.Type, _ = f.c.Expr(id, f.info.LocalsAt(f.file, f.pos))
		}
	}
	return r
}

// structOf returns the struct name an access refers to, synthesizing the
// object's type if the checker did not get to it.
func (f *finder) structOf(x *ast.FieldExpr) (string, bool) {
	if name, ok := f.info.StructNames[x]; ok {
		return name, true
	}
	t, errs := f.c.Expr(x.X, f.info.LocalsAt(f.file, f.pos))
	if len(errs) > 0 {
		return "", false
	}
	if p, ok := t.(*typecheck.Pointer); ok && x.Arrow {
		t = p.Elem
	}
	if s, ok := t.(*typecheck.Struct); ok {
		return s.Name, false
	}
	return "", false
}

func (f *finder) fieldAccess(x *ast.FieldExpr) Result {
	name, checked := f.structOf(x)
	if name == "" {
		return nil
	}
	s, fd := f.c.StructField(name, x.Field.Value)
	if fd == nil {
		if checked {
			typecheck.Impossible(x.Span(), "struct %s has no field %s", name, x.Field.Value)
		}
		return nil
	}
	return &FoundField{Range: x.Field.Span(), Access: x, Struct: s, Field: fd, Type: f.resolve(fd.Type)}
}

func (f *finder) local(n *ast.Name) *typecheck.Local {
	for _, l := range f.info.Locals {
		if l.Name == n {
			return l
		}
	}
	return nil
}

func (f *finder) name(n *ast.Name, parent ast.Node, ancestors []ast.Node) Result {
	switch p := parent.(type) {
	case *ast.FieldExpr:
		return f.fieldAccess(p)

	case *ast.FieldDecl:
		for i := len(ancestors) - 1; i >= 0; i-- {
			if s, ok := ancestors[i].(*ast.StructDecl); ok {
				return &FoundField{Range: n.Span(), Struct: s, Field: p, Type: f.resolve(p.Type)}
			}
		}

	case *ast.VarDeclStmt, *ast.Param:
		r := &FoundIdentifier{Name: n.Value, Range: n.Span(), Local: f.local(n)}
		if r.Local != nil {
			r.Type = r.Local.Type
		} else if vd, ok := p.(*ast.VarDeclStmt); ok {
			r.Type = f.resolve(vd.Type)
		} else {
			r.Type = f.resolve(p.(*ast.Param).Type)
		}
		return r

	case *ast.FunDecl:
		fn := f.c.Env().Function(n.Value)
		if fn == nil {
			fn = p
		}
		return &FoundIdentifier{
			Name:      n.Value,
			Range:     n.Span(),
			Type:      &typecheck.Func{Sig: f.c.Signature(p)},
			Func:      fn,
			Signature: f.c.Describe(p),
		}

	case *ast.FunTypedefDecl:
		return &FoundType{Range: n.Span(), Type: &ast.NamedType{Name: n.Value}, Resolved: f.resolve(&ast.NamedType{Name: n.Value}), Decl: p}

	case *ast.TypedefDecl:
		return &FoundType{Range: n.Span(), Type: p.Type, Resolved: f.resolve(p.Type), Decl: p}

	case *ast.StructDecl:
		s := f.c.Env().Struct(n.Value)
		if s == nil {
			s = p
		}
		return &FoundType{Range: n.Span(), Resolved: &typecheck.Struct{Name: n.Value}, Decl: s}

	case *ast.StructType:
		return f.typ(p)
	}
	return nil
}

func (f *finder) typ(t ast.Type) Result {
	r := &FoundType{Range: t.Span(), Type: t, Resolved: f.resolve(t)}
	base := t
	for {
		switch b := base.(type) {
		case *ast.PointerType:
			base = b.Elem
			continue
		case *ast.ArrayType:
			base = b.Elem
			continue
		case *ast.NamedType:
			if d := f.c.Env().Typedef(b.Name); d != nil {
				r.Decl = d
			}
		case *ast.StructType:
			if s := f.c.Env().Struct(b.Name.Value); s != nil {
				r.Decl = s
			}
		}
		return r
	}
}
