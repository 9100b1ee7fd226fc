package typecheck

import (
	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/source"
)

// Local is a parameter or local variable binding.
type Local struct {
	Name *ast.Name
	Type Type
	// Scope covers the source in which the binding is visible.
	Scope source.Span
}

// Info records what the checker learned about a tree, keyed by node
// identity. The tree itself is never modified.
type Info struct {
	// Types maps every checked expression to its synthesized type.
	Types map[ast.Expr]Type
	// Uses maps identifiers that refer to locals to their binding.
	Uses map[*ast.Ident]*Local
	// StructNames maps field accesses to the struct that owns the field.
	StructNames map[*ast.FieldExpr]string
	// CastTypes maps casts to the type of their non-void side.
	CastTypes map[*ast.CastExpr]Type
	// Locals lists every binding in declaration order.
	Locals []*Local
}

func NewInfo() *Info {
	return &Info{
		Types:       make(map[ast.Expr]Type),
		Uses:        make(map[*ast.Ident]*Local),
		StructNames: make(map[*ast.FieldExpr]string),
		CastTypes:   make(map[*ast.CastExpr]Type),
	}
}

// TypeOf returns the recorded type of e, or nil.
func (info *Info) TypeOf(e ast.Expr) Type {
	return info.Types[e]
}

// LocalsAt returns the bindings visible at pos in file. When a name is
// bound more than once the innermost binding is returned.
func (info *Info) LocalsAt(file string, pos source.Position) []*Local {
	byName := make(map[string]int)
	var out []*Local
	for _, l := range info.Locals {
		if l.Scope.File != file || !l.Scope.Contains(pos) || pos.Before(l.Name.Span().Start) {
			continue
		}
		if i, ok := byName[l.Name.Value]; ok {
			out[i] = l
			continue
		}
		byName[l.Name.Value] = len(out)
		out = append(out, l)
	}
	return out
}
