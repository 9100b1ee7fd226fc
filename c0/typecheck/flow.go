package typecheck

import (
	"github.com/dhamidi/c0ls/c0/ast"
)

// varSet is an immutable set of local names.
type varSet map[string]bool

func (s varSet) with(name string) varSet {
	out := make(varSet, len(s)+1)
	for k := range s {
		out[k] = true
	}
	out[name] = true
	return out
}

// within keeps the names of s that are also in scope.
func (s varSet) within(scope varSet) varSet {
	out := make(varSet, len(s))
	for k := range s {
		if scope[k] {
			out[k] = true
		}
	}
	return out
}

// flow runs definite assignment and return analysis over a function whose
// body already typechecked, and collects the functions it references.
func (c *Checker) flow(d *ast.FunDecl, params *scope) {
	locals := varSet{}
	for name := range params.vars {
		locals = locals.with(name)
	}
	for _, k := range d.Requires {
		c.uses(k.Cond, locals, locals)
	}
	for _, k := range d.Ensures {
		c.uses(k.Cond, locals, locals)
	}
	_, _, returns := c.flowStmt(d.Body, locals, locals)
	if !returns && !isBasic(c.Signature(d).Ret, ast.Void) && !c.isDamaged(d.Span()) {
		c.errorf(d.Name.Span(), []string{"add a return statement at the end of the function"},
			"function %s may reach its end without returning a value", d.Name.Value)
	}
}

// flowStmt returns the locals in scope and those definitely assigned after
// s, and whether s returns on every path.
func (c *Checker) flowStmt(s ast.Stmt, locals, defined varSet) (varSet, varSet, bool) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		locals = locals.with(s.Name.Value)
		if s.Init != nil {
			c.uses(s.Init, locals, defined)
			defined = defined.with(s.Name.Value)
		}
		return locals, defined, false

	case *ast.AssignStmt:
		c.uses(s.RHS, locals, defined)
		if id, ok := s.LHS.(*ast.Ident); ok && s.Op == "=" {
			return locals, defined.with(id.Name), false
		}
		c.uses(s.LHS, locals, defined)
		return locals, defined, false

	case *ast.UpdateStmt:
		c.uses(s.X, locals, defined)
	case *ast.ExprStmt:
		c.uses(s.X, locals, defined)
	case *ast.AssertStmt:
		c.uses(s.Cond, locals, defined)

	case *ast.ErrorStmt:
		c.uses(s.Msg, locals, defined)
		return locals, locals, true

	case *ast.ReturnStmt:
		if s.Value != nil {
			c.uses(s.Value, locals, defined)
		}
		return locals, locals, true

	case *ast.BreakStmt, *ast.ContinueStmt:
		return locals, locals, false

	case *ast.IfStmt:
		c.uses(s.Cond, locals, defined)
		_, thenDef, thenRet := c.flowStmt(s.Then, locals, defined)
		elseDef, elseRet := defined, false
		if s.Else != nil {
			_, elseDef, elseRet = c.flowStmt(s.Else, locals, defined)
		}
		return locals, thenDef.within(elseDef).within(locals), thenRet && elseRet

	case *ast.WhileStmt:
		c.uses(s.Cond, locals, defined)
		for _, k := range s.Invariants {
			c.uses(k.Cond, locals, defined)
		}
		c.flowStmt(s.Body, locals, defined)
		return locals, defined, false

	case *ast.ForStmt:
		inner, innerDef := locals, defined
		if s.Init != nil {
			inner, innerDef, _ = c.flowStmt(s.Init, inner, innerDef)
		}
		c.uses(s.Cond, inner, innerDef)
		for _, k := range s.Invariants {
			c.uses(k.Cond, inner, innerDef)
		}
		_, bodyDef, _ := c.flowStmt(s.Body, inner, innerDef)
		if s.Post != nil {
			c.flowStmt(s.Post, inner, bodyDef)
		}
		return locals, innerDef.within(locals), false

	case *ast.BlockStmt:
		inner, innerDef := locals, defined
		returns := false
		for _, st := range s.Stmts {
			var r bool
			inner, innerDef, r = c.flowStmt(st, inner, innerDef)
			returns = returns || r
		}
		return locals, innerDef.within(locals), returns

	case *ast.AnnoStmt:
		for _, k := range s.Contracts {
			c.uses(k.Cond, locals, defined)
		}

	default:
		Impossible(s.Span(), "unknown statement %T", s)
	}
	return locals, defined, false
}

// uses reports locals read before they are assigned and records every
// other identifier as a function reference.
func (c *Checker) uses(x ast.Expr, locals, defined varSet) {
	ast.Walk(x, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		switch {
		case !locals[id.Name]:
			c.use(id.Name, id.Span())
		case !defined[id.Name]:
			c.errorf(id.Span(), []string{"assign " + id.Name + " on every path before this point"},
				"%s is used without being defined", id.Name)
		}
		return true
	})
}
