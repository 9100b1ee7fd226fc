package typecheck

import (
	"fmt"

	"github.com/dhamidi/c0ls/c0/ast"
)

// synth computes the type of x bottom-up and records it.
func (c *Checker) synth(x ast.Expr, cx *ctx) Type {
	t := c.synthExpr(x, cx)
	c.info.Types[x] = t
	return t
}

// value synthesizes x where a value is needed: void results and
// uncalled functions are rejected.
func (c *Checker) value(x ast.Expr, cx *ctx) Type {
	t := c.synth(x, cx)
	switch t := t.(type) {
	case *Func:
		c.errorf(x.Span(), []string{"call it: (" + ast.ExprString(x) + ")(...)"}, "function of type %s cannot be used as a value", t)
		return Invalid
	case *Basic:
		if t.Kind == ast.Void {
			c.errorf(x.Span(), nil, "void value used where a value is needed")
			return Invalid
		}
	}
	return t
}

func (c *Checker) expect(x ast.Expr, want Type, cx *ctx, what string) {
	t := c.value(x, cx)
	if !Assignable(t, want) {
		c.errorf(x.Span(), nil, "%s has type %s, expected %s", what, t, want)
	}
}

var arithmetic = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<<": true, ">>": true, "&": true, "|": true, "^": true,
}

var ordering = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}

func (c *Checker) synthExpr(x ast.Expr, cx *ctx) Type {
	switch x := x.(type) {
	case *ast.IntLit:
		return Int
	case *ast.BoolLit:
		return Bool
	case *ast.StringLit:
		return String
	case *ast.CharLit:
		return Char
	case *ast.NullLit:
		return Nil

	case *ast.Ident:
		if l := cx.scope.lookup(x.Name); l != nil {
			c.info.Uses[x] = l
			return l.Type
		}
		if f := c.function(x.Name); f != nil {
			c.errorf(x.Span(), []string{fmt.Sprintf("call it, or take its address with &%s", x.Name)},
				"function %s cannot be used as a value", x.Name)
			return Invalid
		}
		c.errorf(x.Span(), nil, "undeclared variable %s", x.Name)
		return Invalid

	case *ast.BinaryExpr:
		return c.binary(x, cx)

	case *ast.UnaryExpr:
		return c.unary(x, cx)

	case *ast.CondExpr:
		c.expect(x.Cond, Bool, cx, "condition")
		lt, rt := c.value(x.Then, cx), c.value(x.Else, cx)
		l := LUB(lt, rt)
		if l == nil {
			c.errorf(x.Span(), nil, "branches of conditional have incompatible types %s and %s", lt, rt)
			return Invalid
		}
		if _, ok := l.(*Struct); ok {
			c.errorf(x.Span(), []string{"use pointers to the structs instead"}, "conditional cannot produce a value of type %s", l)
			return Invalid
		}
		return l

	case *ast.CallExpr:
		return c.call(x, cx)

	case *ast.IndexExpr:
		xt := c.value(x.X, cx)
		c.expect(x.Index, Int, cx, "array index")
		switch xt := xt.(type) {
		case *Array:
			return xt.Elem
		case *invalid:
			return Invalid
		}
		c.errorf(x.X.Span(), nil, "cannot index a value of type %s", xt)
		return Invalid

	case *ast.FieldExpr:
		return c.field(x, cx)

	case *ast.CastExpr:
		return c.cast(x, cx)

	case *ast.AllocExpr:
		t := c.Resolve(x.Type)
		c.allocatable(t, x)
		return &Pointer{Elem: t}

	case *ast.AllocArrayExpr:
		t := c.Resolve(x.Type)
		c.allocatable(t, x)
		c.expect(x.Len, Int, cx, "array length")
		return &Array{Elem: t}

	case *ast.ResultExpr:
		if cx.result == nil {
			c.errorf(x.Span(), nil, `\result is only allowed in @ensures`)
			return Invalid
		}
		if isBasic(cx.result, ast.Void) {
			c.errorf(x.Span(), nil, `\result cannot be used in a function returning void`)
			return Invalid
		}
		return cx.result

	case *ast.LengthExpr:
		if !cx.anno {
			c.errorf(x.Span(), nil, `\length is only allowed in annotations`)
		}
		switch xt := c.value(x.X, cx).(type) {
		case *Array, *invalid:
		default:
			c.errorf(x.X.Span(), nil, `\length expects an array, found %s`, xt)
		}
		return Int

	case *ast.HastagExpr:
		if !cx.anno {
			c.errorf(x.Span(), nil, `\hastag is only allowed in annotations`)
		}
		t := c.Resolve(x.Type)
		if !isPointer(t) || isVoidPtr(t) {
			c.errorf(x.Type.Span(), nil, `\hastag requires a non-void pointer type, found %s`, t)
		}
		if xt := c.value(x.X, cx); !Assignable(xt, VoidPtr) {
			c.errorf(x.X.Span(), nil, `\hastag expects a void* value, found %s`, xt)
		}
		return Bool
	}
	Impossible(x.Span(), "unknown expression %T", x)
	return nil
}

func (c *Checker) binary(x *ast.BinaryExpr, cx *ctx) Type {
	switch {
	case arithmetic[x.Op]:
		c.expect(x.X, Int, cx, "left operand of "+x.Op)
		c.expect(x.Y, Int, cx, "right operand of "+x.Op)
		return Int

	case x.Op == "&&" || x.Op == "||":
		c.expect(x.X, Bool, cx, "left operand of "+x.Op)
		c.expect(x.Y, Bool, cx, "right operand of "+x.Op)
		return Bool

	case ordering[x.Op]:
		lt, rt := c.value(x.X, cx), c.value(x.Y, cx)
		if isBasic(lt, ast.String) || isBasic(rt, ast.String) {
			c.errorf(x.Span(), []string{"use string_compare from <string>"}, "cannot compare strings with %s", x.Op)
			return Bool
		}
		ok := (Equal(lt, Int) && Equal(rt, Int)) || (Equal(lt, Char) && Equal(rt, Char))
		if !ok {
			c.errorf(x.Span(), nil, "%s requires two int or two char operands, found %s and %s", x.Op, lt, rt)
		}
		return Bool

	case x.Op == "==" || x.Op == "!=":
		lt, rt := c.value(x.X, cx), c.value(x.Y, cx)
		l := LUB(lt, rt)
		switch {
		case l == nil:
			c.errorf(x.Span(), nil, "cannot compare %s and %s", lt, rt)
		case isBasic(l, ast.String):
			c.errorf(x.Span(), []string{"use string_equal from <string>"}, "cannot compare strings with %s", x.Op)
		default:
			if _, ok := l.(*Struct); ok {
				c.errorf(x.Span(), []string{"compare pointers or individual fields instead"}, "cannot compare values of type %s", l)
			}
		}
		return Bool
	}
	Impossible(x.Span(), "unknown binary operator %s", x.Op)
	return nil
}

func (c *Checker) unary(x *ast.UnaryExpr, cx *ctx) Type {
	switch x.Op {
	case "-", "~":
		c.expect(x.X, Int, cx, "operand of "+x.Op)
		return Int
	case "!":
		c.expect(x.X, Bool, cx, "operand of !")
		return Bool

	case "*":
		switch t := c.value(x.X, cx).(type) {
		case *invalid:
			return Invalid
		case *Null:
			c.errorf(x.Span(), nil, "cannot dereference NULL")
			return Invalid
		case *Pointer:
			if isBasic(t.Elem, ast.Void) {
				c.errorf(x.Span(), []string{"cast it to a concrete pointer type first"}, "cannot dereference void*")
				return Invalid
			}
			return t.Elem
		default:
			c.errorf(x.Span(), nil, "cannot dereference a value of type %s", t)
			return Invalid
		}

	case "&":
		id, ok := x.X.(*ast.Ident)
		if !ok {
			Impossible(x.Span(), "address of non-identifier")
		}
		if cx.scope.lookup(id.Name) != nil {
			c.errorf(x.Span(), []string{"only functions can have their address taken"}, "cannot take the address of variable %s", id.Name)
			return Invalid
		}
		f := c.function(id.Name)
		if f == nil {
			c.errorf(id.Span(), nil, "undeclared function %s", id.Name)
			return Invalid
		}
		fn := &Func{Sig: c.Signature(f)}
		c.info.Types[id] = fn
		return &Pointer{Elem: fn}
	}
	Impossible(x.Span(), "unknown unary operator %s", x.Op)
	return nil
}

func (c *Checker) call(x *ast.CallExpr, cx *ctx) Type {
	var (
		sig  *Signature
		name string
	)
	switch fun := x.Fun.(type) {
	case *ast.Ident:
		name = fun.Name
		if l := cx.scope.lookup(fun.Name); l != nil {
			var hints []string
			if _, ok := funcPointer(l.Type); ok {
				hints = []string{fmt.Sprintf("call it through the pointer: (*%s)(...)", fun.Name)}
			}
			c.info.Uses[fun] = l
			c.errorf(fun.Span(), hints, "%s is a variable, not a function", fun.Name)
		} else if f := c.function(fun.Name); f != nil {
			sig = c.Signature(f)
			c.info.Types[fun] = &Func{Sig: sig}
		} else {
			c.errorf(fun.Span(), nil, "undeclared function %s", fun.Name)
		}
	default:
		switch t := c.synth(x.Fun, cx).(type) {
		case *Func:
			sig = t.Sig
			name = ast.ExprString(x.Fun)
		case *invalid:
		default:
			c.errorf(x.Fun.Span(), nil, "called object of type %s is not a function", t)
		}
	}

	if sig == nil {
		for _, a := range x.Args {
			c.synth(a, cx)
		}
		return Invalid
	}
	if len(x.Args) != len(sig.Params) {
		c.errorf(x.Span(), nil, "%s expects %d arguments, found %d", name, len(sig.Params), len(x.Args))
	}
	for i, a := range x.Args {
		if i < len(sig.Params) {
			c.expect(a, sig.Params[i], cx, fmt.Sprintf("argument %d of %s", i+1, name))
		} else {
			c.synth(a, cx)
		}
	}
	return sig.Ret
}

// StructField finds the definition of field in the struct name.
func (c *Checker) StructField(name, field string) (*ast.StructDecl, *ast.FieldDecl) {
	s := c.env.Struct(name)
	if s == nil || !s.Defined {
		return s, nil
	}
	for _, f := range s.Fields {
		if f.Name.Value == field {
			return s, f
		}
	}
	return s, nil
}

func (c *Checker) field(x *ast.FieldExpr, cx *ctx) Type {
	xt := c.synth(x.X, cx)
	if xt == Invalid {
		return Invalid
	}
	var st *Struct
	if x.Arrow {
		if p, ok := xt.(*Pointer); ok {
			st, _ = p.Elem.(*Struct)
		}
		if st == nil {
			var hints []string
			if _, ok := xt.(*Struct); ok {
				hints = []string{"use . to access fields of a struct value"}
			}
			c.errorf(x.X.Span(), hints, "-> requires a pointer to a struct, found %s", xt)
			return Invalid
		}
	} else {
		st, _ = xt.(*Struct)
		if st == nil {
			var hints []string
			if p, ok := xt.(*Pointer); ok {
				if _, ok := p.Elem.(*Struct); ok {
					hints = []string{"use -> to access fields through a pointer"}
				}
			}
			c.errorf(x.X.Span(), hints, ". requires a struct, found %s", xt)
			return Invalid
		}
	}

	s, f := c.StructField(st.Name, x.Field.Value)
	if s == nil || !s.Defined {
		c.errorf(x.X.Span(), nil, "struct %s is not defined", st.Name)
		return Invalid
	}
	if f == nil {
		c.errorf(x.Field.Span(), nil, "struct %s has no field %s", st.Name, x.Field.Value)
		return Invalid
	}
	c.info.StructNames[x] = st.Name
	return c.Resolve(f.Type)
}

func (c *Checker) cast(x *ast.CastExpr, cx *ctx) Type {
	target := c.Resolve(x.Type)
	xt := c.value(x.X, cx)
	if target == Invalid || xt == Invalid {
		return target
	}
	if !isPointer(target) {
		c.errorf(x.Type.Span(), nil, "casts are only allowed to pointer types, not %s", target)
		return Invalid
	}
	_, null := xt.(*Null)
	switch {
	case isVoidPtr(target) && isPointer(xt):
		c.info.CastTypes[x] = xt
	case isVoidPtr(xt) || null:
		c.info.CastTypes[x] = target
	default:
		c.errorf(x.Span(), []string{"casts must be to or from void*"}, "cannot cast %s to %s", xt, target)
	}
	return target
}

func (c *Checker) allocatable(t Type, x ast.Expr) {
	switch t := t.(type) {
	case *Basic:
		if t.Kind == ast.Void {
			c.errorf(x.Span(), nil, "cannot allocate void")
		}
	case *Func:
		c.errorf(x.Span(), nil, "cannot allocate a function of type %s", t)
	case *Struct:
		if s := c.env.Struct(t.Name); s == nil || !s.Defined {
			c.errorf(x.Span(), nil, "struct %s is not defined", t.Name)
		}
	}
}
