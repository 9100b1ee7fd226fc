package typecheck

import (
	"strings"

	"github.com/dhamidi/c0ls/c0/ast"
)

// Type is a resolved type: typedefs of value types are expanded, function
// typedefs stay nominal.
type Type interface {
	String() string
	aType()
}

type Basic struct{ Kind ast.BasicKind }

type Pointer struct{ Elem Type }

type Array struct{ Elem Type }

type Struct struct{ Name string }

// Null is the type of NULL. It converts to every pointer type.
type Null struct{}

// Signature is the shape of a function.
type Signature struct {
	Ret    Type
	Params []Type
}

// Func is a function type. Name is the function typedef it came from, or
// empty for the type of a function itself, as produced by &f.
type Func struct {
	Name string
	Sig  *Signature
}

// invalid is the type of an expression that already produced an error.
// It is compatible with everything so one mistake is reported once.
type invalid struct{}

func (*invalid) aType()         {}
func (*invalid) String() string { return "<invalid>" }

func (*Basic) aType()   {}
func (*Pointer) aType() {}
func (*Array) aType()   {}
func (*Struct) aType()  {}
func (*Null) aType()    {}
func (*Func) aType()    {}

var (
	Int    Type = &Basic{Kind: ast.Int}
	Bool   Type = &Basic{Kind: ast.Bool}
	String Type = &Basic{Kind: ast.String}
	Char   Type = &Basic{Kind: ast.Char}
	Void   Type = &Basic{Kind: ast.Void}
	Nil    Type = &Null{}

	Invalid Type = &invalid{}

	VoidPtr Type = &Pointer{Elem: Void}
)

func (t *Basic) String() string   { return t.Kind.String() }
func (t *Pointer) String() string { return t.Elem.String() + "*" }
func (t *Array) String() string   { return t.Elem.String() + "[]" }
func (t *Struct) String() string  { return "struct " + t.Name }
func (t *Null) String() string    { return "NULL" }

func (t *Func) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Sig.String()
}

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Ret.String())
	b.WriteString("(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(")")
	return b.String()
}

func isBasic(t Type, k ast.BasicKind) bool {
	b, ok := t.(*Basic)
	return ok && b.Kind == k
}

func isPointer(t Type) bool {
	_, ok := t.(*Pointer)
	return ok
}

func isVoidPtr(t Type) bool {
	p, ok := t.(*Pointer)
	return ok && isBasic(p.Elem, ast.Void)
}

// funcPointer returns the function type t points to, if any.
func funcPointer(t Type) (*Func, bool) {
	p, ok := t.(*Pointer)
	if !ok {
		return nil, false
	}
	f, ok := p.Elem.(*Func)
	return f, ok
}

// IsSmall reports whether values of t fit in a variable, parameter or
// return value. Structs and functions must be handled through pointers.
func IsSmall(t Type) bool {
	switch t.(type) {
	case *Struct, *Func:
		return false
	}
	return true
}

// Equal reports structural equality. Named function types are equal only to
// themselves.
func Equal(a, b Type) bool {
	if a == Invalid || b == Invalid {
		return true
	}
	switch a := a.(type) {
	case *Basic:
		b, ok := b.(*Basic)
		return ok && a.Kind == b.Kind
	case *Pointer:
		b, ok := b.(*Pointer)
		return ok && Equal(a.Elem, b.Elem)
	case *Array:
		b, ok := b.(*Array)
		return ok && Equal(a.Elem, b.Elem)
	case *Struct:
		b, ok := b.(*Struct)
		return ok && a.Name == b.Name
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Func:
		b, ok := b.(*Func)
		if !ok {
			return false
		}
		if a.Name != "" || b.Name != "" {
			return a.Name == b.Name
		}
		return SameSignature(a.Sig, b.Sig)
	}
	return false
}

func SameSignature(a, b *Signature) bool {
	if !Equal(a.Ret, b.Ret) || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !Equal(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

// LUB returns the least upper bound of a and b, or nil if they have none.
//
// NULL joins with any pointer. The address of a function joins with a
// pointer to a function type of the same signature, which wins. Everything
// else must be structurally equal.
func LUB(a, b Type) Type {
	if a == Invalid || b == Invalid {
		return Invalid
	}
	_, aNull := a.(*Null)
	_, bNull := b.(*Null)
	switch {
	case aNull && bNull:
		return a
	case aNull && isPointer(b):
		return b
	case bNull && isPointer(a):
		return a
	}

	fa, aFn := funcPointer(a)
	fb, bFn := funcPointer(b)
	if aFn && bFn && (fa.Name == "" || fb.Name == "") {
		if !SameSignature(fa.Sig, fb.Sig) {
			return nil
		}
		if fa.Name == "" {
			return b
		}
		return a
	}

	if Equal(a, b) {
		return a
	}
	return nil
}

// Assignable reports whether a value of type v can be stored where t is
// expected.
func Assignable(v, t Type) bool {
	l := LUB(v, t)
	return l != nil && (l == Invalid || Equal(l, t))
}
