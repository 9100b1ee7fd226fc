package ast

import (
	"fmt"
	"strings"
)

// TypeString renders a type in source syntax.
func TypeString(t Type) string {
	switch t := t.(type) {
	case *BasicType:
		return t.Kind.String()
	case *NamedType:
		return t.Name
	case *StructType:
		return "struct " + t.Name.Value
	case *PointerType:
		return TypeString(t.Elem) + "*"
	case *ArrayType:
		return TypeString(t.Elem) + "[]"
	case nil:
		return ""
	}
	return fmt.Sprintf("%T", t)
}

// ExprString renders an expression in source syntax, fully parenthesized
// where precedence would otherwise matter.
func ExprString(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *IntLit:
		b.WriteString(e.Raw)
	case *BoolLit:
		fmt.Fprint(b, e.Value)
	case *StringLit:
		b.WriteString(e.Raw)
	case *CharLit:
		b.WriteString(e.Raw)
	case *NullLit:
		b.WriteString("NULL")
	case *Ident:
		b.WriteString(e.Name)
	case *BinaryExpr:
		b.WriteString("(")
		writeExpr(b, e.X)
		b.WriteString(" " + e.Op + " ")
		writeExpr(b, e.Y)
		b.WriteString(")")
	case *UnaryExpr:
		b.WriteString(e.Op)
		writeExpr(b, e.X)
	case *CondExpr:
		b.WriteString("(")
		writeExpr(b, e.Cond)
		b.WriteString(" ? ")
		writeExpr(b, e.Then)
		b.WriteString(" : ")
		writeExpr(b, e.Else)
		b.WriteString(")")
	case *CallExpr:
		writeExpr(b, e.Fun)
		b.WriteString("(")
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteString(")")
	case *IndexExpr:
		writeExpr(b, e.X)
		b.WriteString("[")
		writeExpr(b, e.Index)
		b.WriteString("]")
	case *FieldExpr:
		writeExpr(b, e.X)
		if e.Arrow {
			b.WriteString("->")
		} else {
			b.WriteString(".")
		}
		b.WriteString(e.Field.Value)
	case *CastExpr:
		b.WriteString("(" + TypeString(e.Type) + ")")
		writeExpr(b, e.X)
	case *AllocExpr:
		b.WriteString("alloc(" + TypeString(e.Type) + ")")
	case *AllocArrayExpr:
		b.WriteString("alloc_array(" + TypeString(e.Type) + ", ")
		writeExpr(b, e.Len)
		b.WriteString(")")
	case *ResultExpr:
		b.WriteString(`\result`)
	case *LengthExpr:
		b.WriteString(`\length(`)
		writeExpr(b, e.X)
		b.WriteString(")")
	case *HastagExpr:
		b.WriteString(`\hastag(` + TypeString(e.Type) + ", ")
		writeExpr(b, e.X)
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "%T", e)
	}
}
