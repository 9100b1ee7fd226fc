package ast

import "reflect"

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
func Walk(node Node, v Visitor) {
	if isNil(node) || !v(node) {
		return
	}

	switch n := node.(type) {
	case *StructType:
		Walk(n.Name, v)
	case *PointerType:
		Walk(n.Elem, v)
	case *ArrayType:
		Walk(n.Elem, v)

	case *BinaryExpr:
		Walk(n.X, v)
		Walk(n.Y, v)
	case *UnaryExpr:
		Walk(n.X, v)
	case *CondExpr:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		Walk(n.Else, v)
	case *CallExpr:
		Walk(n.Fun, v)
		for _, a := range n.Args {
			Walk(a, v)
		}
	case *IndexExpr:
		Walk(n.X, v)
		Walk(n.Index, v)
	case *FieldExpr:
		Walk(n.X, v)
		Walk(n.Field, v)
	case *CastExpr:
		Walk(n.Type, v)
		Walk(n.X, v)
	case *AllocExpr:
		Walk(n.Type, v)
	case *AllocArrayExpr:
		Walk(n.Type, v)
		Walk(n.Len, v)
	case *LengthExpr:
		Walk(n.X, v)
	case *HastagExpr:
		Walk(n.Type, v)
		Walk(n.X, v)

	case *Contract:
		Walk(n.Cond, v)

	case *VarDeclStmt:
		Walk(n.Type, v)
		Walk(n.Name, v)
		Walk(n.Init, v)
	case *AssignStmt:
		Walk(n.LHS, v)
		Walk(n.RHS, v)
	case *UpdateStmt:
		Walk(n.X, v)
	case *ExprStmt:
		Walk(n.X, v)
	case *AssertStmt:
		Walk(n.Cond, v)
	case *ErrorStmt:
		Walk(n.Msg, v)
	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		Walk(n.Else, v)
	case *WhileStmt:
		Walk(n.Cond, v)
		for _, c := range n.Invariants {
			Walk(c, v)
		}
		Walk(n.Body, v)
	case *ForStmt:
		Walk(n.Init, v)
		Walk(n.Cond, v)
		Walk(n.Post, v)
		for _, c := range n.Invariants {
			Walk(c, v)
		}
		Walk(n.Body, v)
	case *ReturnStmt:
		Walk(n.Value, v)
	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, v)
		}
	case *AnnoStmt:
		for _, c := range n.Contracts {
			Walk(c, v)
		}

	case *StructDecl:
		Walk(n.Name, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}
	case *FieldDecl:
		Walk(n.Type, v)
		Walk(n.Name, v)
	case *TypedefDecl:
		Walk(n.Type, v)
		Walk(n.Name, v)
	case *FunTypedefDecl:
		Walk(n.Ret, v)
		Walk(n.Name, v)
		for _, p := range n.Params {
			Walk(p, v)
		}
		for _, c := range n.Requires {
			Walk(c, v)
		}
		for _, c := range n.Ensures {
			Walk(c, v)
		}
	case *FunDecl:
		Walk(n.Ret, v)
		Walk(n.Name, v)
		for _, p := range n.Params {
			Walk(p, v)
		}
		for _, c := range n.Requires {
			Walk(c, v)
		}
		for _, c := range n.Ensures {
			Walk(c, v)
		}
		if n.Body != nil {
			Walk(n.Body, v)
		}
	case *Param:
		Walk(n.Type, v)
		Walk(n.Name, v)
	}
}

// isNil reports whether node is nil or a typed nil pointer, which optional
// children such as an absent function body are.
func isNil(node Node) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
