// Package ast defines the final syntax tree of a C0 program.
//
// Unlike the provisional tree, the final tree only has shapes that are
// legal in some dialect: assignments, updates, assert and error are
// statements and never appear inside expressions, literals are decoded,
// and contracts are attached to the construct they constrain.
package ast

import "github.com/dhamidi/c0ls/c0/source"

// ----------------------------------------------------------------------------
// Interfaces

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() source.Span
	aNode()
}

type Type interface {
	Node
	aType()
}

type Expr interface {
	Node
	aExpr()
}

type Stmt interface {
	Node
	aStmt()
}

type Decl interface {
	Node
	aDecl()
}

type node struct {
	span source.Span
}

func (n *node) Span() source.Span { return n.span }
func (n *node) aNode()            {}

// SetSpan records the node's source range. It is meant for tree
// construction only.
func (n *node) SetSpan(s source.Span) { n.span = s }

type typ struct{ node }

func (*typ) aType() {}

type expr struct{ node }

func (*expr) aExpr() {}

type stmt struct{ node }

func (*stmt) aStmt() {}

type decl struct {
	node
	Doc string
}

func (*decl) aDecl() {}

// Name is a declared name: a variable, parameter, field, function, struct
// or typedef name at its point of declaration or use as a label.
type Name struct {
	node
	Value string
}

// ----------------------------------------------------------------------------
// Types

type BasicKind int

const (
	Int BasicKind = iota + 1
	Bool
	String
	Char
	Void
)

var basicNames = map[BasicKind]string{
	Int:    "int",
	Bool:   "bool",
	String: "string",
	Char:   "char",
	Void:   "void",
}

func (k BasicKind) String() string {
	return basicNames[k]
}

// LookupBasic maps a keyword to its basic kind.
func LookupBasic(keyword string) (BasicKind, bool) {
	for k, n := range basicNames {
		if n == keyword {
			return k, true
		}
	}
	return 0, false
}

type BasicType struct {
	typ
	Kind BasicKind
}

// NamedType refers to a typedef.
type NamedType struct {
	typ
	Name string
}

type StructType struct {
	typ
	Name *Name
}

type PointerType struct {
	typ
	Elem Type
}

type ArrayType struct {
	typ
	Elem Type
}

// ----------------------------------------------------------------------------
// Expressions

type IntLit struct {
	expr
	Value int32
	Raw   string
}

type BoolLit struct {
	expr
	Value bool
}

type StringLit struct {
	expr
	Value string
	Raw   string
}

type CharLit struct {
	expr
	Value byte
	Raw   string
}

type NullLit struct{ expr }

// Ident is a variable or function name used as a value.
type Ident struct {
	expr
	Name string
}

type BinaryExpr struct {
	expr
	Op   string
	X, Y Expr
}

// UnaryExpr covers "!", "~", "-", dereference "*" and address-of "&".
type UnaryExpr struct {
	expr
	Op string
	X  Expr
}

type CondExpr struct {
	expr
	Cond, Then, Else Expr
}

type CallExpr struct {
	expr
	Fun  Expr
	Args []Expr
}

type IndexExpr struct {
	expr
	X, Index Expr
}

// FieldExpr is "x.f" or, with Arrow set, "x->f".
type FieldExpr struct {
	expr
	X     Expr
	Field *Name
	Arrow bool
}

type CastExpr struct {
	expr
	Type Type
	X    Expr
}

type AllocExpr struct {
	expr
	Type Type
}

type AllocArrayExpr struct {
	expr
	Type Type
	Len  Expr
}

// ResultExpr is \result in a postcondition.
type ResultExpr struct{ expr }

type LengthExpr struct {
	expr
	X Expr
}

type HastagExpr struct {
	expr
	Type Type
	X    Expr
}

// ----------------------------------------------------------------------------
// Contracts

type ContractKind int

const (
	Requires ContractKind = iota + 1
	Ensures
	LoopInvariant
	Assert
)

var contractNames = map[ContractKind]string{
	Requires:      "requires",
	Ensures:       "ensures",
	LoopInvariant: "loop_invariant",
	Assert:        "assert",
}

func (k ContractKind) String() string {
	return contractNames[k]
}

type Contract struct {
	node
	Kind ContractKind
	Cond Expr
}

// ----------------------------------------------------------------------------
// Statements

type VarDeclStmt struct {
	stmt
	Type Type
	Name *Name
	Init Expr
}

type AssignStmt struct {
	stmt
	Op       string
	LHS, RHS Expr
}

// UpdateStmt is "x++" or "x--".
type UpdateStmt struct {
	stmt
	Op string
	X  Expr
}

type ExprStmt struct {
	stmt
	X Expr
}

type AssertStmt struct {
	stmt
	Cond Expr
}

type ErrorStmt struct {
	stmt
	Msg Expr
}

type IfStmt struct {
	stmt
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStmt struct {
	stmt
	Cond       Expr
	Invariants []*Contract
	Body       Stmt
}

type ForStmt struct {
	stmt
	Init       Stmt
	Cond       Expr
	Post       Stmt
	Invariants []*Contract
	Body       Stmt
}

type ReturnStmt struct {
	stmt
	Value Expr
}

type BreakStmt struct{ stmt }

type ContinueStmt struct{ stmt }

type BlockStmt struct {
	stmt
	Stmts []Stmt
}

// AnnoStmt is an assert annotation among a block's statements.
type AnnoStmt struct {
	stmt
	Contracts []*Contract
}

// ----------------------------------------------------------------------------
// Declarations

// UseLib is "#use <name>".
type UseLib struct {
	decl
	Name string
}

// UseFile is `#use "path"`.
type UseFile struct {
	decl
	Path string
}

// StructDecl is a struct definition, or a forward declaration when Fields
// is nil and Defined is false.
type StructDecl struct {
	decl
	Name    *Name
	Fields  []*FieldDecl
	Defined bool
}

type FieldDecl struct {
	node
	Type Type
	Name *Name
}

type TypedefDecl struct {
	decl
	Type Type
	Name *Name
}

// FunTypedefDecl names a function signature.
type FunTypedefDecl struct {
	decl
	Ret      Type
	Name     *Name
	Params   []*Param
	Requires []*Contract
	Ensures  []*Contract
}

// FunDecl is a function prototype, or a definition when Body is set.
type FunDecl struct {
	decl
	Ret      Type
	Name     *Name
	Params   []*Param
	Requires []*Contract
	Ensures  []*Contract
	Body     *BlockStmt
}

type Param struct {
	node
	Type Type
	Name *Name
}

// DeclName returns the name a declaration introduces, or "" for pragmas.
func DeclName(d Decl) string {
	switch d := d.(type) {
	case *StructDecl:
		return d.Name.Value
	case *TypedefDecl:
		return d.Name.Value
	case *FunTypedefDecl:
		return d.Name.Value
	case *FunDecl:
		return d.Name.Value
	}
	return ""
}

// DocOf returns the documentation attached to a declaration.
func DocOf(d Decl) string {
	switch d := d.(type) {
	case *UseLib:
		return d.Doc
	case *UseFile:
		return d.Doc
	case *StructDecl:
		return d.Doc
	case *TypedefDecl:
		return d.Doc
	case *FunTypedefDecl:
		return d.Doc
	case *FunDecl:
		return d.Doc
	}
	return ""
}
