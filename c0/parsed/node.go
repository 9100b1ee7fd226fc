// Package parsed holds the provisional syntax tree produced by the parser.
//
// The tree is deliberately broader than any single dialect: assignments,
// updates, assert and error are expressions here, literals keep their raw
// text, and nothing has been checked against a dialect. Nodes are immutable
// once the parser hands them out.
//
// Child layout per kind:
//
//	Program        decl*
//	Pragma         (Text = raw pragma line)
//	StructDecl     Name Field*            (Defined when a body is present)
//	Field          type Name
//	TypedefDecl    type Name              (Terminated when ';' was seen)
//	FunTypedefDecl type Name Param* Anno* (Terminated when ';' was seen)
//	FunDecl        type Name Param* Anno* Block?
//	Param          type Name
//	BasicType      (Text = int, bool, string, char or void)
//	TypedefType    (Text = name)
//	StructType     Name
//	PointerType    type
//	ArrayType      type
//	VarDecl        type Name expr?
//	ExprStmt       expr
//	IfStmt         expr stmt stmt?
//	WhileStmt      expr Anno* stmt
//	ForStmt        (stmt|Empty) expr (stmt|Empty) Anno* stmt
//	ReturnStmt     expr?
//	BreakStmt, ContinueStmt
//	Block          (stmt|Anno)*
//	Anno           AnnoItem*
//	AnnoItem       expr                   (Text = requires, ensures, loop_invariant or assert)
//	Binary         expr expr              (Text = operator)
//	Unary          expr                   (Text = operator)
//	Ternary        expr expr expr
//	Call           expr expr*
//	Index          expr expr
//	FieldAccess    expr Name              (Text = "." or "->")
//	Cast           type expr
//	Alloc          type
//	AllocArray     type expr
//	Length         expr
//	Hastag         type expr
//	Assign         expr expr              (Text = operator)
//	Update         expr                   (Text = "++" or "--")
//	AssertExpr     expr
//	ErrorExpr      expr
//	literals, Ident, Name                 (Text = source text)
package parsed

import (
	"strings"

	"github.com/dhamidi/c0ls/c0/source"
)

type NodeKind int

const (
	KindInvalid NodeKind = iota

	KindProgram
	KindName

	// Declarations
	KindPragma
	KindStructDecl
	KindField
	KindTypedefDecl
	KindFunTypedefDecl
	KindFunDecl
	KindParam

	// Types
	KindBasicType
	KindTypedefType
	KindStructType
	KindPointerType
	KindArrayType

	// Statements
	KindVarDecl
	KindExprStmt
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindReturnStmt
	KindBreakStmt
	KindContinueStmt
	KindBlock
	KindEmpty

	// Annotations
	KindAnno
	KindAnnoItem

	// Expressions
	KindDecLit
	KindHexLit
	KindStringLit
	KindCharLit
	KindBoolLit
	KindNull
	KindIdent
	KindBinary
	KindUnary
	KindTernary
	KindCall
	KindIndex
	KindFieldAccess
	KindCast
	KindAlloc
	KindAllocArray
	KindResult
	KindLength
	KindHastag
	KindAssign
	KindUpdate
	KindAssertExpr
	KindErrorExpr
)

var nodeKindNames = map[NodeKind]string{
	KindInvalid:        "Invalid",
	KindProgram:        "Program",
	KindName:           "Name",
	KindPragma:         "Pragma",
	KindStructDecl:     "StructDecl",
	KindField:          "Field",
	KindTypedefDecl:    "TypedefDecl",
	KindFunTypedefDecl: "FunTypedefDecl",
	KindFunDecl:        "FunDecl",
	KindParam:          "Param",
	KindBasicType:      "BasicType",
	KindTypedefType:    "TypedefType",
	KindStructType:     "StructType",
	KindPointerType:    "PointerType",
	KindArrayType:      "ArrayType",
	KindVarDecl:        "VarDecl",
	KindExprStmt:       "ExprStmt",
	KindIfStmt:         "IfStmt",
	KindWhileStmt:      "WhileStmt",
	KindForStmt:        "ForStmt",
	KindReturnStmt:     "ReturnStmt",
	KindBreakStmt:      "BreakStmt",
	KindContinueStmt:   "ContinueStmt",
	KindBlock:          "Block",
	KindEmpty:          "Empty",
	KindAnno:           "Anno",
	KindAnnoItem:       "AnnoItem",
	KindDecLit:         "DecLit",
	KindHexLit:         "HexLit",
	KindStringLit:      "StringLit",
	KindCharLit:        "CharLit",
	KindBoolLit:        "BoolLit",
	KindNull:           "Null",
	KindIdent:          "Ident",
	KindBinary:         "Binary",
	KindUnary:          "Unary",
	KindTernary:        "Ternary",
	KindCall:           "Call",
	KindIndex:          "Index",
	KindFieldAccess:    "FieldAccess",
	KindCast:           "Cast",
	KindAlloc:          "Alloc",
	KindAllocArray:     "AllocArray",
	KindResult:         "Result",
	KindLength:         "Length",
	KindHastag:         "Hastag",
	KindAssign:         "Assign",
	KindUpdate:         "Update",
	KindAssertExpr:     "AssertExpr",
	KindErrorExpr:      "ErrorExpr",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsType reports whether nodes of this kind denote types.
func (k NodeKind) IsType() bool {
	return k >= KindBasicType && k <= KindArrayType
}

// IsDecl reports whether nodes of this kind are top-level declarations.
func (k NodeKind) IsDecl() bool {
	return k >= KindPragma && k <= KindFunDecl && k != KindField
}

type Node struct {
	Kind       NodeKind
	Span       source.Span
	Children   []*Node
	Text       string
	Defined    bool
	Terminated bool
}

func New(kind NodeKind, span source.Span, children ...*Node) *Node {
	n := &Node{Kind: kind, Span: span}
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

func (n *Node) FirstChildOfKind(kind NodeKind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

// Name returns the text of the first Name child.
func (n *Node) Name() string {
	if c := n.FirstChildOfKind(KindName); c != nil {
		return c.Text
	}
	return ""
}

func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, 0, false)
	return b.String()
}

func (n *Node) StringWithPositions() string {
	var b strings.Builder
	n.write(&b, 0, true)
	return b.String()
}

func (n *Node) write(b *strings.Builder, indent int, showPositions bool) {
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(n.Kind.String())
	if showPositions {
		b.WriteString(" [" + n.Span.Start.String() + "-" + n.Span.End.String() + "]")
	}
	if n.Text != "" {
		b.WriteString(" " + n.Text)
	}
	b.WriteString("\n")
	for _, child := range n.Children {
		child.write(b, indent+1, showPositions)
	}
}
