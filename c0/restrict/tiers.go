package restrict

import (
	"fmt"

	"github.com/dhamidi/c0ls/c0/lang"
)

// Construct is a syntax form whose availability depends on the dialect.
type Construct int

const (
	// L1
	IntType Construct = iota + 1
	DecimalLiteral
	HexLiteral
	Arithmetic
	Negation
	Assignment
	CompoundAssignment
	LocalDeclaration
	Return
	Block
	FunctionDefinition

	// L2
	BoolType
	BoolLiteral
	If
	While
	For
	Conditional
	Logical
	Comparison
	Bitwise
	Shift
	Update

	// L3
	Call
	Parameter
	Prototype
	VoidType
	Typedef
	AssertStatement

	// L4
	Struct
	Pointer
	Array
	Null
	Alloc
	AllocArray
	FieldAccess
	Index
	Dereference

	// C0
	StringType
	CharType
	StringLiteral
	CharLiteral
	Annotation
	Result
	Length
	ErrorStatement
	Use

	// C1
	Cast
	FunctionPointer
	Hastag
	Break
	Continue
)

type tierEntry struct {
	name string
	min  lang.Lang
}

// tiers is the single source of truth for dialect gating.
var tiers = map[Construct]tierEntry{
	IntType:            {"type int", lang.L1},
	DecimalLiteral:     {"decimal literals", lang.L1},
	HexLiteral:         {"hexadecimal literals", lang.L1},
	Arithmetic:         {"arithmetic operators", lang.L1},
	Negation:           {"unary minus", lang.L1},
	Assignment:         {"assignment", lang.L1},
	CompoundAssignment: {"compound assignment", lang.L1},
	LocalDeclaration:   {"variable declarations", lang.L1},
	Return:             {"return statements", lang.L1},
	Block:              {"blocks", lang.L1},
	FunctionDefinition: {"function definitions", lang.L1},

	BoolType:    {"type bool", lang.L2},
	BoolLiteral: {"boolean literals", lang.L2},
	If:          {"if statements", lang.L2},
	While:       {"while loops", lang.L2},
	For:         {"for loops", lang.L2},
	Conditional: {"conditional expressions", lang.L2},
	Logical:     {"logical operators", lang.L2},
	Comparison:  {"comparison operators", lang.L2},
	Bitwise:     {"bitwise operators", lang.L2},
	Shift:       {"shift operators", lang.L2},
	Update:      {"increment and decrement", lang.L2},

	Call:            {"function calls", lang.L3},
	Parameter:       {"function parameters", lang.L3},
	Prototype:       {"function declarations without a body", lang.L3},
	VoidType:        {"type void", lang.L3},
	Typedef:         {"typedefs", lang.L3},
	AssertStatement: {"assert statements", lang.L3},

	Struct:      {"structs", lang.L4},
	Pointer:     {"pointers", lang.L4},
	Array:       {"arrays", lang.L4},
	Null:        {"NULL", lang.L4},
	Alloc:       {"alloc", lang.L4},
	AllocArray:  {"alloc_array", lang.L4},
	FieldAccess: {"field access", lang.L4},
	Index:       {"array indexing", lang.L4},
	Dereference: {"pointer dereference", lang.L4},

	StringType:     {"type string", lang.C0},
	CharType:       {"type char", lang.C0},
	StringLiteral:  {"string literals", lang.C0},
	CharLiteral:    {"character literals", lang.C0},
	Annotation:     {"contract annotations", lang.C0},
	Result:         {`\result`, lang.C0},
	Length:         {`\length`, lang.C0},
	ErrorStatement: {"error statements", lang.C0},
	Use:            {"#use pragmas", lang.C0},

	Cast:            {"casts", lang.C1},
	FunctionPointer: {"function pointers", lang.C1},
	Hastag:          {`\hastag`, lang.C1},
	Break:           {"break statements", lang.C1},
	Continue:        {"continue statements", lang.C1},
}

func (c Construct) String() string {
	if e, ok := tiers[c]; ok {
		return e.name
	}
	return fmt.Sprintf("Construct(%d)", int(c))
}

// MinTier returns the first dialect in which c is legal.
func (c Construct) MinTier() lang.Lang {
	return tiers[c].min
}

// Allowed reports whether c is legal in l.
func Allowed(c Construct, l lang.Lang) bool {
	return l.AtLeast(c.MinTier())
}

func tierMessage(c Construct, l lang.Lang) string {
	return fmt.Sprintf("%s not supported in %s; requires %s or later", c, l, c.MinTier())
}
