// Package parse implements an incremental Earley parser for grammars written
// in the golang.org/x/exp/ebnf notation, producing concrete syntax trees.
package parse

import "github.com/dhamidi/c0ls/c0/source"

// Token is a terminal handed to the parser. Class names the lexical
// production the token belongs to; a token with an empty Class is matched
// by its Literal against quoted tokens in the grammar.
type Token struct {
	Class   string
	Literal string
	Span    source.Span
}

func (t Token) String() string {
	if t.Class != "" {
		return t.Class + " " + t.Literal
	}
	return "'" + t.Literal + "'"
}

// Node represents a node in the concrete syntax tree.
// Leaf nodes have a non-nil Token; interior nodes have Children.
type Node struct {
	Kind     string  // Production name, or token class for terminals
	Children []*Node // Child nodes (nil for terminals)
	Token    *Token  // The token (non-nil for terminals)
	Span     source.Span
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Token != nil
}

// Text returns the token literal of a terminal node.
func (n *Node) Text() string {
	if n.Token != nil {
		return n.Token.Literal
	}
	return ""
}

// Is reports whether the node is the terminal with the given literal.
func (n *Node) Is(literal string) bool {
	return n.Token != nil && n.Token.Class == "" && n.Token.Literal == literal
}

// Child returns the first child of the given kind, or nil.
func (n *Node) Child(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all children of the given kind.
func (n *Node) ChildrenOf(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// AddChild appends a child node and updates the span.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	if len(n.Children) == 1 {
		n.Span.Start = child.Span.Start
		n.Span.File = child.Span.File
	}
	n.Span.End = child.Span.End
}

// NewTerminal creates a terminal node from a token.
func NewTerminal(tok Token) *Node {
	kind := tok.Class
	if kind == "" {
		kind = tok.Literal
	}
	return &Node{
		Kind:  kind,
		Token: &tok,
		Span:  tok.Span,
	}
}

// NewNonTerminal creates a non-terminal node.
func NewNonTerminal(kind string) *Node {
	return &Node{Kind: kind}
}
