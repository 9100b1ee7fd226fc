package parser

import (
	"fmt"

	"github.com/dhamidi/c0ls/c0/parsed"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/ebnf/parse"
)

// The builder turns concrete syntax trees from the Earley engine into the
// provisional tree. The CST shapes it expects are fixed by grammar.ebnf; a
// shape it does not recognize means the two have drifted apart, which is a
// programming error and panics.

func shapeError(n *parse.Node) string {
	return fmt.Sprintf("parser: unexpected %s node with %d children at %s", n.Kind, len(n.Children), n.Span)
}

func name(n *parse.Node) *parsed.Node {
	tok := n.Children[0]
	return &parsed.Node{Kind: parsed.KindName, Span: n.Span, Text: tok.Text()}
}

func buildProgram(n *parse.Node) []*parsed.Node {
	var out []*parsed.Node
	for _, c := range n.Children {
		out = append(out, buildDecl(c))
	}
	return out
}

func buildDecl(n *parse.Node) *parsed.Node {
	if n.Kind == "Decl" {
		n = n.Children[0]
	}
	switch n.Kind {
	case "Pragma":
		return &parsed.Node{Kind: parsed.KindPragma, Span: n.Span, Text: n.Children[0].Text()}

	case "StructDecl":
		d := parsed.New(parsed.KindStructDecl, n.Span, name(n.Children[1]))
		for _, c := range n.Children[2:] {
			switch {
			case c.Is("{"):
				d.Defined = true
			case c.Kind == "Field":
				d.AddChild(parsed.New(parsed.KindField, c.Span, buildType(c.Children[0]), name(c.Children[1])))
			}
		}
		return d

	case "TypedefDecl":
		d := parsed.New(parsed.KindTypedefDecl, n.Span, buildType(n.Children[1]), name(n.Children[2]))
		d.Terminated = n.Children[len(n.Children)-1].Is(";")
		return d

	case "FunTypedefDecl":
		d := parsed.New(parsed.KindFunTypedefDecl, n.Span, buildType(n.Children[1]), name(n.Children[2]))
		buildSignatureTail(d, n.Children[3:])
		d.Terminated = n.Children[len(n.Children)-1].Is(";")
		return d

	case "FunDecl":
		d := parsed.New(parsed.KindFunDecl, n.Span, buildType(n.Children[0]), name(n.Children[1]))
		buildSignatureTail(d, n.Children[2:])
		return d
	}
	panic(shapeError(n))
}

// buildSignatureTail handles "(" [Params] ")" {Anno} followed by an optional
// ";" or Block.
func buildSignatureTail(d *parsed.Node, rest []*parse.Node) {
	for _, c := range rest {
		switch c.Kind {
		case "Params":
			for _, p := range c.ChildrenOf("Param") {
				d.AddChild(parsed.New(parsed.KindParam, p.Span, buildType(p.Children[0]), name(p.Children[1])))
			}
		case "Anno":
			d.AddChild(buildAnno(c))
		case "Block":
			d.AddChild(buildBlock(c))
		}
	}
}

func buildType(n *parse.Node) *parsed.Node {
	c := n.Children
	switch {
	case len(c) == 1 && c[0].Kind == "typeIdentifier":
		return &parsed.Node{Kind: parsed.KindTypedefType, Span: n.Span, Text: c[0].Text()}
	case len(c) == 1:
		return &parsed.Node{Kind: parsed.KindBasicType, Span: n.Span, Text: c[0].Text()}
	case len(c) == 2 && c[0].Is("struct"):
		return parsed.New(parsed.KindStructType, n.Span, name(c[1]))
	case len(c) == 2 && c[1].Is("*"):
		return parsed.New(parsed.KindPointerType, n.Span, buildType(c[0]))
	case len(c) == 3 && c[1].Is("["):
		return parsed.New(parsed.KindArrayType, n.Span, buildType(c[0]))
	}
	panic(shapeError(n))
}

func buildAnno(n *parse.Node) *parsed.Node {
	a := &parsed.Node{Kind: parsed.KindAnno, Span: n.Span, Text: n.Children[0].Text()}
	for _, item := range n.ChildrenOf("AnnoItem") {
		a.AddChild(&parsed.Node{
			Kind:     parsed.KindAnnoItem,
			Span:     item.Span,
			Text:     item.Children[0].Text(),
			Children: []*parsed.Node{buildExpr(item.Children[1])},
		})
	}
	return a
}

func buildBlock(n *parse.Node) *parsed.Node {
	b := &parsed.Node{Kind: parsed.KindBlock, Span: n.Span}
	for _, c := range n.Children {
		switch c.Kind {
		case "Stmt":
			b.AddChild(buildStmt(c))
		case "Anno":
			b.AddChild(buildAnno(c))
		}
	}
	return b
}

func buildStmt(n *parse.Node) *parsed.Node {
	c := n.Children
	switch n.Kind {
	case "Stmt":
		return buildStmt(c[0])

	case "Matched", "Open":
		switch {
		case c[0].Is("if") && len(c) == 5:
			return parsed.New(parsed.KindIfStmt, n.Span, buildExpr(c[2]), buildStmt(c[4]))
		case c[0].Is("if"):
			return parsed.New(parsed.KindIfStmt, n.Span, buildExpr(c[2]), buildStmt(c[4]), buildStmt(c[6]))
		case c[0].Kind == "WhileHead":
			return buildWhile(n.Span, c[0], buildStmt(c[1]))
		case c[0].Kind == "ForHead":
			return buildFor(n.Span, c[0], buildStmt(c[1]))
		case c[0].Kind == "Other":
			return buildStmt(c[0])
		}

	case "Other":
		switch {
		case c[0].Kind == "Simple":
			return buildSimple(c[0])
		case c[0].Is("return"):
			r := &parsed.Node{Kind: parsed.KindReturnStmt, Span: n.Span}
			if len(c) == 3 {
				r.AddChild(buildExpr(c[1]))
			}
			return r
		case c[0].Is("break"):
			return &parsed.Node{Kind: parsed.KindBreakStmt, Span: n.Span}
		case c[0].Is("continue"):
			return &parsed.Node{Kind: parsed.KindContinueStmt, Span: n.Span}
		case c[0].Kind == "Block":
			return buildBlock(c[0])
		}
	}
	panic(shapeError(n))
}

func buildSimple(n *parse.Node) *parsed.Node {
	c := n.Children
	if c[0].Kind == "Expr" {
		return parsed.New(parsed.KindExprStmt, n.Span, buildExpr(c[0]))
	}
	d := parsed.New(parsed.KindVarDecl, n.Span, buildType(c[0]), name(c[1]))
	if len(c) == 4 {
		d.AddChild(buildExpr(c[3]))
	}
	return d
}

func buildWhile(span source.Span, head *parse.Node, body *parsed.Node) *parsed.Node {
	w := parsed.New(parsed.KindWhileStmt, span, buildExpr(head.Children[2]))
	for _, a := range head.ChildrenOf("Anno") {
		w.AddChild(buildAnno(a))
	}
	w.AddChild(body)
	return w
}

func buildFor(span source.Span, head *parse.Node, body *parsed.Node) *parsed.Node {
	f := &parsed.Node{Kind: parsed.KindForStmt, Span: span}
	// "for" "(" [Simple] ";" Expr ";" [Simple] ")" {Anno}
	c := head.Children[2:]
	if c[0].Kind == "Simple" {
		f.AddChild(buildSimple(c[0]))
		c = c[1:]
	} else {
		f.AddChild(&parsed.Node{Kind: parsed.KindEmpty, Span: c[0].Span})
	}
	// c[0] is the first ";"
	f.AddChild(buildExpr(c[1]))
	c = c[3:]
	if c[0].Kind == "Simple" {
		f.AddChild(buildSimple(c[0]))
		c = c[1:]
	} else {
		f.AddChild(&parsed.Node{Kind: parsed.KindEmpty, Span: c[0].Span})
	}
	for _, a := range c {
		if a.Kind == "Anno" {
			f.AddChild(buildAnno(a))
		}
	}
	f.AddChild(body)
	return f
}

var binaryLevels = map[string]bool{
	"LogicalOr":      true,
	"LogicalAnd":     true,
	"BitOr":          true,
	"BitXor":         true,
	"BitAnd":         true,
	"Equality":       true,
	"Relational":     true,
	"Shift":          true,
	"Additive":       true,
	"Multiplicative": true,
}

func buildExpr(n *parse.Node) *parsed.Node {
	c := n.Children
	switch {
	case n.Kind == "Expr":
		if len(c) == 1 {
			return buildExpr(c[0])
		}
		return &parsed.Node{
			Kind:     parsed.KindAssign,
			Span:     n.Span,
			Text:     c[1].Children[0].Text(),
			Children: []*parsed.Node{buildExpr(c[0]), buildExpr(c[2])},
		}

	case n.Kind == "Cond":
		if len(c) == 1 {
			return buildExpr(c[0])
		}
		return parsed.New(parsed.KindTernary, n.Span, buildExpr(c[0]), buildExpr(c[2]), buildExpr(c[4]))

	case binaryLevels[n.Kind]:
		if len(c) == 1 {
			return buildExpr(c[0])
		}
		return &parsed.Node{
			Kind:     parsed.KindBinary,
			Span:     n.Span,
			Text:     c[1].Text(),
			Children: []*parsed.Node{buildExpr(c[0]), buildExpr(c[2])},
		}

	case n.Kind == "Unary":
		switch len(c) {
		case 1:
			return buildExpr(c[0])
		case 2:
			return &parsed.Node{
				Kind:     parsed.KindUnary,
				Span:     n.Span,
				Text:     c[0].Text(),
				Children: []*parsed.Node{buildExpr(c[1])},
			}
		case 4:
			return parsed.New(parsed.KindCast, n.Span, buildType(c[1]), buildExpr(c[3]))
		}

	case n.Kind == "Postfix":
		if len(c) == 1 {
			return buildExpr(c[0])
		}
		x := buildExpr(c[0])
		switch {
		case c[1].Is("["):
			return parsed.New(parsed.KindIndex, n.Span, x, buildExpr(c[2]))
		case c[1].Is(".") || c[1].Is("->"):
			return &parsed.Node{
				Kind:     parsed.KindFieldAccess,
				Span:     n.Span,
				Text:     c[1].Text(),
				Children: []*parsed.Node{x, name(c[2])},
			}
		case c[1].Is("("):
			call := parsed.New(parsed.KindCall, n.Span, x)
			if args := c[2]; args.Kind == "Args" {
				for _, a := range args.ChildrenOf("Expr") {
					call.AddChild(buildExpr(a))
				}
			}
			return call
		case c[1].Is("++") || c[1].Is("--"):
			return &parsed.Node{Kind: parsed.KindUpdate, Span: n.Span, Text: c[1].Text(), Children: []*parsed.Node{x}}
		}

	case n.Kind == "Primary":
		return buildPrimary(n)
	}
	panic(shapeError(n))
}

func buildPrimary(n *parse.Node) *parsed.Node {
	c := n.Children
	first := c[0]
	leaf := func(kind parsed.NodeKind) *parsed.Node {
		return &parsed.Node{Kind: kind, Span: n.Span, Text: first.Text()}
	}
	switch first.Kind {
	case "decLiteral":
		return leaf(parsed.KindDecLit)
	case "hexLiteral":
		return leaf(parsed.KindHexLit)
	case "stringLiteral":
		return leaf(parsed.KindStringLit)
	case "charLiteral":
		return leaf(parsed.KindCharLit)
	case "identifier":
		return leaf(parsed.KindIdent)
	}
	switch first.Text() {
	case "true", "false":
		return leaf(parsed.KindBoolLit)
	case "NULL":
		return leaf(parsed.KindNull)
	case "(":
		return buildExpr(c[1])
	case "alloc":
		return parsed.New(parsed.KindAlloc, n.Span, buildType(c[2]))
	case "alloc_array":
		return parsed.New(parsed.KindAllocArray, n.Span, buildType(c[2]), buildExpr(c[4]))
	case `\result`:
		return leaf(parsed.KindResult)
	case `\length`:
		return parsed.New(parsed.KindLength, n.Span, buildExpr(c[2]))
	case `\hastag`:
		return parsed.New(parsed.KindHastag, n.Span, buildType(c[2]), buildExpr(c[4]))
	case "assert":
		return parsed.New(parsed.KindAssertExpr, n.Span, buildExpr(c[2]))
	case "error":
		return parsed.New(parsed.KindErrorExpr, n.Span, buildExpr(c[2]))
	}
	panic(shapeError(n))
}
