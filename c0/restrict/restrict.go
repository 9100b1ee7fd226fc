// Package restrict narrows the provisional syntax tree to the final AST of
// one dialect.
//
// Every construct is gated by the tier table in tiers.go. Problems are
// collected per declaration; a declaration with any problem is left out of
// the result so later stages only ever see legal trees.
package restrict

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/parsed"
	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
)

var (
	useLibPattern  = regexp.MustCompile(`^#use\s*<([^>]*)>\s*$`)
	useFilePattern = regexp.MustCompile(`^#use\s*"([^"]*)"\s*$`)
)

// UsePragma decodes the text of a #use line. library reports whether the
// target was written in angle brackets.
func UsePragma(text string) (target string, library, ok bool) {
	text = strings.TrimSpace(text)
	if m := useLibPattern.FindStringSubmatch(text); m != nil {
		return m[1], true, true
	}
	if m := useFilePattern.FindStringSubmatch(text); m != nil {
		return m[1], false, true
	}
	return "", false, false
}

// Program restricts the declarations of one file. comments are the
// comments the parser collected, in source order; they become the
// documentation of the declarations they precede.
func Program(decls []*parsed.Node, comments []scanner.Token, l lang.Lang) ([]ast.Decl, []*Error) {
	var (
		out   []ast.Decl
		errs  []*Error
		after source.Position
	)
	for _, n := range decls {
		d, derrs := Decl(n, l)
		errs = append(errs, derrs...)
		if len(derrs) == 0 {
			setDoc(d, docFor(comments, n.Span.Start, after))
			out = append(out, d)
		}
		after = n.Span.End
	}
	return out, errs
}

// Decl restricts a single top-level declaration.
func Decl(n *parsed.Node, l lang.Lang) (ast.Decl, []*Error) {
	r := &restrictor{lang: l}
	d := r.decl(n)
	return d, r.errs
}

// Stmt restricts a single statement, as typed into an interactive session.
func Stmt(n *parsed.Node, l lang.Lang) (ast.Stmt, []*Error) {
	r := &restrictor{lang: l}
	s := r.stmt(n)
	return s, r.errs
}

// Expr restricts a single expression.
func Expr(n *parsed.Node, l lang.Lang) (ast.Expr, []*Error) {
	r := &restrictor{lang: l}
	e := r.expr(n)
	return e, r.errs
}

// Diagnostics converts restriction errors for reporting.
func Diagnostics(errs []*Error) []source.Diagnostic {
	out := make([]source.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Diagnostic())
	}
	return out
}

type restrictor struct {
	lang lang.Lang
	errs []*Error
}

func (r *restrictor) errorf(span source.Span, hints []string, format string, args ...any) {
	r.errs = append(r.errs, &Error{Msg: fmt.Sprintf(format, args...), Hints: hints, Span: span})
}

// need records an error unless c is available in the active dialect.
func (r *restrictor) need(c Construct, span source.Span) {
	if !Allowed(c, r.lang) {
		r.errs = append(r.errs, &Error{Msg: tierMessage(c, r.lang), Span: span})
	}
}

func at[T interface{ SetSpan(source.Span) }](n T, s source.Span) T {
	n.SetSpan(s)
	return n
}

func name(n *parsed.Node) *ast.Name {
	if n == nil || n.Kind != parsed.KindName {
		impossible(spanOf(n), "expected a name")
	}
	return at(&ast.Name{Value: n.Text}, n.Span)
}

func spanOf(n *parsed.Node) source.Span {
	if n == nil {
		return source.Span{}
	}
	return n.Span
}

func setDoc(d ast.Decl, doc string) {
	switch d := d.(type) {
	case *ast.UseLib:
		d.Doc = doc
	case *ast.UseFile:
		d.Doc = doc
	case *ast.StructDecl:
		d.Doc = doc
	case *ast.TypedefDecl:
		d.Doc = doc
	case *ast.FunTypedefDecl:
		d.Doc = doc
	case *ast.FunDecl:
		d.Doc = doc
	}
}

// ----------------------------------------------------------------------------
// Declarations

func (r *restrictor) decl(n *parsed.Node) ast.Decl {
	switch n.Kind {
	case parsed.KindPragma:
		r.need(Use, n.Span)
		target, library, ok := UsePragma(n.Text)
		switch {
		case ok && library:
			return at(&ast.UseLib{Name: target}, n.Span)
		case ok:
			return at(&ast.UseFile{Path: target}, n.Span)
		}
		r.errorf(n.Span, []string{`expected #use <library> or #use "file"`}, "unknown pragma %s", strings.TrimSpace(n.Text))
		return nil

	case parsed.KindStructDecl:
		r.need(Struct, n.Span)
		d := at(&ast.StructDecl{Name: name(n.Child(0)), Defined: n.Defined}, n.Span)
		for _, f := range n.ChildrenOfKind(parsed.KindField) {
			d.Fields = append(d.Fields, at(&ast.FieldDecl{
				Type: r.typ(f.Child(0)),
				Name: name(f.Child(1)),
			}, f.Span))
		}
		return d

	case parsed.KindTypedefDecl:
		r.need(Typedef, n.Span)
		return at(&ast.TypedefDecl{Type: r.typ(n.Child(0)), Name: name(n.Child(1))}, n.Span)

	case parsed.KindFunTypedefDecl:
		r.need(Typedef, n.Span)
		r.need(FunctionPointer, n.Span)
		d := at(&ast.FunTypedefDecl{Ret: r.typ(n.Child(0)), Name: name(n.Child(1))}, n.Span)
		d.Params, d.Requires, d.Ensures, _ = r.signature(n)
		return d

	case parsed.KindFunDecl:
		d := at(&ast.FunDecl{Ret: r.typ(n.Child(0)), Name: name(n.Child(1))}, n.Span)
		var body *parsed.Node
		d.Params, d.Requires, d.Ensures, body = r.signature(n)
		if body == nil {
			r.need(Prototype, n.Span)
		} else {
			r.need(FunctionDefinition, n.Span)
			d.Body = r.block(body)
		}
		return d
	}
	impossible(n.Span, "%s is not a declaration", n.Kind)
	return nil
}

// signature restricts the parameters and contracts that follow a function
// or function typedef name, and returns the body if there is one.
func (r *restrictor) signature(n *parsed.Node) (params []*ast.Param, requires, ensures []*ast.Contract, body *parsed.Node) {
	for _, c := range n.Children[2:] {
		switch c.Kind {
		case parsed.KindParam:
			r.need(Parameter, c.Span)
			params = append(params, at(&ast.Param{Type: r.typ(c.Child(0)), Name: name(c.Child(1))}, c.Span))
		case parsed.KindAnno:
			for _, k := range r.contracts(c, ast.Requires, ast.Ensures) {
				if k.Kind == ast.Requires {
					requires = append(requires, k)
				} else {
					ensures = append(ensures, k)
				}
			}
		case parsed.KindBlock:
			body = c
		default:
			impossible(c.Span, "unexpected %s in function signature", c.Kind)
		}
	}
	return params, requires, ensures, body
}

var contractKinds = map[string]ast.ContractKind{
	"requires":       ast.Requires,
	"ensures":        ast.Ensures,
	"loop_invariant": ast.LoopInvariant,
	"assert":         ast.Assert,
}

var contractPlaces = map[ast.ContractKind]string{
	ast.Requires:      "before a function body",
	ast.Ensures:       "before a function body",
	ast.LoopInvariant: "after a loop header",
	ast.Assert:        "among the statements of a block",
}

// contracts restricts one annotation whose items may only be of the
// allowed kinds.
func (r *restrictor) contracts(n *parsed.Node, allowed ...ast.ContractKind) []*ast.Contract {
	r.need(Annotation, n.Span)
	var out []*ast.Contract
	for _, item := range n.ChildrenOfKind(parsed.KindAnnoItem) {
		kind, ok := contractKinds[item.Text]
		if !ok {
			impossible(item.Span, "unknown annotation %s", item.Text)
		}
		legal := false
		for _, a := range allowed {
			legal = legal || a == kind
		}
		if !legal {
			r.errorf(item.Span, []string{fmt.Sprintf("@%s is only allowed %s", kind, contractPlaces[kind])},
				"@%s annotation not allowed here", kind)
			continue
		}
		out = append(out, at(&ast.Contract{Kind: kind, Cond: r.expr(item.Child(0))}, item.Span))
	}
	return out
}

// ----------------------------------------------------------------------------
// Types

var basicConstructs = map[string]Construct{
	"int":    IntType,
	"bool":   BoolType,
	"string": StringType,
	"char":   CharType,
	"void":   VoidType,
}

func (r *restrictor) typ(n *parsed.Node) ast.Type {
	if n == nil {
		impossible(source.Span{}, "missing type")
	}
	switch n.Kind {
	case parsed.KindBasicType:
		c, ok := basicConstructs[n.Text]
		kind, known := ast.LookupBasic(n.Text)
		if !ok || !known {
			impossible(n.Span, "unknown basic type %s", n.Text)
		}
		r.need(c, n.Span)
		return at(&ast.BasicType{Kind: kind}, n.Span)
	case parsed.KindTypedefType:
		r.need(Typedef, n.Span)
		return at(&ast.NamedType{Name: n.Text}, n.Span)
	case parsed.KindStructType:
		r.need(Struct, n.Span)
		return at(&ast.StructType{Name: name(n.Child(0))}, n.Span)
	case parsed.KindPointerType:
		r.need(Pointer, n.Span)
		return at(&ast.PointerType{Elem: r.typ(n.Child(0))}, n.Span)
	case parsed.KindArrayType:
		r.need(Array, n.Span)
		return at(&ast.ArrayType{Elem: r.typ(n.Child(0))}, n.Span)
	}
	impossible(n.Span, "%s is not a type", n.Kind)
	return nil
}

// ----------------------------------------------------------------------------
// Statements

func (r *restrictor) block(n *parsed.Node) *ast.BlockStmt {
	r.need(Block, n.Span)
	b := at(&ast.BlockStmt{}, n.Span)
	for _, c := range n.Children {
		if c.Kind == parsed.KindAnno {
			b.Stmts = append(b.Stmts, at(&ast.AnnoStmt{Contracts: r.contracts(c, ast.Assert)}, c.Span))
			continue
		}
		b.Stmts = append(b.Stmts, r.stmt(c))
	}
	return b
}

func (r *restrictor) stmt(n *parsed.Node) ast.Stmt {
	switch n.Kind {
	case parsed.KindVarDecl:
		r.need(LocalDeclaration, n.Span)
		s := at(&ast.VarDeclStmt{Type: r.typ(n.Child(0)), Name: name(n.Child(1))}, n.Span)
		if init := n.Child(2); init != nil {
			s.Init = r.expr(init)
		}
		return s

	case parsed.KindExprStmt:
		return r.exprStmt(n.Span, n.Child(0))

	case parsed.KindIfStmt:
		r.need(If, n.Span)
		s := at(&ast.IfStmt{Cond: r.expr(n.Child(0)), Then: r.stmt(n.Child(1))}, n.Span)
		if e := n.Child(2); e != nil {
			s.Else = r.stmt(e)
		}
		return s

	case parsed.KindWhileStmt:
		r.need(While, n.Span)
		s := at(&ast.WhileStmt{Cond: r.expr(n.Child(0))}, n.Span)
		s.Invariants, s.Body = r.loopTail(n.Children[1:])
		return s

	case parsed.KindForStmt:
		r.need(For, n.Span)
		s := at(&ast.ForStmt{}, n.Span)
		if init := n.Child(0); init.Kind != parsed.KindEmpty {
			s.Init = r.stmt(init)
		}
		s.Cond = r.expr(n.Child(1))
		if post := n.Child(2); post.Kind != parsed.KindEmpty {
			if post.Kind == parsed.KindVarDecl {
				r.errorf(post.Span, nil, "declaration not allowed as the step of a for loop")
			} else {
				s.Post = r.stmt(post)
			}
		}
		s.Invariants, s.Body = r.loopTail(n.Children[3:])
		return s

	case parsed.KindReturnStmt:
		r.need(Return, n.Span)
		s := at(&ast.ReturnStmt{}, n.Span)
		if v := n.Child(0); v != nil {
			s.Value = r.expr(v)
		}
		return s

	case parsed.KindBreakStmt:
		r.need(Break, n.Span)
		return at(&ast.BreakStmt{}, n.Span)

	case parsed.KindContinueStmt:
		r.need(Continue, n.Span)
		return at(&ast.ContinueStmt{}, n.Span)

	case parsed.KindBlock:
		return r.block(n)
	}
	impossible(n.Span, "%s is not a statement", n.Kind)
	return nil
}

// loopTail restricts the loop invariants and the body that end a loop.
func (r *restrictor) loopTail(rest []*parsed.Node) ([]*ast.Contract, ast.Stmt) {
	if len(rest) == 0 {
		impossible(source.Span{}, "loop without body")
	}
	var inv []*ast.Contract
	for _, a := range rest[:len(rest)-1] {
		inv = append(inv, r.contracts(a, ast.LoopInvariant)...)
	}
	return inv, r.stmt(rest[len(rest)-1])
}

// exprStmt turns the statement-only expression forms into statements.
func (r *restrictor) exprStmt(span source.Span, e *parsed.Node) ast.Stmt {
	switch e.Kind {
	case parsed.KindAssign:
		if e.Text == "=" {
			r.need(Assignment, e.Span)
		} else {
			r.need(CompoundAssignment, e.Span)
		}
		return at(&ast.AssignStmt{Op: e.Text, LHS: r.lvalue(e.Child(0)), RHS: r.expr(e.Child(1))}, span)

	case parsed.KindUpdate:
		r.need(Update, e.Span)
		return at(&ast.UpdateStmt{Op: e.Text, X: r.lvalue(e.Child(0))}, span)

	case parsed.KindAssertExpr:
		r.need(AssertStatement, e.Span)
		return at(&ast.AssertStmt{Cond: r.expr(e.Child(0))}, span)

	case parsed.KindErrorExpr:
		r.need(ErrorStatement, e.Span)
		return at(&ast.ErrorStmt{Msg: r.expr(e.Child(0))}, span)

	case parsed.KindBinary:
		x, y := e.Child(0), e.Child(1)
		if e.Text == "*" && x.Kind == parsed.KindIdent && y.Kind == parsed.KindIdent {
			r.errorf(e.Span,
				[]string{fmt.Sprintf("if %s is meant to be a type, declare it with typedef before this point", x.Text)},
				"statement '%s * %s' has no effect", x.Text, y.Text)
		}
	}
	return at(&ast.ExprStmt{X: r.expr(e)}, span)
}

// isLValue reports whether n may be assigned to.
func isLValue(n *parsed.Node) bool {
	switch n.Kind {
	case parsed.KindIdent:
		return true
	case parsed.KindFieldAccess, parsed.KindIndex:
		return isLValue(n.Child(0))
	case parsed.KindUnary:
		if n.Text != "*" {
			return false
		}
		x := n.Child(0)
		// *(T*)e is allowed for reinterpreting a pointer.
		if x.Kind == parsed.KindCast && x.Child(0).Kind == parsed.KindPointerType {
			return true
		}
		return isLValue(x)
	}
	return false
}

func (r *restrictor) lvalue(n *parsed.Node) ast.Expr {
	if !isLValue(n) {
		r.errorf(n.Span, []string{"only variables, fields, array elements and dereferenced pointers can be assigned"},
			"invalid assignment target")
	}
	return r.expr(n)
}

// ----------------------------------------------------------------------------
// Expressions

var binaryConstructs = map[string]Construct{
	"+":  Arithmetic,
	"-":  Arithmetic,
	"*":  Arithmetic,
	"/":  Arithmetic,
	"%":  Arithmetic,
	"<":  Comparison,
	"<=": Comparison,
	">":  Comparison,
	">=": Comparison,
	"==": Comparison,
	"!=": Comparison,
	"&&": Logical,
	"||": Logical,
	"&":  Bitwise,
	"|":  Bitwise,
	"^":  Bitwise,
	"<<": Shift,
	">>": Shift,
}

var unaryConstructs = map[string]Construct{
	"-": Negation,
	"!": Logical,
	"~": Bitwise,
	"*": Dereference,
	"&": FunctionPointer,
}

var statementForms = map[parsed.NodeKind]string{
	parsed.KindAssign:     "assignment",
	parsed.KindUpdate:     "increment or decrement",
	parsed.KindAssertExpr: "assert",
	parsed.KindErrorExpr:  "error",
}

func (r *restrictor) exprs(ns []*parsed.Node) []ast.Expr {
	var out []ast.Expr
	for _, n := range ns {
		out = append(out, r.expr(n))
	}
	return out
}

func (r *restrictor) expr(n *parsed.Node) ast.Expr {
	if n == nil {
		impossible(source.Span{}, "missing expression")
	}
	switch n.Kind {
	case parsed.KindDecLit:
		r.need(DecimalLiteral, n.Span)
		v, err := DecodeDecimal(n.Text)
		if err != nil {
			r.errorf(n.Span, nil, "%v", err)
		}
		return at(&ast.IntLit{Value: v, Raw: n.Text}, n.Span)

	case parsed.KindHexLit:
		r.need(HexLiteral, n.Span)
		v, err := DecodeHex(n.Text)
		if err != nil {
			r.errorf(n.Span, nil, "%v", err)
		}
		return at(&ast.IntLit{Value: v, Raw: n.Text}, n.Span)

	case parsed.KindStringLit:
		r.need(StringLiteral, n.Span)
		v, err := DecodeString(n.Text)
		if err != nil {
			r.errorf(n.Span, nil, "%v", err)
		}
		return at(&ast.StringLit{Value: v, Raw: n.Text}, n.Span)

	case parsed.KindCharLit:
		r.need(CharLiteral, n.Span)
		v, err := DecodeChar(n.Text)
		if err != nil {
			r.errorf(n.Span, nil, "%v", err)
		}
		return at(&ast.CharLit{Value: v, Raw: n.Text}, n.Span)

	case parsed.KindBoolLit:
		r.need(BoolLiteral, n.Span)
		return at(&ast.BoolLit{Value: n.Text == "true"}, n.Span)

	case parsed.KindNull:
		r.need(Null, n.Span)
		return at(&ast.NullLit{}, n.Span)

	case parsed.KindIdent:
		return at(&ast.Ident{Name: n.Text}, n.Span)

	case parsed.KindBinary:
		c, ok := binaryConstructs[n.Text]
		if !ok {
			impossible(n.Span, "unknown binary operator %s", n.Text)
		}
		r.need(c, n.Span)
		return at(&ast.BinaryExpr{Op: n.Text, X: r.expr(n.Child(0)), Y: r.expr(n.Child(1))}, n.Span)

	case parsed.KindUnary:
		c, ok := unaryConstructs[n.Text]
		if !ok {
			impossible(n.Span, "unknown unary operator %s", n.Text)
		}
		r.need(c, n.Span)
		if n.Text == "&" && n.Child(0).Kind != parsed.KindIdent {
			r.errorf(n.Span, []string{"only function names can have their address taken"}, "invalid operand of &")
		}
		return at(&ast.UnaryExpr{Op: n.Text, X: r.expr(n.Child(0))}, n.Span)

	case parsed.KindTernary:
		r.need(Conditional, n.Span)
		return at(&ast.CondExpr{
			Cond: r.expr(n.Child(0)),
			Then: r.expr(n.Child(1)),
			Else: r.expr(n.Child(2)),
		}, n.Span)

	case parsed.KindCall:
		r.need(Call, n.Span)
		if n.Child(0).Kind != parsed.KindIdent {
			r.need(FunctionPointer, n.Span)
		}
		return at(&ast.CallExpr{Fun: r.expr(n.Child(0)), Args: r.exprs(n.Children[1:])}, n.Span)

	case parsed.KindIndex:
		r.need(Index, n.Span)
		return at(&ast.IndexExpr{X: r.expr(n.Child(0)), Index: r.expr(n.Child(1))}, n.Span)

	case parsed.KindFieldAccess:
		r.need(FieldAccess, n.Span)
		return at(&ast.FieldExpr{X: r.expr(n.Child(0)), Field: name(n.Child(1)), Arrow: n.Text == "->"}, n.Span)

	case parsed.KindCast:
		r.need(Cast, n.Span)
		return at(&ast.CastExpr{Type: r.typ(n.Child(0)), X: r.expr(n.Child(1))}, n.Span)

	case parsed.KindAlloc:
		r.need(Alloc, n.Span)
		return at(&ast.AllocExpr{Type: r.typ(n.Child(0))}, n.Span)

	case parsed.KindAllocArray:
		r.need(AllocArray, n.Span)
		return at(&ast.AllocArrayExpr{Type: r.typ(n.Child(0)), Len: r.expr(n.Child(1))}, n.Span)

	case parsed.KindResult:
		r.need(Result, n.Span)
		return at(&ast.ResultExpr{}, n.Span)

	case parsed.KindLength:
		r.need(Length, n.Span)
		return at(&ast.LengthExpr{X: r.expr(n.Child(0))}, n.Span)

	case parsed.KindHastag:
		r.need(Hastag, n.Span)
		return at(&ast.HastagExpr{Type: r.typ(n.Child(0)), X: r.expr(n.Child(1))}, n.Span)

	case parsed.KindAssign, parsed.KindUpdate, parsed.KindAssertExpr, parsed.KindErrorExpr:
		form := statementForms[n.Kind]
		r.errorf(n.Span, []string{fmt.Sprintf("use %s as a statement of its own", form)},
			"%s cannot be used as an expression", form)
		// Operands are still checked.
		for _, c := range n.Children {
			r.expr(c)
		}
		return at(&ast.Ident{Name: "_"}, n.Span)
	}
	impossible(n.Span, "%s is not an expression", n.Kind)
	return nil
}
