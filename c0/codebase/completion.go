package codebase

import (
	"strconv"
	"strings"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/navigate"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/c0/typecheck"
)

type CompletionKind int

const (
	CompletionKindFunction CompletionKind = iota
	CompletionKindField
	CompletionKindVariable
	CompletionKindType
)

type CompletionItem struct {
	Label      string
	Kind       CompletionKind
	Detail     string
	InsertText string
}

// CompletionsAtPoint lists what can be written at pos. After "." or "->"
// these are the fields of the struct the expression before it refers to;
// elsewhere they are the locals in scope, functions and type names.
func (c *Codebase) CompletionsAtPoint(path string, pos source.Position) []CompletionItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, err := c.analyzeLocked(path)
	if err != nil {
		return nil
	}
	fi := c.files[path]
	// While a line is being typed the declaration around it usually does
	// not parse; the last clean analysis still knows its locals.
	if navigate.DeclAt(a.Env, path, pos) == nil && fi.Previous != nil {
		a = fi.Previous
	}
	line := lineAt(fi.Content, pos.Line)
	col := min(max(pos.Column-1, 0), len(line))

	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	prefix := line[start:col]
	before := line[:start]

	switch {
	case strings.HasSuffix(before, "->"):
		return c.fieldsOf(a, before[:len(before)-2], true, pos, prefix)
	case strings.HasSuffix(before, "."):
		return c.fieldsOf(a, before[:len(before)-1], false, pos, prefix)
	}
	return c.inScope(a, pos, prefix)
}

func (c *Codebase) fieldsOf(a *Analysis, text string, arrow bool, pos source.Position, prefix string) []CompletionItem {
	text = text[exprStart(text):]
	if strings.TrimSpace(text) == "" {
		return nil
	}
	names := a.TypeNames
	if names == nil {
		names = scanner.NewTypeNames(a.Env.TypeNames()...)
	}
	node, err := parser.ParseExpression(text, parser.WithTypeNames(names))
	if err != nil {
		log().Debugf("no completion for %q: %v", text, err)
		return nil
	}
	x, rerrs := restrict.Expr(node, lang.C1)
	if len(rerrs) > 0 {
		return nil
	}
	t, terrs := a.Checker.Expr(x, a.Checker.Info().LocalsAt(a.Path, pos))
	if len(terrs) > 0 {
		return nil
	}
	if p, ok := t.(*typecheck.Pointer); ok && arrow {
		t = p.Elem
	} else if arrow {
		return nil
	}
	st, ok := t.(*typecheck.Struct)
	if !ok {
		return nil
	}
	decl := a.Env.Struct(st.Name)
	if decl == nil || !decl.Defined {
		return nil
	}

	var items []CompletionItem
	for _, f := range decl.Fields {
		if !strings.HasPrefix(f.Name.Value, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      f.Name.Value,
			Kind:       CompletionKindField,
			Detail:     ast.TypeString(f.Type),
			InsertText: f.Name.Value,
		})
	}
	return items
}

func (c *Codebase) inScope(a *Analysis, pos source.Position, prefix string) []CompletionItem {
	var items []CompletionItem
	for _, l := range a.Checker.Info().LocalsAt(a.Path, pos) {
		if !strings.HasPrefix(l.Name.Value, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      l.Name.Value,
			Kind:       CompletionKindVariable,
			Detail:     l.Type.String(),
			InsertText: l.Name.Value,
		})
	}
	for _, name := range a.Env.FunctionNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		f := a.Env.Function(name)
		items = append(items, CompletionItem{
			Label:      name,
			Kind:       CompletionKindFunction,
			Detail:     a.Checker.Describe(f),
			InsertText: formatCallInsert(f),
		})
	}
	for _, name := range a.Env.TypeNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      name,
			Kind:       CompletionKindType,
			InsertText: name,
		})
	}
	return items
}

func formatCallInsert(f *ast.FunDecl) string {
	if len(f.Params) == 0 {
		return f.Name.Value + "()"
	}
	var placeholders []string
	for i, p := range f.Params {
		placeholders = append(placeholders, "${"+strconv.Itoa(i+1)+":"+p.Name.Value+"}")
	}
	return f.Name.Value + "(" + strings.Join(placeholders, ", ") + ")"
}

// exprStart returns where the expression that ends text begins: a chain
// of names, field accesses, calls and subscripts.
func exprStart(text string) int {
	depth := 0
	i := len(text)
	for i > 0 {
		ch := text[i-1]
		switch {
		case ch == ')' || ch == ']':
			depth++
		case ch == '(' || ch == '[':
			if depth == 0 {
				return i
			}
			depth--
		case depth > 0:
		case isIdentByte(ch) || ch == '.':
		case ch == '>' && i >= 2 && text[i-2] == '-':
			i--
		default:
			return i
		}
		i--
	}
	return i
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

func lineAt(content []byte, line int) string {
	lines := strings.Split(string(content), "\n")
	if line <= 0 || line > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[line-1], "\r")
}
