package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dhamidi/c0ls/c0/parsed"
	"github.com/dhamidi/c0ls/c0/scanner"
)

func mustParse(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	res := Parse(src, opts...)
	for _, d := range res.Diagnostics {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	return res
}

func find(n *parsed.Node, kind parsed.NodeKind) *parsed.Node {
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if f := find(c, kind); f != nil {
			return f
		}
	}
	return nil
}

func TestParseDeclarations(t *testing.T) {
	res := mustParse(t, `
#use <conio>
struct point { int x; int y; };
struct node;
typedef struct point* point_t;
int dist(point_t p);
int dist(point_t p) { return p->x + p->y; }
`)
	want := []parsed.NodeKind{
		parsed.KindPragma,
		parsed.KindStructDecl,
		parsed.KindStructDecl,
		parsed.KindTypedefDecl,
		parsed.KindFunDecl,
		parsed.KindFunDecl,
	}
	if len(res.Decls) != len(want) {
		t.Fatalf("got %d decls, want %d", len(res.Decls), len(want))
	}
	for i, d := range res.Decls {
		if d.Kind != want[i] {
			t.Errorf("decl %d: got %s, want %s", i, d.Kind, want[i])
		}
	}
	if !res.Decls[1].Defined || len(res.Decls[1].ChildrenOfKind(parsed.KindField)) != 2 {
		t.Errorf("struct point parsed as %s", res.Decls[1])
	}
	if res.Decls[2].Defined {
		t.Error("forward struct declaration marked as defined")
	}
	if !res.TypeNames.Has("point_t") {
		t.Error("typedef name was not registered")
	}
	if res.Decls[4].FirstChildOfKind(parsed.KindBlock) != nil {
		t.Error("prototype has a body")
	}
	if res.Decls[5].FirstChildOfKind(parsed.KindBlock) == nil {
		t.Error("definition has no body")
	}
}

func TestTypedefNameChangesParse(t *testing.T) {
	res := mustParse(t, `
typedef int t;
int f(int x) {
  t * y;
  return (t) x;
}
`)
	body := res.Decls[1].FirstChildOfKind(parsed.KindBlock)
	if body.Children[0].Kind != parsed.KindVarDecl {
		t.Errorf("t * y parsed as %s, want VarDecl", body.Children[0].Kind)
	}
	if find(body.Children[1], parsed.KindCast) == nil {
		t.Errorf("(t) x parsed without a cast:\n%s", body.Children[1])
	}

	res = mustParse(t, `
int f(int t, int x) {
  t * x;
  return (t) * x;
}
`)
	body = res.Decls[0].FirstChildOfKind(parsed.KindBlock)
	if body.Children[0].Kind != parsed.KindExprStmt {
		t.Errorf("t * x parsed as %s, want ExprStmt", body.Children[0].Kind)
	}
	if find(body.Children[1], parsed.KindCast) != nil {
		t.Error("(t) * x parsed as a cast")
	}
}

func TestDanglingElse(t *testing.T) {
	res := mustParse(t, `void f(int a, int b) { if (a) if (b) a = 1; else a = 2; }`)
	outer := res.Decls[0].FirstChildOfKind(parsed.KindBlock).Children[0]
	if outer.Kind != parsed.KindIfStmt || len(outer.Children) != 2 {
		t.Fatalf("outer if: %s", outer)
	}
	inner := outer.Children[1]
	if inner.Kind != parsed.KindIfStmt || len(inner.Children) != 3 {
		t.Errorf("else bound to the wrong if:\n%s", outer)
	}
}

func TestAnnotations(t *testing.T) {
	res := mustParse(t, `
int f(int x)
//@requires x > 0;
//@ensures \result >= 0;
{
  for (int i = 0; i < x; i++)
  /*@ loop_invariant i >= 0; @*/
  {
    //@assert i < x;
  }
  return x;
}
`)
	fn := res.Decls[0]
	annos := fn.ChildrenOfKind(parsed.KindAnno)
	if len(annos) != 2 {
		t.Fatalf("got %d function annotations, want 2", len(annos))
	}
	if annos[0].Children[0].Text != "requires" || annos[1].Children[0].Text != "ensures" {
		t.Errorf("annotation kinds: %s %s", annos[0].Children[0].Text, annos[1].Children[0].Text)
	}
	loop := find(fn, parsed.KindForStmt)
	if loop == nil || loop.FirstChildOfKind(parsed.KindAnno) == nil {
		t.Fatalf("loop invariant missing:\n%s", fn)
	}
	body := loop.Children[len(loop.Children)-1]
	if body.Kind != parsed.KindBlock || body.Children[0].Kind != parsed.KindAnno {
		t.Errorf("assert annotation missing from loop body:\n%s", body)
	}
}

func TestRecoveryKeepsRestOfFile(t *testing.T) {
	var b strings.Builder
	b.WriteString("int main() {\n  int z = ;\n")
	for i := 0; i < 9; i++ {
		fmt.Fprintf(&b, "  int a%d = %d;\n", i, i)
	}
	b.WriteString("  return 0;\n}\n")

	res := Parse(b.String())
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(res.Diagnostics), res.Diagnostics)
	}
	if line := res.Diagnostics[0].Span.Start.Line; line != 2 {
		t.Errorf("diagnostic on line %d, want 2", line)
	}
	if len(res.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(res.Decls))
	}
	body := res.Decls[0].FirstChildOfKind(parsed.KindBlock)
	if len(body.Children) != 10 {
		t.Errorf("body has %d statements, want 10:\n%s", len(body.Children), body)
	}
}

func TestRecoveryBetweenDeclarations(t *testing.T) {
	res := Parse("int f() { return 1; }\nint g( ;\nint h() { return 2; }\n")
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(res.Diagnostics), res.Diagnostics)
	}
	var names []string
	for _, d := range res.Decls {
		names = append(names, d.Name())
	}
	if got := strings.Join(names, " "); got != "f h" {
		t.Errorf("committed %q, want %q", got, "f h")
	}
}

func TestDriverDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"extraneous semicolon", "int f();;", "extraneous ';'"},
		{"unterminated typedef", "typedef int foo", "must end with ';'"},
		{"incomplete", "int f() {", "incomplete parse"},
		{"invalid token", "int f() { return $; }", "unrecognized input"},
		{"syntax error", "int f() { return 1 +; }", "syntax error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			for _, d := range res.Diagnostics {
				if strings.Contains(d.Message, tt.want) {
					return
				}
			}
			t.Errorf("no diagnostic containing %q in %v", tt.want, res.Diagnostics)
		})
	}
}

func TestPragmaNames(t *testing.T) {
	names := scanner.NewTypeNames()
	res := mustParse(t, "#use <img>\nimage_t load(string path);\n",
		WithTypeNames(names),
		WithPragmaNames(func(p string) []string {
			if strings.Contains(p, "img") {
				return []string{"image_t"}
			}
			return nil
		}))
	if len(res.Decls) != 2 {
		t.Fatalf("got %d decls, want 2", len(res.Decls))
	}
	ret := res.Decls[1].Children[0]
	if ret.Kind != parsed.KindTypedefType || ret.Text != "image_t" {
		t.Errorf("return type %s %q", ret.Kind, ret.Text)
	}
}

func TestSpansCarryFile(t *testing.T) {
	res := mustParse(t, "int x() { return 1; }", WithFile("a.c0"))
	if res.Decls[0].Span.File != "a.c0" {
		t.Errorf("span file %q", res.Decls[0].Span.File)
	}
	if res.Decls[0].Span.Start.Line != 1 || res.Decls[0].Span.Start.Column != 1 {
		t.Errorf("span starts at %s", res.Decls[0].Span.Start)
	}
}

func TestParseExpression(t *testing.T) {
	e, err := ParseExpression("p->next->value + f(1, 2)[3]")
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != parsed.KindBinary || e.Text != "+" {
		t.Fatalf("got %s", e)
	}
	if e.Children[0].Kind != parsed.KindFieldAccess || e.Children[1].Kind != parsed.KindIndex {
		t.Errorf("operands: %s", e)
	}

	if _, err := ParseExpression("p->"); err == nil {
		t.Error("incomplete expression accepted")
	}
}

func TestSplitSegments(t *testing.T) {
	src := "a; \"x;y\"; ';' /* ; /* ; */ ; */ b //@ c;\nd"
	segs := splitSegments(src)
	var texts []string
	for _, s := range segs {
		texts = append(texts, s.text)
	}
	want := []string{"a", ` "x;y"`, ` ';' /* ; /* ; */ ; */ b //@ c;` + "\nd"}
	if len(texts) != len(want) {
		t.Fatalf("got %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("segment %d: got %q, want %q", i, texts[i], want[i])
		}
	}
	if !segs[0].semi || segs[2].semi || !segs[2].last {
		t.Error("segment flags wrong")
	}
	if segs[1].start.Column != 3 {
		t.Errorf("second segment starts at column %d, want 3", segs[1].start.Column)
	}
}
