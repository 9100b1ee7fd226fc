package navigate

import (
	"strings"
	"testing"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/c0/typecheck"
)

const program = `#use <conio>
struct point { int x; int y; };
typedef struct point* point_t;

// Manhattan distance.
int dist(point_t p) {
  int d = p->x + p->y;
  return d;
}
`

func checked(t *testing.T, src string) *typecheck.Checker {
	t.Helper()
	res := parser.Parse(src, parser.WithFile("test.c0"))
	for _, d := range res.Diagnostics {
		t.Fatalf("unexpected parse diagnostic: %s", d)
	}
	decls, rerrs := restrict.Program(res.Decls, res.Comments, lang.C0)
	for _, e := range rerrs {
		t.Fatalf("unexpected restriction error: %s", e)
	}
	c := typecheck.NewChecker(env.New(), nil)
	for _, d := range decls {
		for _, e := range c.Decl(d, false) {
			t.Fatalf("unexpected type error: %s", e)
		}
	}
	return c
}

// at returns the position of the nth occurrence of needle in src, plus
// delta columns.
func at(src, needle string, nth, delta int) source.Position {
	off := -1
	for i := 0; i <= nth; i++ {
		next := strings.Index(src[off+1:], needle)
		if next < 0 {
			panic("needle not found: " + needle)
		}
		off += next + 1
	}
	off += delta
	line := 1 + strings.Count(src[:off], "\n")
	col := off - strings.LastIndex(src[:off], "\n")
	return source.Position{Offset: off, Line: line, Column: col}
}

func TestFind(t *testing.T) {
	c := checked(t, program)

	tests := []struct {
		name  string
		pos   source.Position
		kind  string
		hover string
	}{
		{"field access", at(program, "p->x", 0, 3), "field", "int x (field of struct point)"},
		{"field declaration", at(program, "int y", 0, 4), "field", "int y (field of struct point)"},
		{"object of access", at(program, "p->y", 0, 0), "identifier", "struct point* p"},
		{"parameter", at(program, "point_t p", 0, 8), "identifier", "struct point* p"},
		{"local in return", at(program, "return d", 0, 7), "identifier", "int d"},
		{"local declaration", at(program, "int d =", 0, 4), "identifier", "int d"},
		{"function name", at(program, "int dist", 0, 5), "identifier", "int dist(struct point* p)\n\nManhattan distance."},
		{"typedef use", at(program, "point_t p", 0, 2), "type", "typedef struct point* point_t"},
		{"struct name", at(program, "point {", 0, 1), "type", "struct point { int x; int y; }"},
		{"struct in typedef", at(program, "struct point*", 0, 8), "type", "struct point { int x; int y; }"},
		{"library pragma", at(program, "conio", 0, 1), "link", "#use <conio>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Find(c, "test.c0", tt.pos)
			var kind string
			switch r.(type) {
			case *FoundIdentifier:
				kind = "identifier"
			case *FoundType:
				kind = "type"
			case *FoundField:
				kind = "field"
			case *FoundLink:
				kind = "link"
			case nil:
				t.Fatalf("nothing found at %s", tt.pos)
			}
			if kind != tt.kind {
				t.Errorf("found %s %#v, want %s", kind, r, tt.kind)
			}
			if got := r.Hover(); got != tt.hover {
				t.Errorf("hover = %q, want %q", got, tt.hover)
			}
		})
	}
}

func TestFindFieldType(t *testing.T) {
	c := checked(t, program)
	r, ok := Find(c, "test.c0", at(program, "p->x", 0, 3)).(*FoundField)
	if !ok {
		t.Fatalf("expected a field")
	}
	if !typecheck.Equal(r.Type, typecheck.Int) {
		t.Errorf("field type = %s, want int", r.Type)
	}
	if r.Access == nil || ast.ExprString(r.Access.X) != "p" {
		t.Errorf("access = %#v", r.Access)
	}
	if r.Struct.Name.Value != "point" {
		t.Errorf("struct = %s", r.Struct.Name.Value)
	}
}

func TestFindOutsideDeclarations(t *testing.T) {
	c := checked(t, program)
	if r := Find(c, "test.c0", at(program, "\n\n//", 0, 1)); r != nil {
		t.Errorf("found %#v between declarations", r)
	}
	if r := Find(c, "other.c0", at(program, "int dist", 0, 5)); r != nil {
		t.Errorf("found %#v in another file", r)
	}
}

func TestFindSynthesizesUncheckedFields(t *testing.T) {
	src := "struct s { int v; };\nint f(struct s* a) { int r = a->v; return 1 + true; }\n"
	res := parser.Parse(src, parser.WithFile("test.c0"))
	decls, _ := restrict.Program(res.Decls, res.Comments, lang.C0)
	c := typecheck.NewChecker(env.New(), nil)
	for _, d := range decls {
		c.Decl(d, false)
	}
	r, ok := Find(c, "test.c0", at(src, "a->v", 0, 3)).(*FoundField)
	if !ok {
		t.Fatalf("expected a field")
	}
	if !typecheck.Equal(r.Type, typecheck.Int) {
		t.Errorf("field type = %s", r.Type)
	}
}
