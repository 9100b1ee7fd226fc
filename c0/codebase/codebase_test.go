package codebase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/dhamidi/c0ls/c0/navigate"
	"github.com/dhamidi/c0ls/c0/source"
)

// setup writes files into a fresh directory and returns a codebase rooted
// there.
func setup(t *testing.T, files map[string]string, opts ...Option) (*Codebase, string) {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return New(dir, opts...), dir
}

func messages(diags []source.Diagnostic) string {
	var out []string
	for _, d := range diags {
		out = append(out, d.String())
	}
	return strings.Join(out, "\n")
}

func analyze(t *testing.T, c *Codebase, path string) *Analysis {
	t.Helper()
	a, err := c.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze(%s): %v", path, err)
	}
	return a
}

func expectClean(t *testing.T, a *Analysis) {
	t.Helper()
	if len(a.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics:\n%s", messages(a.Diagnostics))
	}
}

func TestLibraries(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"main.c0": "#use <conio>\n#use <string>\nint main() {\n  println(string_fromint(42));\n  return 0;\n}\n",
	})
	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	expectClean(t, a)
	if !a.Env.IsLibraryFunction("println") {
		t.Errorf("println is not registered as a library function")
	}
	if got := strings.Join(a.Env.Libraries(), " "); got != "conio string" {
		t.Errorf("libraries = %q", got)
	}
}

func TestLibraryTypeNamesReachScanner(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"main.c0": "#use <file>\nint lines(string path) {\n  file_t f = file_read(path);\n  int n = 0;\n  while (!file_eof(f)) { file_readline(f); n++; }\n  file_close(f);\n  return n;\n}\n",
	})
	expectClean(t, analyze(t, c, filepath.Join(dir, "main.c0")))
}

func TestMissingLibraryAbortsOnlyThatLine(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"main.c0": "#use <nope>\nint main() { return true; }\n",
	})
	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	got := messages(a.Diagnostics)
	if !strings.Contains(got, "library nope not found") {
		t.Errorf("missing library not reported:\n%s", got)
	}
	if !strings.Contains(got, "return value has type bool, expected int") {
		t.Errorf("rest of the file was not checked:\n%s", got)
	}
}

func TestLibraryDir(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"libs/mine.h0": "int answer();\n",
		"main.c0":      "#use <mine>\nint main() { return answer(); }\n",
	})
	c = New(dir, WithLibraryDir(filepath.Join(dir, "libs")))
	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	expectClean(t, a)

	span, ok := c.Definition(filepath.Join(dir, "main.c0"), source.Position{Line: 1, Column: 7})
	if !ok || span.File != filepath.Join(dir, "libs", "mine.h0") {
		t.Errorf("definition of #use <mine> = %v, %v", span, ok)
	}
}

func TestLocalFiles(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"lib/num.c0": "typedef int num;\nnum twice(num x) { return 2 * x; }\n",
		"main.c0":    "#use \"lib/num.c0\"\nint main() {\n  num y = twice(2);\n  return y;\n}\n",
	})
	main := filepath.Join(dir, "main.c0")
	a := analyze(t, c, main)
	expectClean(t, a)
	lib := filepath.Join(dir, "lib", "num.c0")
	if len(a.Deps) != 1 || a.Deps[0] != lib {
		t.Errorf("deps = %v", a.Deps)
	}
	if got := c.Dependants(lib); len(got) != 1 || got[0] != main {
		t.Errorf("dependants of lib = %v", got)
	}
}

func TestDependencyErrorsAbortDependant(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"bad.c0":  "int f() { return true; }\n",
		"main.c0": "#use \"bad.c0\"\nint main() { return false; }\n",
	})
	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	if len(a.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1:\n%s", len(a.Diagnostics), messages(a.Diagnostics))
	}
	d := a.Diagnostics[0]
	if !strings.Contains(d.Message, "bad.c0 has errors") || d.Span.Start.Line != 1 {
		t.Errorf("diagnostic = %s", d)
	}
	if len(d.Hints) == 0 || !strings.Contains(d.Hints[0], "return value has type bool") {
		t.Errorf("hints = %v", d.Hints)
	}
}

func TestDiamondIncludesLoadOnce(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"common.c0": "struct pair { int a; int b; };\nint sum(struct pair* p) { return p->a + p->b; }\n",
		"left.c0":   "#use \"common.c0\"\nint left(struct pair* p) { return p->a; }\n",
		"right.c0":  "#use \"common.c0\"\nint right(struct pair* p) { return p->b; }\n",
		"main.c0":   "#use \"left.c0\"\n#use \"right.c0\"\nint main() {\n  struct pair* p = alloc(struct pair);\n  return left(p) + right(p) + sum(p);\n}\n",
	})
	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	expectClean(t, a)
	if got := len(a.Env.FunctionDecls("sum")); got != 1 {
		t.Errorf("sum declared %d times", got)
	}
}

func TestIncludeCycleTerminates(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"a.c0": "#use \"b.c0\"\nint a() { return 1; }\n",
		"b.c0": "#use \"a.c0\"\nint b() { return 2; }\n",
	})
	a := analyze(t, c, filepath.Join(dir, "a.c0"))
	expectClean(t, a)
	if a.Env.Function("b") == nil {
		t.Errorf("b.c0 was not loaded")
	}
}

func TestLocalFilesNeedABaseDirectory(t *testing.T) {
	c := New("")
	c.UpdateFile("untitled.c0", []byte("#use \"x.c0\"\nint main() { return 0; }\n"))
	a := analyze(t, c, "untitled.c0")
	if !strings.Contains(messages(a.Diagnostics), "not supported") {
		t.Errorf("diagnostics:\n%s", messages(a.Diagnostics))
	}
}

func TestProjectDependencies(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"project.txt": "lib.c0\nmain.c0\n",
		"lib.c0":      "int sq(int x) { return x * x; }\n",
		"main.c0":     "int main() { return sq(3); }\n",
	})
	expectClean(t, analyze(t, c, filepath.Join(dir, "main.c0")))
}

func TestInvalidation(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"lib.c0":  "int one() { return 1; }\n",
		"main.c0": "#use \"lib.c0\"\nint main() { return one(); }\n",
	})
	lib := filepath.Join(dir, "lib.c0")
	main := filepath.Join(dir, "main.c0")
	first := analyze(t, c, main)
	expectClean(t, first)
	if again := analyze(t, c, main); again != first {
		t.Errorf("analysis was not cached")
	}

	c.UpdateFile(lib, []byte("bool one() { return true; }\n"))
	if c.GetFile(main).Analysis != nil {
		t.Fatalf("dependant kept its analysis")
	}
	a := analyze(t, c, main)
	if !a.HasErrors() {
		t.Errorf("changed dependency was not seen")
	}

	got := c.Invalidate(lib)
	sort.Strings(got)
	if len(got) != 2 || got[0] != lib || got[1] != main {
		t.Errorf("Invalidate = %v", got)
	}
}

func TestRecoveryScenario(t *testing.T) {
	var b strings.Builder
	b.WriteString("int main() {\n  int z = ;\n")
	for i := 0; i < 9; i++ {
		fmt.Fprintf(&b, "  int a%d = %d;\n", i, i)
	}
	b.WriteString("  return a8;\n}\n")
	c, dir := setup(t, map[string]string{"main.c0": b.String()})

	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	if len(a.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1:\n%s", len(a.Diagnostics), messages(a.Diagnostics))
	}
	if d := a.Diagnostics[0]; d.Stage != source.StageParse || d.Span.Start.Line != 2 {
		t.Errorf("diagnostic = %s", d)
	}
	if a.Env.Function("main") == nil {
		t.Errorf("main was lost")
	}
}

func TestSyntaxErrorInReturningFunction(t *testing.T) {
	c, dir := setup(t, map[string]string{"main.c0": "int f() {\n  return 1 + ;\n}\n"})

	a := analyze(t, c, filepath.Join(dir, "main.c0"))
	if len(a.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1:\n%s", len(a.Diagnostics), messages(a.Diagnostics))
	}
	if d := a.Diagnostics[0]; d.Stage != source.StageParse {
		t.Errorf("diagnostic = %s", d)
	}
}

const pointProgram = "struct point { int x; int y; };\nint dist(struct point* p) { return p->x + p->y; }\n"

func TestHoverOnField(t *testing.T) {
	c, dir := setup(t, map[string]string{"point.l4": pointProgram})
	path := filepath.Join(dir, "point.l4")
	expectClean(t, analyze(t, c, path))

	col := strings.Index("int dist(struct point* p) { return p->x", "p->x") + 4
	r, err := c.At(path, source.Position{Line: 2, Column: col})
	if err != nil {
		t.Fatal(err)
	}
	f, ok := r.(*navigate.FoundField)
	if !ok {
		t.Fatalf("found %#v, want a field", r)
	}
	if f.Type.String() != "int" || f.Field.Name.Value != "x" {
		t.Errorf("field %s has type %s", f.Field.Name.Value, f.Type)
	}
}

func TestDefinition(t *testing.T) {
	c, dir := setup(t, map[string]string{
		"main.c0": "int sq(int x) { return x * x; }\nint main() {\n  int n = 3;\n  return sq(n);\n}\n",
	})
	path := filepath.Join(dir, "main.c0")

	tests := []struct {
		name string
		pos  source.Position
		want source.Position
	}{
		{"function", source.Position{Line: 4, Column: 10}, source.Position{Line: 1, Column: 5}},
		{"local", source.Position{Line: 4, Column: 13}, source.Position{Line: 3, Column: 7}},
		{"parameter", source.Position{Line: 1, Column: 24}, source.Position{Line: 1, Column: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, ok := c.Definition(path, tt.pos)
			if !ok {
				t.Fatalf("no definition")
			}
			if span.Start.Line != tt.want.Line || span.Start.Column != tt.want.Column {
				t.Errorf("definition at %s, want %s", span.Start, tt.want)
			}
		})
	}
}

func TestCompletion(t *testing.T) {
	c, dir := setup(t, map[string]string{"main.c0": pointProgram})
	path := filepath.Join(dir, "main.c0")
	expectClean(t, analyze(t, c, path))

	labels := func(items []CompletionItem) string {
		var out []string
		for _, it := range items {
			out = append(out, it.Label)
		}
		sort.Strings(out)
		return strings.Join(out, " ")
	}

	editing := "struct point { int x; int y; };\nint dist(struct point* p) {\n  int d = p->\n  return d;\n}\n"
	c.UpdateFile(path, []byte(editing))
	if got := labels(c.CompletionsAtPoint(path, source.Position{Line: 3, Column: 14})); got != "x y" {
		t.Errorf("fields after p-> = %q", got)
	}

	c.UpdateFile(path, []byte(pointProgram))
	items := c.CompletionsAtPoint(path, source.Position{Line: 2, Column: 36})
	if got := labels(items); !strings.Contains(got, "dist") || !strings.Contains(got, "p") {
		t.Errorf("names in scope = %q", got)
	}
	for _, it := range items {
		if it.Label == "dist" && it.InsertText != "dist(${1:p})" {
			t.Errorf("insert text for dist = %q", it.InsertText)
		}
	}
}

func TestExprStart(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"  int d = p", "p"},
		{"x = a->b.c", "a->b.c"},
		{"f(g(1), A[i + 1]", "A[i + 1]"},
		{"return (*q)", "(*q)"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := tt.text[exprStart(tt.text):]; got != tt.want {
				t.Errorf("exprStart(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
