package restrict

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/parser"
)

func restrictSource(t *testing.T, src string, l lang.Lang) ([]ast.Decl, []*Error) {
	t.Helper()
	res := parser.Parse(src)
	for _, d := range res.Diagnostics {
		t.Fatalf("unexpected parse diagnostic: %s", d)
	}
	return Program(res.Decls, res.Comments, l)
}

func messages(errs []*Error) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Msg)
	}
	return strings.Join(msgs, "\n")
}

func TestTierMonotonicity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		min  lang.Lang
	}{
		{"function definition", "int f() { return 1 + 2 * 3; }", lang.L1},
		{"hex literal", "int f() { int x = 0xff; x -= 1; return x; }", lang.L1},
		{"bool", "int f() { bool b = true; return 1; }", lang.L2},
		{"while", "int f() { int x = 0; while (x < 10) x += 1; return x; }", lang.L2},
		{"update", "int f() { int x = 0; x++; return x; }", lang.L2},
		{"parameters", "int f(int x) { return x; }", lang.L3},
		{"prototype", "int g();", lang.L3},
		{"typedef", "typedef int number;", lang.L3},
		{"struct", "struct foo { int x; };", lang.L4},
		{"pointer", "int f(int* p) { return *p; }", lang.L4},
		{"string", `int f() { string s = "hi"; return 1; }`, lang.C0},
		{"use", "#use <conio>\n", lang.C0},
		{"contract", "int f(int x)\n//@requires x > 0;\n{ return x; }", lang.C0},
		{"break", "int f() { while (true) { break; } return 0; }", lang.C1},
		{"cast", "void* f(int* p) { return (void*)p; }", lang.C1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := "requires " + tt.min.String() + " or later"
			for _, l := range lang.All() {
				decls, errs := restrictSource(t, tt.src, l)
				if l.AtLeast(tt.min) {
					if len(errs) > 0 {
						t.Errorf("%s: unexpected errors:\n%s", l, messages(errs))
					}
					if len(decls) == 0 {
						t.Errorf("%s: no declarations", l)
					}
					continue
				}
				if !strings.Contains(messages(errs), want) {
					t.Errorf("%s: want an error mentioning %q, got:\n%s", l, want, messages(errs))
				}
			}
		})
	}
}

func TestDecodeDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want int32
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"2147483647", 2147483647, true},
		{"2147483648", -2147483648, true},
		{"2147483649", 0, false},
		{"99999999999", 0, false},
		{"007", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DecodeDecimal(tt.raw)
			if (err == nil) != tt.ok {
				t.Fatalf("DecodeDecimal(%q) error = %v, want ok=%v", tt.raw, err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("DecodeDecimal(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		raw  string
		want int32
		ok   bool
	}{
		{"0x0", 0, true},
		{"0XfF", 255, true},
		{"0x7fffffff", 2147483647, true},
		{"0x80000000", -2147483648, true},
		{"0xffffffff", -1, true},
		{"0x100000000", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DecodeHex(tt.raw)
			if (err == nil) != tt.ok {
				t.Fatalf("DecodeHex(%q) error = %v, want ok=%v", tt.raw, err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("DecodeHex(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMinimumIntegerLiteral(t *testing.T) {
	decls, errs := restrictSource(t, "int f() { return -2147483648; }", lang.L1)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors:\n%s", messages(errs))
	}
	ret := decls[0].(*ast.FunDecl).Body.Stmts[0].(*ast.ReturnStmt)
	neg := ret.Value.(*ast.UnaryExpr)
	if lit := neg.X.(*ast.IntLit); lit.Value != -2147483648 {
		t.Errorf("literal value = %d, want -2147483648", lit.Value)
	}
}

func TestDecodeEscapes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`"plain"`, "plain", true},
		{`"a\tb\n"`, "a\tb\n", true},
		{`"quote \" and \\"`, `quote " and \`, true},
		{`"\0"`, "", false},
		{`"\q"`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DecodeString(tt.raw)
			if (err == nil) != tt.ok {
				t.Fatalf("DecodeString(%s) error = %v, want ok=%v", tt.raw, err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("DecodeString(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}

	chars := []struct {
		raw  string
		want byte
		ok   bool
	}{
		{`'a'`, 'a', true},
		{`'\n'`, '\n', true},
		{`'\0'`, 0, true},
		{`'\''`, '\'', true},
		{`'ab'`, 0, false},
		{`'\x'`, 0, false},
	}
	for _, tt := range chars {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DecodeChar(tt.raw)
			if (err == nil) != tt.ok {
				t.Fatalf("DecodeChar(%s) error = %v, want ok=%v", tt.raw, err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("DecodeChar(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStatementForms(t *testing.T) {
	decls, errs := restrictSource(t, `void f(int x) {
  x = 1;
  x += 2;
  x--;
  assert(x > 0);
  error("boom");
  f(x);
}`, lang.C0)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors:\n%s", messages(errs))
	}
	body := decls[0].(*ast.FunDecl).Body.Stmts
	wantTypes := []ast.Stmt{
		&ast.AssignStmt{}, &ast.AssignStmt{}, &ast.UpdateStmt{},
		&ast.AssertStmt{}, &ast.ErrorStmt{}, &ast.ExprStmt{},
	}
	if len(body) != len(wantTypes) {
		t.Fatalf("got %d statements, want %d", len(body), len(wantTypes))
	}
	for i, s := range body {
		if reflect.TypeOf(s) != reflect.TypeOf(wantTypes[i]) {
			t.Errorf("statement %d is %T, want %T", i, s, wantTypes[i])
		}
	}
}

func TestNestedStatementFormsRejected(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want string
	}{
		{"assignment", "x = (y = 1);", "assignment cannot be used as an expression"},
		{"update", "x = y++;", "increment or decrement cannot be used as an expression"},
		{"assert", "x = assert(y);", "assert cannot be used as an expression"},
		{"error", `f(error("e"));`, "error cannot be used as an expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls, errs := restrictSource(t, "void f(int x, int y) { "+tt.stmt+" }", lang.C0)
			if !strings.Contains(messages(errs), tt.want) {
				t.Errorf("want %q, got:\n%s", tt.want, messages(errs))
			}
			if len(decls) != 0 {
				t.Errorf("declaration with errors was kept")
			}
		})
	}
}

func TestLValues(t *testing.T) {
	tests := []struct {
		stmt string
		ok   bool
	}{
		{"x = 1;", true},
		{"a[0] = 1;", true},
		{"a[0][1] = 1;", true},
		{"p->f = 1;", true},
		{"s.f.g = 1;", true},
		{"*p = 1;", true},
		{"*(int*)q = 1;", true},
		{"(*p)++;", true},
		{"-x = 1;", false},
		{"f() = 1;", false},
		{"(int*)q = NULL;", false},
		{"*(x) = 1;", true},
		{"f()->g = 1;", false},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			_, errs := restrictSource(t, "void f() { "+tt.stmt+" }", lang.C1)
			got := !strings.Contains(messages(errs), "invalid assignment target")
			if got != tt.ok {
				t.Errorf("%s: ok = %v, want %v (errors: %s)", tt.stmt, got, tt.ok, messages(errs))
			}
		})
	}
}

func TestAnnotationPlacement(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "invariant on function",
			src:  "int f(int x)\n//@loop_invariant x > 0;\n{ return x; }",
			want: "@loop_invariant annotation not allowed here",
		},
		{
			name: "requires on loop",
			src:  "void f(int x) {\n  while (x > 0)\n  //@requires x > 0;\n  x--;\n}",
			want: "@requires annotation not allowed here",
		},
		{
			name: "ensures in block",
			src:  "void f(int x) {\n  //@ensures x > 0;\n  x--;\n}",
			want: "@ensures annotation not allowed here",
		},
		{
			name: "legal placements",
			src: "int f(int x)\n//@requires x >= 0;\n//@ensures \\result >= 0;\n{\n" +
				"  while (x > 0)\n  //@loop_invariant x >= 0;\n  {\n    //@assert x > 0;\n    x--;\n  }\n  return x;\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls, errs := restrictSource(t, tt.src, lang.C0)
			if tt.want == "" {
				if len(errs) > 0 {
					t.Fatalf("unexpected errors:\n%s", messages(errs))
				}
				fn := decls[0].(*ast.FunDecl)
				if len(fn.Requires) != 1 || len(fn.Ensures) != 1 {
					t.Errorf("got %d requires and %d ensures", len(fn.Requires), len(fn.Ensures))
				}
				loop := fn.Body.Stmts[0].(*ast.WhileStmt)
				if len(loop.Invariants) != 1 {
					t.Errorf("got %d loop invariants, want 1", len(loop.Invariants))
				}
				if _, ok := loop.Body.(*ast.BlockStmt).Stmts[0].(*ast.AnnoStmt); !ok {
					t.Errorf("assert annotation is not an AnnoStmt")
				}
				return
			}
			if !strings.Contains(messages(errs), tt.want) {
				t.Errorf("want %q, got:\n%s", tt.want, messages(errs))
			}
		})
	}
}

func TestLocalChecks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"declaration as loop step", "void f() { for (int i = 0; i < 3; int j = 1) {} }", "declaration not allowed as the step of a for loop"},
		{"multiplication statement", "void f(int a, int b) { a * b; }", "statement 'a * b' has no effect"},
		{"address of expression", "void f(int[] a) { g(&a[0]); }", "invalid operand of &"},
		{"bad escape", `void f() { string s = "\q"; }`, "invalid escape sequence"},
		{"leading zero", "int f() { return 010; }", "leading zeros"},
		{"unknown pragma", "#define X 1\n", "unknown pragma #define X 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := restrictSource(t, tt.src, lang.C1)
			if !strings.Contains(messages(errs), tt.want) {
				t.Errorf("want %q, got:\n%s", tt.want, messages(errs))
			}
		})
	}
}

func TestMultipleErrorsPerFile(t *testing.T) {
	decls, errs := restrictSource(t, "struct s { int x; };\nint f() { return 1; }\nbool g() { return true; }\n", lang.L1)
	if len(errs) < 2 {
		t.Fatalf("got %d errors, want at least 2:\n%s", len(errs), messages(errs))
	}
	if len(decls) != 1 || ast.DeclName(decls[0]) != "f" {
		t.Errorf("kept declarations: %v", decls)
	}
}

func TestPragmas(t *testing.T) {
	decls, errs := restrictSource(t, "#use <conio>\n#use \"lib/util.c0\"\nint main() { return 0; }\n", lang.C0)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors:\n%s", messages(errs))
	}
	if lib, ok := decls[0].(*ast.UseLib); !ok || lib.Name != "conio" {
		t.Errorf("first declaration = %#v", decls[0])
	}
	if file, ok := decls[1].(*ast.UseFile); !ok || file.Path != "lib/util.c0" {
		t.Errorf("second declaration = %#v", decls[1])
	}
}

func TestDocComments(t *testing.T) {
	src := `// Adds one.
// Really.
int f(int x) { return x + 1; }

/* Block
 * doc */
int g();
// detached

int h();
int i(); // trailing
int j();
`
	decls, errs := restrictSource(t, src, lang.C0)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors:\n%s", messages(errs))
	}
	want := map[string]string{
		"f": "Adds one.\nReally.",
		"g": "Block\ndoc",
		"h": "",
		"i": "",
		"j": "",
	}
	for _, d := range decls {
		if got := ast.DocOf(d); got != want[ast.DeclName(d)] {
			t.Errorf("doc of %s = %q, want %q", ast.DeclName(d), got, want[ast.DeclName(d)])
		}
	}
}

func TestRestrictIsDeterministic(t *testing.T) {
	res := parser.Parse(`struct p { int x; };
int f(struct p* q, int[] a)
//@requires \length(a) > 0;
{
  int s = 0;
  for (int i = 0; i < \length(a); i++) s += a[i];
  return s + q->x;
}
`)
	first, errs1 := Program(res.Decls, res.Comments, lang.C0)
	second, errs2 := Program(res.Decls, res.Comments, lang.C0)
	if len(errs1) > 0 || len(errs2) > 0 {
		t.Fatalf("unexpected errors:\n%s\n%s", messages(errs1), messages(errs2))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("restricting twice gave different trees")
	}
}
