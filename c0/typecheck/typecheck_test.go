package typecheck

import (
	"strings"
	"testing"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/source"
)

func check(t *testing.T, src string, l lang.Lang) (*env.Env, *Info, []*Error) {
	t.Helper()
	res := parser.Parse(src, parser.WithFile("test.c0"))
	for _, d := range res.Diagnostics {
		t.Fatalf("unexpected parse diagnostic: %s", d)
	}
	decls, rerrs := restrict.Program(res.Decls, res.Comments, l)
	for _, e := range rerrs {
		t.Fatalf("unexpected restriction error: %s", e)
	}
	e := env.New()
	info := NewInfo()
	return e, info, Check(e, decls, info)
}

func messages(errs []*Error) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Msg)
	}
	return strings.Join(msgs, "\n")
}

func expectClean(t *testing.T, errs []*Error) {
	t.Helper()
	if len(errs) > 0 {
		t.Fatalf("unexpected errors:\n%s", messages(errs))
	}
}

func TestDefiniteAssignment(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"one branch", "int x; if (c) { x = 1; } return x;", "x is used without being defined"},
		{"both branches", "int x; if (c) { x = 1; } else { x = 2; } return x;", ""},
		{"loop body", "int x; while (c) { x = 1; } return x;", "x is used without being defined"},
		{"error branch", `int x; if (c) { x = 1; } else { error("no"); } return x;`, ""},
		{"compound assignment", "int x; x += 1; return x;", "x is used without being defined"},
		{"for init", "int x; for (x = 0; x < 3; x++) {} return x;", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := check(t, "int f(bool c) { "+tt.body+" }", lang.C0)
			got := messages(errs)
			if tt.want == "" {
				expectClean(t, errs)
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("want %q, got:\n%s", tt.want, got)
			}
		})
	}
}

func TestLUB(t *testing.T) {
	intPtr := &Pointer{Elem: Int}
	sig := &Signature{Ret: Int, Params: []Type{Int}}
	named := &Pointer{Elem: &Func{Name: "fn", Sig: sig}}
	anon := &Pointer{Elem: &Func{Sig: sig}}
	other := &Pointer{Elem: &Func{Sig: &Signature{Ret: Bool}}}

	tests := []struct {
		name string
		a, b Type
		want Type
	}{
		{"null and pointer", Nil, intPtr, intPtr},
		{"pointer and null", intPtr, Nil, intPtr},
		{"null and null", Nil, Nil, Nil},
		{"null and int", Nil, Int, nil},
		{"address and function pointer", anon, named, named},
		{"function pointer and address", named, anon, named},
		{"mismatched signatures", anon, other, nil},
		{"equal arrays", &Array{Elem: Int}, &Array{Elem: Int}, &Array{Elem: Int}},
		{"no covariance", &Pointer{Elem: Int}, &Pointer{Elem: Bool}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LUB(tt.a, tt.b)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("LUB(%s, %s) = %s, want none", tt.a, tt.b, got)
			case tt.want != nil && (got == nil || !Equal(got, tt.want)):
				t.Errorf("LUB(%s, %s) = %v, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNullComparisons(t *testing.T) {
	_, info, errs := check(t, `bool f(int* p) { return NULL == p; }
bool g(int* p) { return p == NULL; }
`, lang.L4)
	expectClean(t, errs)
	for x, ty := range info.Types {
		if b, ok := x.(*ast.BinaryExpr); ok && !Equal(ty, Bool) {
			t.Errorf("%s has type %s, want bool", ast.ExprString(b), ty)
		}
	}

	_, _, errs = check(t, "bool f() { return NULL == 5; }", lang.L4)
	if !strings.Contains(messages(errs), "cannot compare NULL and int") {
		t.Errorf("want a mismatch error, got:\n%s", messages(errs))
	}
}

func TestFunctionConsistency(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"signature mismatch", "int f(int x);\nbool f(int x) { return true; }", "conflicting types for f"},
		{"duplicate definition", "int f() { return 1; }\nint f() { return 2; }", "function f is already defined"},
		{"never defined", "int g(int x);\nint f() { return g(1); }", "function g is used but never defined"},
		{"missing return", "int f(int x) { if (x > 0) return 1; }", "f may reach its end without returning a value"},
		{"typedef clash", "typedef int num;\ntypedef bool num;", "type name num is already defined"},
		{"function then typedef", "int f();\ntypedef int f;", "f is already declared as a function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := check(t, tt.src, lang.C0)
			if !strings.Contains(messages(errs), tt.want) {
				t.Errorf("want %q, got:\n%s", tt.want, messages(errs))
			}
		})
	}
}

func TestRecursionAndLaterDefinition(t *testing.T) {
	_, _, errs := check(t, `int even(int n);
int odd(int n) { if (n == 0) return 0; return even(n - 1); }
int even(int n) { if (n == 0) return 1; return odd(n - 1); }
int fact(int n) { if (n <= 1) return 1; return n * fact(n - 1); }
`, lang.L3)
	expectClean(t, errs)
}

func TestLibraryFunctionsNeedNoDefinition(t *testing.T) {
	e := env.New()
	lib := &ast.FunDecl{Ret: &ast.BasicType{Kind: ast.Void}, Name: &ast.Name{Value: "println"},
		Params: []*ast.Param{{Type: &ast.BasicType{Kind: ast.String}, Name: &ast.Name{Value: "s"}}}}
	c := NewChecker(e, nil)
	expectClean(t, c.Decl(lib, true))

	res := parser.Parse(`int main() { println("hi"); return 0; }`)
	decls, _ := restrict.Program(res.Decls, res.Comments, lang.C0)
	for _, d := range decls {
		expectClean(t, c.Decl(d, false))
	}
	expectClean(t, c.Finish())

	res = parser.Parse(`void println(string s) { }`)
	decls, _ = restrict.Program(res.Decls, res.Comments, lang.C0)
	if errs := c.Decl(decls[0], false); !strings.Contains(messages(errs), "cannot define library function println") {
		t.Errorf("library function redefinition accepted: %s", messages(errs))
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"return type", "int f() { return true; }", "return value has type bool, expected int"},
		{"string ordering", "bool f(string a, string b) { return a < b; }", "cannot compare strings with <"},
		{"string equality", "bool f(string a, string b) { return a == b; }", "cannot compare strings with =="},
		{"undefined struct", "struct s;\nint f(struct s* p) { return p->x; }", "struct s is not defined"},
		{"missing field", "struct s { int x; };\nint f(struct s* p) { return p->y; }", "struct s has no field y"},
		{"arrow on value", "struct s { int x; };\nint f(struct s[] a) { return a[0]->x; }", "-> requires a pointer to a struct"},
		{"struct parameter", "struct s { int x; };\nint f(struct s x) { return 0; }", "parameter x cannot have type struct s"},
		{"redeclared local", "void f() { int x = 1; int x = 2; }", "variable x is already declared"},
		{"break outside loop", "void f() { break; }", "break outside of a loop"},
		{"result outside ensures", `int f() { return \result; }`, `\result is only allowed in @ensures`},
		{"length outside annotation", `int f(int[] a) { return \length(a); }`, `\length is only allowed in annotations`},
		{"illegal cast", "int* f(bool* p) { return (int*)p; }", "cannot cast bool* to int*"},
		{"duplicate parameter", "int f(int x, int x) { return x; }", "duplicate parameter x"},
		{"function as value", "void f() { int x = f; }", "function f cannot be used as a value"},
		{"nested struct by value", "struct a { struct b x; };", "struct b is not defined"},
		{"duplicate field", "struct a { int x; bool x; };", "duplicate field x in struct a"},
		{"void variable", "void f() { void x; }", "variable x cannot have type void"},
		{"wrong argument", "int g(int x) { return x; }\nint f() { return g(true); }", "argument 1 of g has type bool, expected int"},
		{"argument count", "int g(int x) { return x; }\nint f() { return g(); }", "g expects 1 arguments, found 0"},
		{"undeclared", "int f() { return y; }", "undeclared variable y"},
		{"deref void", "int f(void* p) { return *p; }", "cannot dereference void*"},
		{"void return value", "void f() { return 1; }", "returns void and cannot return a value"},
		{"void used", "void g() {}\nint f() { return g() + 1; }", "void value used where a value is needed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := check(t, tt.src, lang.C1)
			if !strings.Contains(messages(errs), tt.want) {
				t.Errorf("want %q, got:\n%s", tt.want, messages(errs))
			}
		})
	}
}

func TestContracts(t *testing.T) {
	_, _, errs := check(t, `int sum(int[] a, int n)
//@requires n == \length(a);
//@ensures \result >= 0 || \result < 0;
{
  int s = 0;
  for (int i = 0; i < n; i++)
  //@loop_invariant 0 <= i && i <= n;
  {
    //@assert i < \length(a);
    s += a[i];
  }
  return s;
}
`, lang.C0)
	expectClean(t, errs)

	_, _, errs = check(t, "void f(int x)\n//@ensures \\result > 0;\n{ }", lang.C0)
	if !strings.Contains(messages(errs), `\result cannot be used in a function returning void`) {
		t.Errorf("got:\n%s", messages(errs))
	}
}

func TestFunctionPointers(t *testing.T) {
	_, _, errs := check(t, `typedef int binop_fn(int x, int y);
int add(int x, int y) { return x + y; }
int apply(binop_fn* f, int a, int b) { return (*f)(a, b); }
int main() {
  binop_fn* g = &add;
  return apply(g, 1, 2) + apply(&add, 3, 4);
}
`, lang.C1)
	expectClean(t, errs)

	_, _, errs = check(t, `typedef int binop_fn(int x, int y);
int neg(int x) { return -x; }
int main() { binop_fn* g = &neg; return 0; }
`, lang.C1)
	if !strings.Contains(messages(errs), "initializer of g has type int(int)*, expected binop_fn*") {
		t.Errorf("got:\n%s", messages(errs))
	}
}

func TestPointAndDistance(t *testing.T) {
	e, info, errs := check(t, "struct point { int x; int y; };\nint dist(struct point* p) { return p->x + p->y; }\n", lang.L4)
	expectClean(t, errs)

	s := e.Struct("point")
	if s == nil || !s.Defined || len(s.Fields) != 2 {
		t.Fatalf("struct point = %#v", s)
	}
	for _, f := range s.Fields {
		if ast.TypeString(f.Type) != "int" {
			t.Errorf("field %s has type %s", f.Name.Value, ast.TypeString(f.Type))
		}
	}
	f := e.Function("dist")
	if f == nil || len(f.Params) != 1 || ast.TypeString(f.Params[0].Type) != "struct point*" || ast.TypeString(f.Ret) != "int" {
		t.Fatalf("function dist = %#v", f)
	}

	var fields int
	for fe, name := range info.StructNames {
		fields++
		if name != "point" {
			t.Errorf("%s resolved to struct %s", ast.ExprString(fe), name)
		}
		if ty := info.TypeOf(fe); !Equal(ty, Int) {
			t.Errorf("%s has type %v", ast.ExprString(fe), ty)
		}
	}
	if fields != 2 {
		t.Errorf("recorded %d field accesses, want 2", fields)
	}
}

func TestLocalsAt(t *testing.T) {
	_, info, errs := check(t, "int f(int a) {\n  int b = a;\n  {\n    int c = b;\n  }\n  return b;\n}\n", lang.L3)
	expectClean(t, errs)

	names := func(line, col int) string {
		var out []string
		for _, l := range info.LocalsAt("test.c0", source.Position{Line: line, Column: col}) {
			out = append(out, l.Name.Value)
		}
		return strings.Join(out, " ")
	}
	if got := names(4, 12); got != "a b c" {
		t.Errorf("locals in inner block = %q", got)
	}
	if got := names(6, 3); got != "a b" {
		t.Errorf("locals after inner block = %q", got)
	}
}

func TestImpossiblePanics(t *testing.T) {
	span := source.Span{Start: source.Position{Line: 3, Column: 1}, End: source.Position{Line: 3, Column: 4}}
	defer func() {
		r := recover()
		err, ok := r.(*ImpossibleError)
		if !ok {
			t.Fatalf("recovered %v, want *ImpossibleError", r)
		}
		if err.Span != span || !strings.Contains(err.Error(), "no field y") {
			t.Errorf("error = %v", err)
		}
	}()
	Impossible(span, "no field %s", "y")
	t.Fatal("Impossible returned")
}

func TestSyntaxErrorSuppressesMissingReturn(t *testing.T) {
	const src = "int f() {\n  return 1 + ;\n}\n"
	tests := []struct {
		name    string
		damaged bool
		want    string
	}{
		{"with syntax errors recorded", true, ""},
		{"without syntax errors recorded", false, "function f may reach its end without returning a value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parser.Parse(src, parser.WithFile("test.c0"))
			if len(res.Diagnostics) == 0 {
				t.Fatal("expected a parse diagnostic")
			}
			decls, _ := restrict.Program(res.Decls, res.Comments, lang.C0)
			c := NewChecker(env.New(), nil)
			if tt.damaged {
				c.Damaged(res.Diagnostics)
			}
			var errs []*Error
			for _, d := range decls {
				errs = append(errs, c.Decl(d, false)...)
			}
			if got := messages(errs); got != tt.want {
				t.Errorf("errors = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTryResolveKeepsNoErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  ast.Type
		want string
		errs int
	}{
		{"basic pointer", &ast.PointerType{Elem: &ast.BasicType{Kind: ast.Int}}, "int*", 0},
		{"unknown name", &ast.NamedType{Name: "ghost"}, Invalid.String(), 1},
		{"array of unknown name", &ast.ArrayType{Elem: &ast.NamedType{Name: "ghost"}}, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(env.New(), nil)
			got, errs := c.TryResolve(tt.typ)
			if len(errs) != tt.errs {
				t.Errorf("got %d errors, want %d: %s", len(errs), tt.errs, messages(errs))
			}
			if tt.want != "" && got.String() != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
			if len(c.errs) != 0 {
				t.Errorf("checker kept %d errors", len(c.errs))
			}
			if errs := c.Finish(); len(errs) != 0 {
				t.Errorf("Finish reported %s", messages(errs))
			}
		})
	}
}
