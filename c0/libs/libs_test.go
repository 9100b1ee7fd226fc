package libs_test

import (
	"testing"

	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/libs"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/typecheck"
)

func TestNames(t *testing.T) {
	want := []string{"args", "conio", "file", "img", "parse", "rand", "string", "util"}
	got := libs.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHeaderLookup(t *testing.T) {
	if _, ok := libs.Header("conio"); !ok {
		t.Errorf("conio not found")
	}
	for _, name := range []string{"", "nope", "../conio", "conio.h0"} {
		if _, ok := libs.Header(name); ok {
			t.Errorf("Header(%q) found a library", name)
		}
	}
}

func TestHeadersCheck(t *testing.T) {
	for _, name := range libs.Names() {
		t.Run(name, func(t *testing.T) {
			text, _ := libs.Header(name)
			res := parser.Parse(text, parser.WithFile("<"+name+">"))
			for _, d := range res.Diagnostics {
				t.Fatalf("parse: %s", d)
			}
			decls, rerrs := restrict.Program(res.Decls, res.Comments, lang.C1)
			for _, e := range rerrs {
				t.Fatalf("restrict: %s", e)
			}
			e := env.New()
			c := typecheck.NewChecker(e, nil)
			for _, d := range decls {
				for _, err := range c.Decl(d, true) {
					t.Errorf("typecheck: %s", err)
				}
			}
			for _, err := range c.Finish() {
				t.Errorf("typecheck: %s", err)
			}
			if len(e.FunctionNames()) == 0 {
				t.Errorf("no functions declared")
			}
		})
	}
}
