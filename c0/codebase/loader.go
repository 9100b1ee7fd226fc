package codebase

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/c0/typecheck"
)

// loader brings the targets of #use lines into an analysis. It runs while
// the including file is being parsed, so that type names from a
// dependency are known to the scanner by the time the next line is read.
type loader struct {
	c *Codebase
	a *Analysis
	// dir is the directory relative file names are resolved against, or ""
	// when the including document is not backed by a file.
	dir string

	libErrs  map[string]error
	fileErrs map[string]error
	// depDiags holds the diagnostics of dependencies that have errors,
	// keyed by the name written in the #use line.
	depDiags map[string][]source.Diagnostic
	depOrder []string
}

func newLoader(c *Codebase, a *Analysis, from string) *loader {
	ld := &loader{
		c:        c,
		a:        a,
		libErrs:  make(map[string]error),
		fileErrs: make(map[string]error),
		depDiags: make(map[string][]source.Diagnostic),
	}
	if filepath.IsAbs(from) {
		ld.dir = filepath.Dir(from)
	}
	return ld
}

// pragma is the scanner callback for pragma lines. It returns every type
// name the environment knows after loading the target.
func (ld *loader) pragma(text string) []string {
	target, library, ok := restrict.UsePragma(text)
	if !ok || !ld.a.Lang.AtLeast(lang.C0) {
		return nil
	}
	if library {
		ld.library(target)
	} else {
		ld.file(target)
	}
	return ld.a.Env.TypeNames()
}

func (ld *loader) library(name string) {
	if !ld.a.Env.MarkLibrary(name) {
		return
	}
	lib, err := ld.c.library(name)
	if err != nil {
		ld.libErrs[name] = err
		return
	}
	for _, d := range lib.decls {
		if errs := ld.a.Checker.Decl(d, true); len(errs) > 0 && ld.libErrs[name] == nil {
			ld.libErrs[name] = fmt.Errorf("library %s conflicts with earlier declarations: %s", name, errs[0].Msg)
		}
	}
}

func (ld *loader) file(target string) {
	path := target
	if !filepath.IsAbs(path) {
		if ld.dir == "" {
			ld.fileErrs[target] = errors.New("#use of local files is not supported for this document")
			return
		}
		path = filepath.Join(ld.dir, path)
	}
	path = filepath.Clean(path)
	if !ld.a.Env.MarkFile(path) {
		return
	}
	ld.a.Deps = append(ld.a.Deps, path)

	dep, err := ld.c.analyzeLocked(path)
	switch {
	case errors.Is(err, errCycle):
		log().Debugf("skipping %s in %s: already being analyzed", path, ld.a.Path)
		ld.a.partial = true
		return
	case err != nil:
		ld.fileErrs[target] = err
		return
	}
	ld.c.files[path].Dependants[ld.a.Path] = true
	if dep.partial {
		ld.a.partial = true
	}
	if dep.HasErrors() {
		ld.addDep(target, dep.Diagnostics)
		return
	}

	// The dependency was parsed on its own; its declarations are checked
	// again in this environment, where they may conflict with what came
	// before them.
	sub := newLoader(ld.c, ld.a, path)
	var diags []source.Diagnostic
	for _, d := range dep.Decls {
		switch d := d.(type) {
		case *ast.UseLib:
			sub.library(d.Name)
		case *ast.UseFile:
			sub.file(d.Path)
		}
		if diag, ok := sub.problem(d); ok {
			diags = append(diags, diag)
		}
		diags = append(diags, typecheck.Diagnostics(ld.a.Checker.Decl(d, false))...)
	}
	for _, name := range sub.depOrder {
		diags = append(diags, sub.depDiags[name]...)
	}
	if source.HasErrors(diags) {
		ld.addDep(target, diags)
	}
}

func (ld *loader) addDep(target string, diags []source.Diagnostic) {
	if _, ok := ld.depDiags[target]; !ok {
		ld.depOrder = append(ld.depOrder, target)
	}
	ld.depDiags[target] = append(ld.depDiags[target], diags...)
}

// failed reports whether a dependency has errors, which stops the
// analysis of the including file.
func (ld *loader) failed() bool {
	return len(ld.depOrder) > 0
}

// report describes the failed dependencies, attributing each to its #use
// line in decls when there is one.
func (ld *loader) report(decls []ast.Decl) []source.Diagnostic {
	var out []source.Diagnostic
	for _, target := range ld.depOrder {
		span := source.Span{File: ld.a.Path, Start: source.Position{Line: 1, Column: 1}, End: source.Position{Line: 1, Column: 1}}
		for _, d := range decls {
			if u, ok := d.(*ast.UseFile); ok && u.Path == target {
				span = u.Span()
				break
			}
		}
		diag := source.Errorf(source.StageLoad, span, "cannot analyze %s: %s has errors", filepath.Base(ld.a.Path), target)
		for _, dd := range ld.depDiags[target] {
			diag.Hints = append(diag.Hints, dd.String())
		}
		out = append(out, diag)
	}
	return out
}

// problem returns the load error for a #use declaration, if any.
func (ld *loader) problem(d ast.Decl) (source.Diagnostic, bool) {
	var err error
	switch d := d.(type) {
	case *ast.UseLib:
		err = ld.libErrs[d.Name]
	case *ast.UseFile:
		err = ld.fileErrs[d.Path]
	}
	if err == nil {
		return source.Diagnostic{}, false
	}
	return source.Errorf(source.StageLoad, d.Span(), "%v", err), true
}
