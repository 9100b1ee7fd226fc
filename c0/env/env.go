// Package env holds the global environment: every declaration visible to a
// file, in the order it was committed, including those of the libraries and
// files it uses.
package env

import (
	"sort"

	"github.com/dhamidi/c0ls/c0/ast"
)

// Env is append-only. Lookups go through per-namespace name indexes that
// keep occurrences in declaration order.
type Env struct {
	decls []ast.Decl

	funcs    map[string][]*ast.FunDecl
	structs  map[string][]*ast.StructDecl
	typedefs map[string]ast.Decl

	libFuncs   map[string]bool
	libStructs map[string]bool

	loadedLibs  map[string]bool
	loadedFiles map[string]bool
}

func New() *Env {
	return &Env{
		funcs:       make(map[string][]*ast.FunDecl),
		structs:     make(map[string][]*ast.StructDecl),
		typedefs:    make(map[string]ast.Decl),
		libFuncs:    make(map[string]bool),
		libStructs:  make(map[string]bool),
		loadedLibs:  make(map[string]bool),
		loadedFiles: make(map[string]bool),
	}
}

// Add commits a declaration. fromLibrary marks functions and structs as
// provided by a library: they need no definition and may not be given one.
func (e *Env) Add(d ast.Decl, fromLibrary bool) {
	e.decls = append(e.decls, d)
	switch d := d.(type) {
	case *ast.FunDecl:
		name := d.Name.Value
		e.funcs[name] = append(e.funcs[name], d)
		if fromLibrary {
			e.libFuncs[name] = true
		}
	case *ast.StructDecl:
		name := d.Name.Value
		e.structs[name] = append(e.structs[name], d)
		if fromLibrary {
			e.libStructs[name] = true
		}
	case *ast.TypedefDecl:
		if _, ok := e.typedefs[d.Name.Value]; !ok {
			e.typedefs[d.Name.Value] = d
		}
	case *ast.FunTypedefDecl:
		if _, ok := e.typedefs[d.Name.Value]; !ok {
			e.typedefs[d.Name.Value] = d
		}
	}
}

// Decls returns all declarations in commit order. The slice must not be
// modified.
func (e *Env) Decls() []ast.Decl {
	return e.decls
}

// Function returns the definition of name if there is one, otherwise its
// first declaration, otherwise nil.
func (e *Env) Function(name string) *ast.FunDecl {
	occ := e.funcs[name]
	for _, f := range occ {
		if f.Body != nil {
			return f
		}
	}
	if len(occ) > 0 {
		return occ[0]
	}
	return nil
}

// FunctionDecls returns every declaration of name in commit order.
func (e *Env) FunctionDecls(name string) []*ast.FunDecl {
	return e.funcs[name]
}

// Struct returns the definition of the struct name if there is one,
// otherwise its first forward declaration.
func (e *Env) Struct(name string) *ast.StructDecl {
	occ := e.structs[name]
	for _, s := range occ {
		if s.Defined {
			return s
		}
	}
	if len(occ) > 0 {
		return occ[0]
	}
	return nil
}

// Typedef returns the *ast.TypedefDecl or *ast.FunTypedefDecl introducing
// name, or nil.
func (e *Env) Typedef(name string) ast.Decl {
	return e.typedefs[name]
}

func (e *Env) IsLibraryFunction(name string) bool {
	return e.libFuncs[name]
}

func (e *Env) IsLibraryStruct(name string) bool {
	return e.libStructs[name]
}

// MarkLibrary records that the library name has been loaded and reports
// whether it was new.
func (e *Env) MarkLibrary(name string) bool {
	if e.loadedLibs[name] {
		return false
	}
	e.loadedLibs[name] = true
	return true
}

func (e *Env) LibraryLoaded(name string) bool {
	return e.loadedLibs[name]
}

// MarkFile records that the file at path has been loaded and reports
// whether it was new.
func (e *Env) MarkFile(path string) bool {
	if e.loadedFiles[path] {
		return false
	}
	e.loadedFiles[path] = true
	return true
}

func (e *Env) FileLoaded(path string) bool {
	return e.loadedFiles[path]
}

// Libraries returns the names of the loaded libraries, sorted.
func (e *Env) Libraries() []string {
	return sortedKeys(e.loadedLibs)
}

// TypeNames returns every typedef name, sorted.
func (e *Env) TypeNames() []string {
	names := make([]string, 0, len(e.typedefs))
	for n := range e.typedefs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FunctionNames returns every declared function name, sorted.
func (e *Env) FunctionNames() []string {
	names := make([]string, 0, len(e.funcs))
	for n := range e.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DeclsInFile returns the declarations whose spans lie in file, in order.
func (e *Env) DeclsInFile(file string) []ast.Decl {
	var out []ast.Decl
	for _, d := range e.decls {
		if d.Span().File == file {
			out = append(out, d)
		}
	}
	return out
}

// Clone returns an environment that shares declarations with e but can
// grow independently.
func (e *Env) Clone() *Env {
	c := New()
	c.decls = append([]ast.Decl(nil), e.decls...)
	for k, v := range e.funcs {
		c.funcs[k] = append([]*ast.FunDecl(nil), v...)
	}
	for k, v := range e.structs {
		c.structs[k] = append([]*ast.StructDecl(nil), v...)
	}
	copyMap(c.typedefs, e.typedefs)
	copyMap(c.libFuncs, e.libFuncs)
	copyMap(c.libStructs, e.libStructs)
	copyMap(c.loadedLibs, e.loadedLibs)
	copyMap(c.loadedFiles, e.loadedFiles)
	return c
}

func copyMap[V any](dst, src map[string]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
