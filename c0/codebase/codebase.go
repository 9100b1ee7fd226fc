// Package codebase runs the whole C0 pipeline over the files of a
// directory and answers editor queries about them.
//
// Each file is analyzed in its own environment: the files listed before it
// in the project, then the libraries and files it names with #use, then its
// own declarations. Analyses are cached per file and dropped when the file
// or anything it depends on changes.
package codebase

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/env"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/navigate"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/c0/typecheck"
	"github.com/dhamidi/c0ls/project"
)

// log is resolved on each use; the backend is installed by main.
func log() commonlog.Logger {
	return commonlog.GetLogger("c0ls.codebase")
}

var errCycle = errors.New("circular #use")

type Option func(*Codebase)

// WithLibraryDir makes #use <name> look for name.h0 in dir before the
// built-in headers.
func WithLibraryDir(dir string) Option {
	return func(c *Codebase) {
		c.libDir = dir
	}
}

// WithLanguage analyzes every file as l instead of inferring the dialect
// from the file extension.
func WithLanguage(l lang.Lang) Option {
	return func(c *Codebase) {
		c.lang = l
	}
}

// WithProject sets the compile line that orders the files of the codebase.
// Without it the project is looked up in the root directory.
func WithProject(p *project.Project) Option {
	return func(c *Codebase) {
		c.project = p
	}
}

type Codebase struct {
	mu      sync.Mutex
	rootDir string
	libDir  string
	lang    lang.Lang
	project *project.Project
	files   map[string]*FileInfo
	// active holds the files being analyzed, to detect #use cycles.
	active map[string]bool
}

type FileInfo struct {
	Path    string
	Content []byte
	// Analysis is nil until the file is analyzed and after it is
	// invalidated.
	Analysis *Analysis
	// Previous is the last analysis without errors.
	Previous *Analysis
	// Dependants are the files whose analysis included this one.
	Dependants map[string]bool
}

// Analysis is the result of running the pipeline over one file.
type Analysis struct {
	Path string
	Lang lang.Lang
	// Env holds the declarations of the file and everything it includes.
	Env     *env.Env
	Checker *typecheck.Checker
	// Decls are the file's own declarations.
	Decls       []ast.Decl
	TypeNames   *scanner.TypeNames
	Diagnostics []source.Diagnostic
	// Deps are the files loaded into Env, in load order.
	Deps []string

	// partial is set when a #use cycle left a file out.
	partial bool
}

func (a *Analysis) HasErrors() bool {
	return source.HasErrors(a.Diagnostics)
}

func New(rootDir string, opts ...Option) *Codebase {
	c := &Codebase{
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
		active:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.project == nil && rootDir != "" {
		if p, err := project.LoadFrom(rootDir); err == nil {
			c.project = p
			log().Infof("using %s (%d files)", p.Source, len(p.Files))
		}
	}
	return c
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

// IsSource reports whether path names a C0 source file.
func IsSource(path string) bool {
	_, ok := lang.FromPath(path)
	return ok
}

func (c *Codebase) ScanAll() error {
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if IsSource(path) {
			c.ScanFile(path)
		}
		return nil
	})
}

func (c *Codebase) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.UpdateFile(path, content)
}

// UpdateFile replaces the content of path and invalidates its analysis
// along with that of every file that depends on it.
func (c *Codebase) UpdateFile(path string, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fi := c.files[path]
	if fi == nil {
		fi = &FileInfo{Path: path, Dependants: make(map[string]bool)}
		c.files[path] = fi
	}
	fi.Content = content
	c.invalidateLocked(path, make(map[string]bool))
	return nil
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(path, make(map[string]bool))
	delete(c.files, path)
}

// Invalidate drops the analysis of path and its dependants and returns the
// paths whose analysis was dropped.
func (c *Codebase) Invalidate(path string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool)
	c.invalidateLocked(path, seen)
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (c *Codebase) invalidateLocked(path string, seen map[string]bool) {
	if seen[path] {
		return
	}
	seen[path] = true
	fi := c.files[path]
	if fi == nil {
		return
	}
	if fi.Analysis != nil {
		log().Debugf("invalidated %s", path)
		if !fi.Analysis.HasErrors() {
			fi.Previous = fi.Analysis
		}
	}
	fi.Analysis = nil
	for d := range fi.Dependants {
		c.invalidateLocked(d, seen)
	}
}

// Dependants returns the files known to depend on path.
func (c *Codebase) Dependants(path string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	fi := c.files[path]
	if fi == nil {
		return nil
	}
	out := make([]string, 0, len(fi.Dependants))
	for p := range fi.Dependants {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files[path]
}

func (c *Codebase) fileLocked(path string) (*FileInfo, error) {
	if fi, ok := c.files[path]; ok {
		return fi, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fi := &FileInfo{Path: path, Content: b, Dependants: make(map[string]bool)}
	c.files[path] = fi
	return fi, nil
}

func (c *Codebase) langFor(path string) lang.Lang {
	if c.lang != 0 {
		return c.lang
	}
	if l, ok := lang.FromPath(path); ok {
		return l
	}
	return lang.C0
}

func (c *Codebase) projectDeps(path string) []string {
	if c.project == nil || !c.project.Contains(path) {
		return nil
	}
	return c.project.DependenciesOf(path)
}

// Analyze returns the analysis of path, running the pipeline if the cached
// one was invalidated.
func (c *Codebase) Analyze(path string) (*Analysis, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyzeLocked(path)
}

func (c *Codebase) analyzeLocked(path string) (*Analysis, error) {
	fi, err := c.fileLocked(path)
	if err != nil {
		return nil, err
	}
	if fi.Analysis != nil {
		return fi.Analysis, nil
	}
	if c.active[path] {
		return nil, errCycle
	}
	c.active[path] = true
	defer delete(c.active, path)

	a := c.run(path, string(fi.Content))
	if !a.partial {
		fi.Analysis = a
	}
	log().Infof("analyzed %s as %s: %d declarations, %d diagnostics", path, a.Lang, len(a.Decls), len(a.Diagnostics))
	return a, nil
}

func (c *Codebase) run(path, text string) *Analysis {
	e := env.New()
	a := &Analysis{
		Path:    path,
		Lang:    c.langFor(path),
		Env:     e,
		Checker: typecheck.NewChecker(e, nil),
	}
	ld := newLoader(c, a, path)
	e.MarkFile(path)

	var diags []source.Diagnostic
	top := source.Span{File: path, Start: source.Position{Line: 1, Column: 1}, End: source.Position{Line: 1, Column: 1}}
	for _, dep := range c.projectDeps(path) {
		ld.file(dep)
		if err := ld.fileErrs[dep]; err != nil {
			diags = append(diags, source.Errorf(source.StageLoad, top, "%v", err))
		}
	}
	if ld.failed() || len(diags) > 0 {
		a.Diagnostics = append(diags, ld.report(nil)...)
		return a
	}

	names := scanner.NewTypeNames(e.TypeNames()...)
	res := parser.Parse(text,
		parser.WithFile(path),
		parser.WithTypeNames(names),
		parser.WithPragmaNames(ld.pragma))
	a.TypeNames = res.TypeNames
	a.Checker.Damaged(res.Diagnostics)

	decls, rerrs := restrict.Program(res.Decls, res.Comments, a.Lang)
	a.Decls = decls
	diags = append(res.Diagnostics, restrict.Diagnostics(rerrs)...)
	if ld.failed() {
		a.Diagnostics = append(diags, ld.report(decls)...)
		return a
	}

	for _, d := range decls {
		if diag, ok := ld.problem(d); ok {
			diags = append(diags, diag)
		}
		diags = append(diags, typecheck.Diagnostics(a.Checker.Decl(d, false))...)
	}
	diags = append(diags, typecheck.Diagnostics(a.Checker.Finish())...)
	a.Diagnostics = diags
	return a
}

// Diagnostics analyzes path and returns its diagnostics.
func (c *Codebase) Diagnostics(path string) ([]source.Diagnostic, error) {
	a, err := c.Analyze(path)
	if err != nil {
		return nil, err
	}
	return a.Diagnostics, nil
}

// At returns what is at pos in path.
func (c *Codebase) At(path string, pos source.Position) (navigate.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, err := c.analyzeLocked(path)
	if err != nil {
		return nil, err
	}
	return navigate.Find(a.Checker, path, pos), nil
}

// Definition returns where the thing at pos in path is declared.
func (c *Codebase) Definition(path string, pos source.Position) (source.Span, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, err := c.analyzeLocked(path)
	if err != nil {
		return source.Span{}, false
	}
	switch r := navigate.Find(a.Checker, path, pos).(type) {
	case *navigate.FoundIdentifier:
		if r.Local != nil {
			return r.Local.Name.Span(), true
		}
		if r.Func != nil {
			return r.Func.Name.Span(), true
		}
	case *navigate.FoundType:
		switch d := r.Decl.(type) {
		case *ast.StructDecl:
			if def := a.Env.Struct(d.Name.Value); def != nil {
				return def.Name.Span(), true
			}
			return d.Name.Span(), true
		case *ast.TypedefDecl:
			return d.Name.Span(), true
		case *ast.FunTypedefDecl:
			return d.Name.Span(), true
		}
	case *navigate.FoundField:
		return r.Field.Name.Span(), true
	case *navigate.FoundLink:
		var target string
		if r.Library != "" {
			_, target, err = c.libraryText(r.Library)
			if err != nil || !filepath.IsAbs(target) {
				return source.Span{}, false
			}
		} else {
			target = r.File
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(path), target)
			}
		}
		start := source.Position{Line: 1, Column: 1}
		return source.Span{File: filepath.Clean(target), Start: start, End: start}, true
	}
	return source.Span{}, false
}
