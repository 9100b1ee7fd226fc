package codebase

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/lang"
	"github.com/dhamidi/c0ls/c0/libs"
	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/c0/restrict"
	"github.com/dhamidi/c0ls/c0/source"
)

// library is a parsed and restricted header. Libraries are immutable for
// the life of the process, so each one is parsed once and its declarations
// are shared by every environment that uses it.
type library struct {
	name  string
	path  string
	decls []ast.Decl
}

var libraries = struct {
	sync.Mutex
	byPath map[string]*library
}{byPath: make(map[string]*library)}

// libraryText finds the header of name, preferring the library directory
// over the embedded headers. The returned path identifies the header in
// spans; embedded headers are named <name>.
func (c *Codebase) libraryText(name string) (text, path string, err error) {
	if c.libDir != "" {
		path := filepath.Join(c.libDir, name+libs.Ext)
		b, err := os.ReadFile(path)
		if err == nil {
			return string(b), path, nil
		}
		if !os.IsNotExist(err) {
			return "", "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	if text, ok := libs.Header(name); ok {
		return text, "<" + name + ">", nil
	}
	return "", "", fmt.Errorf("library %s not found", name)
}

func (c *Codebase) library(name string) (*library, error) {
	text, path, err := c.libraryText(name)
	if err != nil {
		return nil, err
	}

	libraries.Lock()
	defer libraries.Unlock()
	if lib, ok := libraries.byPath[path]; ok {
		return lib, nil
	}

	res := parser.Parse(text, parser.WithFile(path))
	decls, rerrs := restrict.Program(res.Decls, res.Comments, lang.C1)
	diags := append(res.Diagnostics, restrict.Diagnostics(rerrs)...)
	if source.HasErrors(diags) {
		return nil, fmt.Errorf("library %s: %s", name, diags[0])
	}

	lib := &library{name: name, path: path, decls: decls}
	libraries.byPath[path] = lib
	log().Infof("loaded library %s from %s (%d declarations)", name, path, len(decls))
	return lib, nil
}
