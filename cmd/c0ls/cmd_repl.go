package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/dhamidi/c0ls/c0/ast"
	"github.com/dhamidi/c0ls/c0/codebase"
	"github.com/dhamidi/c0ls/c0/source"
)

const (
	historyFile = ".c0ls_history"
	promptMain  = "c0> "
	promptCont  = "... "
)

func newReplCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Check declarations and expressions interactively",
		Long: `Repl reads declarations and expressions one at a time. Declarations
are added to the environment; for expressions the type is printed.

Commands:
  :env     list the functions and types declared so far
  :finish  report functions used but never defined
  :quit    leave`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			return runRepl(codebase.New(root, opts...).NewSession())
		},
	}
}

func runRepl(s *codebase.Session) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		if quit := eval(os.Stdout, s, input); quit {
			return nil
		}
	}
}

// readInput reads lines until braces and parentheses balance.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", false
		}
		b.WriteString(line)
		b.WriteByte('\n')
		if codebase.Balanced(b.String()) {
			return b.String(), true
		}
		prompt = promptCont
	}
}

// eval handles one input and reports whether the session should end.
func eval(w io.Writer, s *codebase.Session, input string) bool {
	switch strings.TrimSpace(input) {
	case ":quit", ":q":
		return true
	case ":env":
		for _, name := range s.Env().FunctionNames() {
			fmt.Fprintf(w, "function %s\n", name)
		}
		for _, name := range s.Env().TypeNames() {
			fmt.Fprintf(w, "type %s\n", name)
		}
		return false
	case ":finish":
		printDiagnostics(w, s.Finish())
		return false
	}
	if strings.HasPrefix(strings.TrimSpace(input), ":") {
		fmt.Fprintln(w, "unknown command; try :env, :finish or :quit")
		return false
	}

	r := s.Eval(input)
	printDiagnostics(w, r.Diagnostics)
	switch {
	case r.HasErrors():
	case r.Type != nil:
		fmt.Fprintf(w, "%s\n", r.Type)
	default:
		for _, d := range r.Decls {
			fmt.Fprintf(w, "ok %s\n", declLabel(d))
		}
	}
	return false
}

func printDiagnostics(w io.Writer, diags []source.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

func declLabel(d ast.Decl) string {
	switch d := d.(type) {
	case *ast.UseLib:
		return "#use <" + d.Name + ">"
	case *ast.UseFile:
		return "#use \"" + d.Path + "\""
	case *ast.StructDecl:
		return "struct " + d.Name.Value
	case *ast.TypedefDecl, *ast.FunTypedefDecl:
		return "typedef " + ast.DeclName(d)
	}
	return ast.DeclName(d)
}
