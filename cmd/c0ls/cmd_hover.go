package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/c0ls/c0/codebase"
	"github.com/dhamidi/c0ls/c0/source"
)

func newHoverCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hover <file:line:col>",
		Short: "Describe what is at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, path, pos, err := locate(g, args[0])
			if err != nil {
				return err
			}
			r, err := cb.At(path, pos)
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("nothing at %s", args[0])
			}
			fmt.Printf("%s\n%s\n", r.Span(), r.Hover())
			return nil
		},
	}
}

func newDefinitionCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "definition <file:line:col>",
		Aliases: []string{"def"},
		Short:   "Print where the thing at a position is declared",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, path, pos, err := locate(g, args[0])
			if err != nil {
				return err
			}
			span, ok := cb.Definition(path, pos)
			if !ok {
				return fmt.Errorf("no definition for %s", args[0])
			}
			if span.File == "" {
				span.File = path
			}
			fmt.Printf("%s:%d:%d\n", span.File, span.Start.Line, span.Start.Column)
			return nil
		},
	}
}

// locate splits a file:line:col argument and opens a codebase rooted at
// the file's directory.
func locate(g *globalFlags, arg string) (*codebase.Codebase, string, source.Position, error) {
	file, pos, err := parseLocation(arg)
	if err != nil {
		return nil, "", pos, err
	}
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, "", pos, err
	}
	opts, err := g.options()
	if err != nil {
		return nil, "", pos, err
	}
	return codebase.New(filepath.Dir(path), opts...), path, pos, nil
}

func parseLocation(arg string) (string, source.Position, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 3 {
		return "", source.Position{}, fmt.Errorf("expected file:line:col, got %q", arg)
	}
	n := len(parts)
	line, err := strconv.Atoi(parts[n-2])
	if err != nil || line < 1 {
		return "", source.Position{}, fmt.Errorf("bad line in %q", arg)
	}
	col, err := strconv.Atoi(parts[n-1])
	if err != nil || col < 1 {
		return "", source.Position{}, fmt.Errorf("bad column in %q", arg)
	}
	return strings.Join(parts[:n-2], ":"), source.Position{Line: line, Column: col}, nil
}
