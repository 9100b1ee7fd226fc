package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/c0ls/c0/codebase"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/project"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Check files and print their diagnostics",
		Long: `Check runs the parser, the restriction pass and the typechecker over each
file and prints what they find. Without arguments it checks the files named
by the project in the current directory (project.txt or a "% cc0" line in
the README).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			root, err := os.Getwd()
			if err != nil {
				return err
			}

			files := args
			if len(files) == 0 {
				p, err := project.LoadFrom(root)
				if err != nil {
					return fmt.Errorf("no files given: %w", err)
				}
				files = p.Files
			}

			cb := codebase.New(root, opts...)
			nerrs := 0
			for _, file := range files {
				path, err := filepath.Abs(file)
				if err != nil {
					return err
				}
				diags, err := cb.Diagnostics(path)
				if err != nil {
					return err
				}
				for _, d := range diags {
					if d.Span.File == "" {
						d.Span.File = path
					}
					fmt.Println(relative(root, d).String())
					if d.Severity == source.SeverityError {
						nerrs++
					}
				}
			}
			if nerrs > 0 {
				return fmt.Errorf("%d errors", nerrs)
			}
			return nil
		},
	}
}

// relative shortens the file of d to a path relative to root when it is
// below it.
func relative(root string, d source.Diagnostic) source.Diagnostic {
	if rel, err := filepath.Rel(root, d.Span.File); err == nil && filepath.IsLocal(rel) {
		d.Span.File = rel
	}
	return d
}
