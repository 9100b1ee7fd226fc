package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
)

func newTokensCmd() *cobra.Command {
	var trivia bool
	var typeNames []string

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			// Typedef names are not tracked here; pass them with --type.
			names := scanner.NewTypeNames(typeNames...)
			sc := scanner.NewScanner(string(data), source.Position{Line: 1, Column: 1}, names, nil)
			for {
				tok := sc.Next()
				if tok.Kind == scanner.TokenEOF {
					return nil
				}
				if tok.Kind.IsTrivia() && !trivia {
					continue
				}
				fmt.Printf("%s\t%s\t%s\t%q\n", tok.Span, tok.Kind, tok.Mode, tok.Literal)
			}
		},
	}

	cmd.Flags().BoolVar(&trivia, "trivia", false, "include whitespace and comments")
	cmd.Flags().StringSliceVar(&typeNames, "type", nil, "treat these identifiers as type names")

	return cmd
}
