package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/c0ls/c0/parser"
	"github.com/dhamidi/c0ls/ebnf/parse"
)

func newGrammarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Inspect the C0 grammar",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the grammar the parser is built from",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(parser.Grammar())
		},
	})
	cmd.AddCommand(newGrammarCheckCmd())

	return cmd
}

func newGrammarCheckCmd() *cobra.Command {
	var startProduction string

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Parse and verify an EBNF grammar file (the built-in grammar by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "grammar.ebnf"
			text := parser.Grammar()
			if len(args) == 1 {
				filename = args[0]
				b, err := os.ReadFile(filename)
				if err != nil {
					return fmt.Errorf("read grammar: %w", err)
				}
				text = string(b)
			}

			grammar, err := ebnf.Parse(filename, strings.NewReader(text))
			if err != nil {
				printErrors(err)
				return err
			}
			if err := ebnf.Verify(grammar, startProduction); err != nil {
				printErrors(err)
				return err
			}
			compiled, err := parse.Compile(grammar, startProduction)
			if err != nil {
				return fmt.Errorf("compile grammar: %w", err)
			}
			fmt.Printf("%s: %d productions, start %s, %d terminals\n",
				filename, len(grammar), compiled.Start(), len(compiled.Terminals()))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "Program", "start production for verification")

	return cmd
}

// printErrors prints each error of an ebnf error list on its own line.
func printErrors(err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Println(v.Index(i).Interface())
		}
	} else {
		fmt.Println(err)
	}
}
