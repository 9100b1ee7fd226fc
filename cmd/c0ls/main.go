package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/c0ls/c0/codebase"
	"github.com/dhamidi/c0ls/c0/lang"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose int
	logFile string
	lang    string
	libDir  string
}

// options turns the global flags into codebase options.
func (g *globalFlags) options() ([]codebase.Option, error) {
	var opts []codebase.Option
	if g.lang != "" {
		l, err := lang.Parse(g.lang)
		if err != nil {
			return nil, err
		}
		opts = append(opts, codebase.WithLanguage(l))
	}
	if g.libDir != "" {
		opts = append(opts, codebase.WithLibraryDir(g.libDir))
	}
	return opts, nil
}

func main() {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "c0ls",
		Short:        "Checker and language server for the C0 language family",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if g.logFile != "" {
				path = &g.logFile
			}
			commonlog.Configure(g.verbose, path)
		},
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbose, "verbose", "v", "log more (repeat for more detail)")
	rootCmd.PersistentFlags().StringVar(&g.logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&g.lang, "lang", "", "dialect to use for every file (l1, l2, l3, l4, c0, c1)")
	rootCmd.PersistentFlags().StringVar(&g.libDir, "lib-dir", "", "directory searched for <name>.h0 before the built-in headers")

	rootCmd.AddCommand(newCheckCmd(g))
	rootCmd.AddCommand(newParseCmd(g))
	rootCmd.AddCommand(newTokensCmd())
	rootCmd.AddCommand(newHoverCmd(g))
	rootCmd.AddCommand(newDefinitionCmd(g))
	rootCmd.AddCommand(newLSPCmd(g))
	rootCmd.AddCommand(newReplCmd(g))
	rootCmd.AddCommand(newGrammarCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
