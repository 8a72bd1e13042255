package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.StandardLogger()

var rootCmd = &cobra.Command{
	Use:   "godd SCRIPT FILE",
	Short: "Reduce a failing Lua test case with syntax-aware delta debugging",
	Long: `godd minimizes a Lua source file that triggers a failure, using an
interestingness predicate script to classify each candidate reduction.

It bisects the program's AST rather than raw text, so every candidate it
produces is syntactically well-formed Lua.`,
	Args:          cobra.ExactArgs(2),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runReduce,
}

func init() {
	rootCmd.Flags().StringVar(&reduceFlags.passes, "passes", "imports;top", "semicolon-separated passes to run, subset of {imports, top}")
	rootCmd.Flags().StringVar(&reduceFlags.output, "output", "", "temp root for trial files (default /tmp/dd/)")
	rootCmd.Flags().Uint32Var(&reduceFlags.timeoutSecs, "timeout", 0, "predicate timeout in seconds (default: no timeout)")
	rootCmd.Flags().BoolVar(&reduceFlags.force, "force", false, "remove the output directory if it already exists")
	rootCmd.Flags().BoolVar(&reduceFlags.recursive, "recursive", false, "reserved, no current behavior")
	rootCmd.PersistentFlags().CountVarP(&reduceFlags.verbosity, "verbose", "v", "increase logging verbosity, repeatable")
}
