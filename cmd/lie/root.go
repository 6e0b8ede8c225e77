package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lie",
	Short: "Local inference engine for native LLM backends",
	Long: `Lie is a local-only inference engine that orchestrates a native
LLM backend (llama.cpp) behind a single structured request contract.

Every request is validated up front, executed under hard token and
time bounds, and answered with one normalized result. A persistent
key/value memory plus a rolling summary can be injected into prompts
and survives restarts.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "lie.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
