package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lieworks/lie/pkg/cli"
	"lieworks/lie/pkg/engine/types"
)

var memoryOutput string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and modify the persistent memory store",
	Long: `Inspect and modify the persistent key/value memory and the rolling
summary. Memory commands work without the backend running.`,
}

var memorySetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a fact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchMemory(cmd, &types.Request{
			Intent: types.IntentMemorySet,
			Key:    args[0],
			Value:  args[1],
		})
	},
}

var memoryGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchMemory(cmd, &types.Request{
			Intent: types.IntentMemoryGet,
			Key:    args[0],
		})
	},
}

var memorySummaryCmd = &cobra.Command{
	Use:   "summary [text]",
	Short: "Read the rolling summary, or append text to it",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchMemory(cmd, &types.Request{
			Intent: types.IntentMemorySummary,
			Value:  strings.Join(args, " "),
		})
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memorySetCmd, memoryGetCmd, memorySummaryCmd)
	memoryCmd.PersistentFlags().StringVarP(&memoryOutput, "output", "o", "json", "output format (json, text)")
}

func dispatchMemory(cmd *cobra.Command, req *types.Request) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.eng.Dispatch(ctx, req)
	if err := cli.PrintResult(os.Stdout, os.Stderr, res, cli.OutputFormat(memoryOutput)); err != nil {
		return err
	}
	if code := cli.ExitCode(res); code != 0 {
		os.Exit(code)
	}
	return nil
}
