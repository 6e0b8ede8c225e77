package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lieworks/lie/pkg/cli"
	"lieworks/lie/pkg/engine/types"
)

var runFlags struct {
	maxTokens   int
	temperature float64
	timeBudget  time.Duration
	memory      bool
	output      string
}

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a one-shot guarded completion",
	Long: `Run a single completion against the configured backend and print the
result.

Examples:
  # Simple completion
  lie run "Explain what a context window is"

  # Bounded completion with memory injection
  lie run "What is my name?" --memory --max-tokens 64 --time-budget 10s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompletion,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runFlags.maxTokens, "max-tokens", 0, "maximum output tokens")
	runCmd.Flags().Float64Var(&runFlags.temperature, "temperature", 0, "sampling temperature [0, 2]")
	runCmd.Flags().DurationVar(&runFlags.timeBudget, "time-budget", 0, "wall-clock budget (e.g. 30s)")
	runCmd.Flags().BoolVar(&runFlags.memory, "memory", false, "inject persistent memory into the prompt")
	addOutputFlag(runCmd, &runFlags.output)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	ctx := cli.SetupSignalHandler()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	req := &types.Request{
		Intent: types.IntentCompletion,
		Prompt: strings.Join(args, " "),
	}

	limits := &types.RequestLimits{}
	if cmd.Flags().Changed("max-tokens") {
		limits.MaxTokens = &runFlags.maxTokens
	}
	if cmd.Flags().Changed("temperature") {
		limits.Temperature = &runFlags.temperature
	}
	if cmd.Flags().Changed("time-budget") {
		ms := runFlags.timeBudget.Milliseconds()
		limits.TimeBudgetMS = &ms
	}
	if limits.MaxTokens != nil || limits.Temperature != nil || limits.TimeBudgetMS != nil {
		req.Limits = limits
	}
	if cmd.Flags().Changed("memory") {
		req.MemoryEnabled = &runFlags.memory
	}

	res := a.eng.Dispatch(ctx, req)
	if err := cli.PrintResult(os.Stdout, os.Stderr, res, cli.OutputFormat(runFlags.output)); err != nil {
		return err
	}
	if code := cli.ExitCode(res); code != 0 {
		os.Exit(code)
	}
	return nil
}
