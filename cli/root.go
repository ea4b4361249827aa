package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"cyberguard/config"
	"cyberguard/services"

	"github.com/spf13/cobra"
)

// owner of every submission made by this process
const cliOwner = "cli"

var (
	// Global flags
	apiBase  string
	timeout  time.Duration
	jsonOut  bool
	rulesArg string

	cfg       *config.Config
	client    *services.Client
	renderer  *services.Renderer
	submitter *services.Submitter
)

var rootCmd = &cobra.Command{
	Use:   "cyberguard",
	Short: "CyberGuard - misinformation and deepfake checks from the terminal",
	Long: `CyberGuard submits text, images and videos to the analysis backend and
prints the rendered result: overall risk, the AI verdict, per-analyzer
sections and recommendations.

Settings come from the environment (.env is loaded when present); flags
override them.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "", "analysis backend base URL (default $API_BASE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout (default $REQUEST_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print the rendered view as JSON")
	rootCmd.PersistentFlags().StringVar(&rulesArg, "rules", "", "verdict rules YAML (default $VERDICT_RULES_PATH or built-in)")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	if timeout > 0 {
		cfg.RequestTimeout = timeout
	}
	if rulesArg != "" {
		cfg.VerdictRulesPath = rulesArg
	}

	rules, err := services.NewRuleStore(cfg.VerdictRulesPath)
	if err != nil {
		return err
	}
	client = services.NewClient(cfg.APIBase)
	renderer = services.NewRenderer(services.Thresholds{Low: cfg.RiskLowThreshold, High: cfg.RiskHighThreshold}, rules)
	submitter = services.NewSubmitter(cfg.RequestTimeout)
	return nil
}

// cancelOnInterrupt cancels this process's in-flight submissions on Ctrl-C,
// so the error reads as a cancellation rather than a network failure. The
// returned func stops watching.
func cancelOnInterrupt() func() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		submitter.Cancel(cliOwner)
	}()
	return stop
}
