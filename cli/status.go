package main

import (
	"context"
	"fmt"
	"time"

	"cyberguard/services"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		st, err := client.Status(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, services.StatusLabel(st, err))
		if err != nil {
			return noticeError(ctx, err)
		}
		fmt.Fprintf(out, "  Gemini AI:      %s\n", availability(st.GeminiAvailable))
		fmt.Fprintf(out, "  News sources:   %s\n", availability(st.NewsAvailable()))
		fmt.Fprintf(out, "  Fact checking:  %s\n", availability(st.FactCheckAvailable))
		if st.AnalyzerReady != nil {
			fmt.Fprintf(out, "  Analyzer:       %s\n", availability(*st.AnalyzerReady))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not configured"
}
