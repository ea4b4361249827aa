package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"cyberguard/models"
	"cyberguard/services"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	limit     int
	kind      string
	favorites bool
	olderThan int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage the backend's analysis history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := historyClient().List(cmd.Context(), models.HistoryFilter{
			Limit:         historyFlags.limit,
			AnalysisType:  historyFlags.kind,
			FavoritesOnly: historyFlags.favorites,
		})
		if err != nil {
			return noticeError(cmd.Context(), err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history yet")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tRISK\tFAV\tWHEN\tCONTENT")
		for _, e := range entries {
			fav := ""
			if e.IsFavorite {
				fav = "*"
			}
			content := e.ContentPreview
			if content == "" {
				content = e.FileName
			}
			fmt.Fprintf(tw, "%d\t%s\t%.1f%%\t%s\t%s\t%s\n", e.ID, e.Kind(), e.RiskScore*100, fav, e.Timestamp, content)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Re-render a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		entry, err := historyClient().Get(cmd.Context(), id)
		if err != nil {
			return noticeError(cmd.Context(), err)
		}
		view, err := renderer.Render(entry.Kind(), entry.Results)
		if err != nil {
			return noticeError(cmd.Context(), err)
		}
		return writeView(cmd.OutOrStdout(), view)
	},
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite ID",
	Short: "Toggle the favorite flag of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := historyClient().ToggleFavorite(cmd.Context(), id); err != nil {
			return noticeError(cmd.Context(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Toggled favorite on #%d\n", id)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := historyClient().Delete(cmd.Context(), id); err != nil {
			return noticeError(cmd.Context(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all entries, or only those older than N days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := historyClient().Clear(cmd.Context(), historyFlags.olderThan)
		if err != nil {
			return noticeError(cmd.Context(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := historyClient().Statistics(cmd.Context())
		if err != nil {
			return noticeError(cmd.Context(), err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total searches:  %d\n", st.TotalSearches)
		fmt.Fprintf(out, "Last 7 days:     %d\n", st.RecentActivity)
		for _, k := range models.Kinds {
			fmt.Fprintf(out, "  %-6s %d\n", k, st.ByType[string(k)])
		}
		fmt.Fprintf(out, "Risk:            low %d / medium %d / high %d\n",
			st.RiskDistribution.Low, st.RiskDistribution.Medium, st.RiskDistribution.High)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyFlags.limit, "limit", 50, "maximum entries")
	historyListCmd.Flags().StringVar(&historyFlags.kind, "type", "", "only this analysis type: text, image, video")
	historyListCmd.Flags().BoolVar(&historyFlags.favorites, "favorites", false, "only favorites")
	historyClearCmd.Flags().IntVar(&historyFlags.olderThan, "older-than", 0, "only entries older than N days (0 clears everything)")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyFavoriteCmd, historyDeleteCmd, historyClearCmd, historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyClient() *services.HistoryClient {
	return services.NewHistoryClient(client)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
