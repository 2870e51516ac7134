package main

import (
	"fmt"

	"github.com/nvandessel/tanklab/internal/ranking"
	"github.com/nvandessel/tanklab/internal/visualization"
	"github.com/spf13/cobra"
)

func newRankingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Rank stored results by mean absolute error, then duration",
		Example: `  tanklab ranking
  tanklab ranking --best --top 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			best, _ := cmd.Flags().GetBool("best")
			top, _ := cmd.Flags().GetInt("top")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.svc.ListRanked(cmd.Context())
			if err != nil {
				return err
			}
			if best {
				rows = ranking.BestPerUser(rows)
			}
			rows = ranking.Top(rows, top)

			if jsonOut {
				return encodeJSON(cmd, map[string]any{"rows": rows, "count": len(rows)})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No experiments yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), visualization.RankingTable(rows))
			return nil
		},
	}
	cmd.Flags().Bool("best", false, "Keep only the best result of each user")
	cmd.Flags().Int("top", 0, "Show at most N rows (0 = all)")
	return cmd
}
