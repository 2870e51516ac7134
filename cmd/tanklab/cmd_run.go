package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/nvandessel/tanklab/internal/models"
	"github.com/nvandessel/tanklab/internal/store"
	"github.com/nvandessel/tanklab/internal/visualization"
	"github.com/spf13/cobra"
)

func addEmailFlag(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "User email (default: the logged-in user)")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a step-response experiment and store the result",
		Long: `Run simulates filling a tank after a step in the inflow. The ideal
level follows K*U*(1-exp(-t/30)) with K = height/inflow; the plant responds
more slowly, with slightly lower gain, plus measurement noise.

The result is stored as the user's latest experiment and enters the ranking.`,
		Example: `  tanklab run
  tanklab run --duration 150 --inflow 4 --height 8
  tanklab run --email ana@lab.edu --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			noChart, _ := cmd.Flags().GetBool("no-chart")
			params := models.ExperimentParams{}
			params.DurationSeconds, _ = cmd.Flags().GetInt("duration")
			params.InflowRate, _ = cmd.Flags().GetFloat64("inflow")
			params.OutflowRate, _ = cmd.Flags().GetFloat64("outflow")
			params.MaxHeight, _ = cmd.Flags().GetFloat64("height")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			email, err := a.resolveEmail(cmd)
			if err != nil {
				return err
			}

			result, err := a.svc.RunExperiment(cmd.Context(), email, params)
			if err != nil {
				return err
			}

			if jsonOut {
				return encodeJSON(cmd, result)
			}
			return printResult(cmd.OutOrStdout(), result, !noChart)
		},
	}
	addEmailFlag(cmd)
	cmd.Flags().Int("duration", models.DefaultDurationSeconds, "Experiment duration in seconds (10-200)")
	cmd.Flags().Float64("inflow", models.DefaultInflowRate, "Inflow step in L/s")
	cmd.Flags().Float64("outflow", models.DefaultOutflowRate, "Outflow in L/s (recorded only)")
	cmd.Flags().Float64("height", models.DefaultMaxHeight, "Tank height in meters")
	cmd.Flags().Bool("no-chart", false, "Print metrics only")
	return cmd
}

func printResult(w io.Writer, r *models.SimulationResult, chart bool) error {
	if chart {
		plot, err := visualization.TerminalChart(r, visualization.ChartOptions{Color: isTerminal(w)})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, plot)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, visualization.MetricsSummary(r))
	return nil
}

// isTerminal reports whether w is a character device, so ANSI colors are safe.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newLatestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent experiment of a user",
		Example: `  tanklab latest
  tanklab latest --error
  tanklab latest --csv run.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			csvPath, _ := cmd.Flags().GetString("csv")
			showError, _ := cmd.Flags().GetBool("error")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			email, err := a.resolveEmail(cmd)
			if err != nil {
				return err
			}
			result, err := a.svc.LatestResult(cmd.Context(), email)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result == nil {
				if jsonOut {
					return encodeJSON(cmd, map[string]any{"email": email, "result": nil})
				}
				fmt.Fprintf(out, "No experiments yet for %s. Run 'tanklab run' first.\n", email)
				return nil
			}

			if csvPath != "" {
				return writeCSV(out, csvPath, result)
			}
			if jsonOut {
				return encodeJSON(cmd, result)
			}
			if err := printResult(out, result, true); err != nil {
				return err
			}
			if showError {
				plot, err := visualization.ErrorChart(result, visualization.ChartOptions{Color: isTerminal(out)})
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, plot)
			}
			return nil
		},
	}
	addEmailFlag(cmd)
	cmd.Flags().String("csv", "", "Write the time series as CSV to this file ('-' for stdout)")
	cmd.Flags().Bool("error", false, "Also plot the tracking error")
	return cmd
}

func writeCSV(stdout io.Writer, path string, r *models.SimulationResult) error {
	if path == "-" {
		return store.WriteResultCSV(stdout, r)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := store.WriteResultCSV(f, r); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d samples to %s\n", r.Samples(), path)
	return f.Close()
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List every experiment of a user, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			email, err := a.resolveEmail(cmd)
			if err != nil {
				return err
			}
			results, err := a.svc.History(cmd.Context(), email)
			if err != nil {
				return err
			}

			if jsonOut {
				return encodeJSON(cmd, map[string]any{"email": email, "results": results, "count": len(results)})
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No experiments yet for %s.\n", email)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), visualization.HistoryTable(results))
			return nil
		},
	}
	addEmailFlag(cmd)
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render the latest experiment of a user as a PNG chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out, _ := cmd.Flags().GetString("out")
			openIt, _ := cmd.Flags().GetBool("open")
			dpi, _ := cmd.Flags().GetInt("dpi")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			email, err := a.resolveEmail(cmd)
			if err != nil {
				return err
			}
			result, err := a.svc.LatestResult(cmd.Context(), email)
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("no experiments yet for %s", email)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			err = visualization.WritePNG(f, result, visualization.PNGOptions{
				DPI:   dpi,
				Title: fmt.Sprintf("%s: MAE %.4f m", email, result.MeanAbsoluteError),
			})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write chart: %w", err)
			}

			if openIt {
				if err := visualization.OpenBrowser(out); err != nil {
					a.logger.Warn("could not open chart", "path", out, "error", err)
				}
			}
			if jsonOut {
				return encodeJSON(cmd, map[string]string{"path": out, "run_id": result.RunID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", out)
			return nil
		},
	}
	addEmailFlag(cmd)
	cmd.Flags().String("out", "tank.png", "Output PNG file")
	cmd.Flags().Int("dpi", 96, "Image resolution")
	cmd.Flags().Bool("open", false, "Open the chart with the system viewer")
	return cmd
}
