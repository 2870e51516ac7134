package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nvandessel/tanklab/internal/visualization"
	"github.com/spf13/cobra"
)

// signalContext is cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only ranking dashboard over HTTP",
		Long: `Serve starts a local dashboard with the class ranking, per-user
results as JSON and PNG charts of each user's latest experiment.

Endpoints:
  /                             ranking page
  /api/ranking?best=1&top=N     ranking as JSON
  /api/users/{email}/latest     latest result as JSON
  /api/users/{email}/history    all results as JSON
  /users/{email}/chart.png      chart of the latest result`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			openIt, _ := cmd.Flags().GetBool("open")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			srv := visualization.NewServer(a.svc)
			go func() {
				// Addr is only known once the listener is up.
				for ctx.Err() == nil {
					if bound := srv.Addr(); bound != "" {
						url := "http://" + bound + "/"
						fmt.Fprintf(cmd.OutOrStdout(), "Dashboard listening on %s\n", url)
						if openIt {
							if err := visualization.OpenBrowser(url); err != nil {
								a.logger.Warn("could not open browser", "url", url, "error", err)
							}
						}
						return
					}
					time.Sleep(20 * time.Millisecond)
				}
			}()

			a.logger.Info("dashboard starting", "addr", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().String("addr", "localhost:8080", "Listen address")
	cmd.Flags().Bool("open", false, "Open the dashboard in a browser")
	return cmd
}
