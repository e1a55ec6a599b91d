package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/datedvalues/internal/client"
	"github.com/alfredjeanlab/datedvalues/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the server and its backups",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := dvClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			if err := printJSON(health); err != nil {
				return err
			}
		} else {
			fmt.Printf("Server:  %s\n", health.Status)
			fmt.Printf("Backups: %s\n", describeBackup(health.Backup, time.Now()))
		}

		if health.Status != "ok" {
			return fmt.Errorf("unhealthy: %s", health.Status)
		}
		return nil
	},
}

func describeBackup(b *client.Backup, now time.Time) string {
	switch {
	case b == nil:
		return "not configured"
	case b.Runs == 0:
		return "no run yet"
	case b.LastError != "":
		return ui.RenderError("failed " + since(b.LastRun, now) + ": " + b.LastError)
	}
	return fmt.Sprintf("%d bytes %s (%d runs)", b.LastBytes, since(b.LastRun, now), b.Runs)
}

func since(t, now time.Time) string {
	return now.Sub(t).Truncate(time.Second).String() + " ago"
}
