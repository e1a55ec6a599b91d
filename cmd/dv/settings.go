package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/datedvalues/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Short:   "Show the server's editor settings",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := dvClient.Settings(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(s)
		}
		fmt.Printf("Displayed items: %d\n", s.DisplayedItems)
		fmt.Printf("Date format:     %s\n", s.DateFormat)
		fmt.Printf("Max days:        %d\n", s.MaxDays)
		fmt.Printf("Access:          %s\n", s.AccessMode)
		return nil
	},
}

var settingsInitCmd = &cobra.Command{
	Use:               "init",
	Short:             "Write a default settings file for the server",
	Args:              cobra.NoArgs,
	PersistentPreRunE: localCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.SaveSettings(path, config.DefaultSettings()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	settingsInitCmd.Flags().String("path", envOr("DATED_VALUES_SETTINGS", config.SettingsPath()), "settings file to write")
	settingsInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	settingsCmd.AddCommand(settingsInitCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
