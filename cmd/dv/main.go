package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/datedvalues/internal/client"
	"github.com/alfredjeanlab/datedvalues/internal/ui"
)

var (
	httpURL    string
	authToken  string
	jsonOutput bool
	noColor    bool

	dvClient client.DatedValuesClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("DATED_VALUES_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:           "dv <command>",
	Short:         "Edit dated values of any object, one column per day",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Init()
		if noColor {
			ui.ForceNoColor()
		}
		dvClient = client.NewHTTPClient(httpURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dvClient != nil {
			dvClient.Close()
		}
	},
}

// localCommand skips the client setup for commands that never talk to the
// server.
func localCommand(cmd *cobra.Command, args []string) error {
	ui.Init()
	if noColor {
		ui.ForceNoColor()
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("DATED_VALUES_AUTH_TOKEN"), "bearer token for the server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "values", Title: "Values:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	cobra.EnableCommandSorting = false

	// Values
	rootCmd.AddCommand(valuesCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
