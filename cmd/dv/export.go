package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export all value types and values as JSONL",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		var w io.Writer = os.Stdout
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		n, err := dvClient.Export(context.Background(), w)
		if err != nil {
			return err
		}
		if w != os.Stdout {
			fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", n, out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "write to a file instead of stdout")
}
