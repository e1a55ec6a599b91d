package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/datedvalues/internal/client"
	"github.com/alfredjeanlab/datedvalues/internal/model"
	"github.com/alfredjeanlab/datedvalues/internal/ui"
)

var valuesCmd = &cobra.Command{
	Use:     "values",
	Short:   "Show and edit the dated values of an object",
	GroupID: "values",
}

var valuesShowCmd = &cobra.Command{
	Use:   "show <object-id>",
	Short: "Show a range of days for an object, one column per value type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		types, _ := cmd.Flags().GetStringSlice("types")
		start, _ := cmd.Flags().GetString("start")
		days, _ := cmd.Flags().GetInt("days")

		e, err := dvClient.GetEditor(context.Background(), &client.EditorRequest{
			ObjectKind: kind,
			ObjectID:   args[0],
			Types:      types,
			Start:      start,
			Days:       days,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(e)
		}
		printEditorGrid(os.Stdout, e)
		return nil
	},
}

var valuesSetCmd = &cobra.Command{
	Use:   "set <object-id> <value>...",
	Short: "Set values of one type for consecutive days",
	Long: `Set values of one type for consecutive days.

Each value after the object id fills the next day, starting at --start. An
empty string or "-" blanks the day and removes any stored value. Without
--start the last value lands on today.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		slug, _ := cmd.Flags().GetString("type")
		start, _ := cmd.Flags().GetString("start")

		objectID, inputs := args[0], args[1:]
		if start == "" {
			start = model.DateKey(model.AddDays(time.Now(), -(len(inputs) - 1)))
		}
		req := &client.EditorRequest{
			ObjectKind: kind,
			ObjectID:   objectID,
			Types:      []string{slug},
			Start:      start,
			Days:       len(inputs),
		}

		ctx := context.Background()
		e, err := dvClient.GetEditor(ctx, req)
		if err != nil {
			return err
		}
		row := e.Type(slug)
		if row == nil {
			return fmt.Errorf("value type %q not in editor", slug)
		}

		data := cellData(row.Fields, inputs)
		saved, err := dvClient.SaveEditor(ctx, req, data)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
				for _, fe := range apiErr.Fields {
					fmt.Fprintln(os.Stderr, ui.RenderError(fieldDate(row.Fields, fe.Field)+": "+fe.Message))
				}
			}
			return err
		}

		if jsonOutput {
			return printJSON(saved)
		}
		printEditorGrid(os.Stdout, saved)
		fmt.Printf("\n%d created, %d updated, %d deleted\n", saved.Created, saved.Updated, saved.Deleted)
		return nil
	},
}

// cellData maps positional inputs onto the editor's field keys. "" and "-"
// submit a blank.
func cellData(fields []client.EditorField, inputs []string) map[string]*string {
	data := make(map[string]*string, len(fields))
	for i, f := range fields {
		if i >= len(inputs) {
			break
		}
		v := strings.TrimSpace(inputs[i])
		if v == "" || v == "-" {
			data[f.Key] = nil
			continue
		}
		data[f.Key] = &v
	}
	return data
}

// fieldDate returns the date of the field with key, or the key itself.
func fieldDate(fields []client.EditorField, key string) string {
	for _, f := range fields {
		if f.Key == key {
			return f.Date
		}
	}
	return key
}

func init() {
	for _, c := range []*cobra.Command{valuesShowCmd, valuesSetCmd} {
		c.Flags().String("kind", "user", "object kind the values belong to")
		c.Flags().String("start", "", "first day (YYYY-MM-DD or the configured date format)")
	}
	valuesShowCmd.Flags().StringSlice("types", nil, "value type slugs to show, in order (default all)")
	valuesShowCmd.Flags().Int("days", 0, "number of days (default from server settings)")
	valuesSetCmd.Flags().String("type", "", "value type slug")
	_ = valuesSetCmd.MarkFlagRequired("type")

	valuesCmd.AddCommand(valuesShowCmd)
	valuesCmd.AddCommand(valuesSetCmd)
}
