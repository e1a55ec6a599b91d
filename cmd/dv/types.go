package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/datedvalues/internal/client"
)

var typesCmd = &cobra.Command{
	Use:     "types",
	Short:   "Manage value types",
	GroupID: "values",
}

var typesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List value types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		types, err := dvClient.ListTypes(context.Background(), &client.ListTypesRequest{ObjectKind: kind})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(types)
		}
		if len(types) == 0 {
			fmt.Println("No value types.")
			return nil
		}
		printTypeTable(os.Stdout, types)
		return nil
	},
}

var typesAddCmd = &cobra.Command{
	Use:   "add <slug> <name>",
	Short: "Create a value type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		vt, err := dvClient.CreateType(context.Background(), &client.CreateTypeRequest{
			Slug:       args[0],
			Name:       args[1],
			ObjectKind: kind,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(vt)
		}
		fmt.Printf("Created value type %d (%s)\n", vt.ID, vt.Slug)
		return nil
	},
}

var typesRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a value type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		vt, err := dvClient.UpdateType(context.Background(), id, &client.UpdateTypeRequest{Name: &args[1]})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(vt)
		}
		fmt.Printf("Renamed value type %d to %q\n", vt.ID, vt.Name)
		return nil
	},
}

var typesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a value type and all of its values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := dvClient.DeleteType(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted value type %d\n", id)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func init() {
	typesListCmd.Flags().String("kind", "", "only types for this object kind")
	typesAddCmd.Flags().String("kind", "user", "object kind the type applies to")

	typesCmd.AddCommand(typesListCmd)
	typesCmd.AddCommand(typesAddCmd)
	typesCmd.AddCommand(typesRenameCmd)
	typesCmd.AddCommand(typesRmCmd)
}
