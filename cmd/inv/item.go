package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/inventory"
	"github.com/alfredjeanlab/invtrack/internal/model"
)

var itemCmd = &cobra.Command{
	Use:         "item",
	Short:       "Create, edit and list items",
	GroupID:     "data",
	Annotations: map[string]string{needsStore: ""},
}

var itemCreateCmd = &cobra.Command{
	Use:   "create <inventory-id>",
	Short: "Add an item; its custom id is generated from the inventory's format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := fieldsFlag(cmd)
		if err != nil {
			return err
		}
		item, err := svc.CreateItem(cmd.Context(), actor, args[0], inventory.ItemInput{Fields: fields})
		if err != nil {
			return err
		}
		return showItem(cmd, item)
	},
}

var itemUpdateCmd = &cobra.Command{
	Use:   "update <item-id>",
	Short: "Edit an item's fields or custom id",
	Long: `Edit an item's fields or custom id.

Without --custom-id, an item whose id was generated under an older format
receives a fresh id. A manual --custom-id must match the current format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := fieldsFlag(cmd)
		if err != nil {
			return err
		}
		in := inventory.ItemInput{Fields: fields}
		if cmd.Flags().Changed("custom-id") {
			customID, _ := cmd.Flags().GetString("custom-id")
			in.CustomID = &customID
		}
		expected, _ := cmd.Flags().GetInt64("version")

		item, err := svc.UpdateItem(cmd.Context(), actor, args[0], in, expected)
		if err != nil {
			return err
		}
		return showItem(cmd, item)
	},
}

var itemRegenerateCmd = &cobra.Command{
	Use:   "regenerate <item-id>",
	Short: "Assign a fresh custom id under the inventory's current format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := svc.RegenerateItemID(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}
		return showItem(cmd, item)
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show <item-id>",
	Short: "Show an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := svc.GetItem(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}
		return showItem(cmd, item)
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list <inventory-id>",
	Short: "List the items of an inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		staleOnly, _ := cmd.Flags().GetBool("stale")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")

		inv, err := svc.GetInventory(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}

		var (
			items []*model.Item
			total int
		)
		if staleOnly {
			items, total, err = svc.ListStaleItems(cmd.Context(), actor, inv.ID, limit, 0)
		} else {
			items, total, err = svc.ListItems(cmd.Context(), actor, model.ItemFilter{
				InventoryID: inv.ID,
				Search:      search,
				Sort:        sort,
				Limit:       limit,
			})
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), items)
		}
		printItemList(cmd.OutOrStdout(), items, total, func(it *model.Item) bool {
			return inventory.IsStale(inv, it)
		})
		return nil
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := svc.DeleteItem(cmd.Context(), actor, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[0])
		return nil
	},
}

// fieldsFlag reads --fields as a JSON object of slot values.
func fieldsFlag(cmd *cobra.Command) (json.RawMessage, error) {
	raw, _ := cmd.Flags().GetString("fields")
	if raw == "" {
		return nil, nil
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("--fields must be a JSON object, e.g. '{\"string1\":\"Desk\"}'")
	}
	return json.RawMessage(raw), nil
}

func showItem(cmd *cobra.Command, item *model.Item) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), item)
	}
	inv, err := svc.GetInventory(cmd.Context(), actor, item.InventoryID)
	if err != nil {
		return err
	}
	printItem(cmd.OutOrStdout(), item, inv.Fields)
	return nil
}

func init() {
	itemCreateCmd.Flags().String("fields", "", "field values as a JSON object keyed by slot")
	itemUpdateCmd.Flags().String("fields", "", "field values as a JSON object keyed by slot")
	itemUpdateCmd.Flags().String("custom-id", "", "set the custom id by hand")
	itemUpdateCmd.Flags().Int64("version", 0, "expected item version (0 = current)")

	itemListCmd.Flags().Bool("stale", false, "only items whose id predates the current format")
	itemListCmd.Flags().String("search", "", "substring match on custom id")
	itemListCmd.Flags().String("sort", "custom_id", "sort order (custom_id, created_at; prefix - for descending)")
	itemListCmd.Flags().Int("limit", 100, "maximum number of results")

	itemCmd.AddCommand(itemCreateCmd, itemUpdateCmd, itemRegenerateCmd, itemShowCmd, itemListCmd, itemDeleteCmd)
}
