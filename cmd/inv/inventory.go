package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/inventory"
	"github.com/alfredjeanlab/invtrack/internal/model"
)

var inventoryCmd = &cobra.Command{
	Use:         "inventory",
	Aliases:     []string{"inv"},
	Short:       "Create and inspect inventories",
	GroupID:     "data",
	Annotations: map[string]string{needsStore: ""},
}

var inventoryCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an inventory owned by the acting user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		public, _ := cmd.Flags().GetBool("public")
		formatFile, _ := cmd.Flags().GetString("format")
		fieldsFile, _ := cmd.Flags().GetString("fields")

		in := inventory.InventoryInput{
			Title:       args[0],
			Description: description,
			Category:    model.Category(category),
			IsPublic:    public,
		}
		if formatFile != "" {
			doc, err := readInput(formatFile)
			if err != nil {
				return err
			}
			in.IDFormat = doc
		}
		if fieldsFile != "" {
			data, err := readInput(fieldsFile)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &in.Fields); err != nil {
				return fmt.Errorf("parsing field definitions: %w", err)
			}
		}

		inv, err := svc.CreateInventory(cmd.Context(), actor, in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), inv)
		}
		printInventory(cmd.OutOrStdout(), inv)
		return nil
	},
}

var inventoryShowCmd = &cobra.Command{
	Use:   "show <inventory-id>",
	Short: "Show an inventory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := svc.GetInventory(cmd.Context(), actor, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), inv)
		}
		printInventory(cmd.OutOrStdout(), inv)
		return nil
	},
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		categories, _ := cmd.Flags().GetStringSlice("category")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := model.InventoryFilter{OwnerID: owner, Search: search, Limit: limit}
		for _, c := range categories {
			filter.Category = append(filter.Category, model.Category(c))
		}
		if cmd.Flags().Changed("public") {
			public, _ := cmd.Flags().GetBool("public")
			filter.Public = &public
		}

		invs, total, err := svc.ListInventories(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), invs)
		}
		printInventoryList(cmd.OutOrStdout(), invs, total)
		return nil
	},
}

var inventoryGrantCmd = &cobra.Command{
	Use:   "grant <inventory-id> <user> <read|write|owner>",
	Short: "Grant a user access to an inventory",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		grant, err := svc.GrantAccess(cmd.Context(), actor, args[0], args[1], model.AccessLevel(args[2]))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), grant)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Granted %s access on %s to %s\n", grant.Level, grant.InventoryID, grant.UserID)
		return nil
	},
}

var inventoryDeleteCmd = &cobra.Command{
	Use:   "delete <inventory-id>",
	Short: "Delete an inventory with its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := svc.DeleteInventory(cmd.Context(), actor, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted inventory %s\n", args[0])
		return nil
	},
}

func init() {
	inventoryCreateCmd.Flags().StringP("description", "d", "", "inventory description")
	inventoryCreateCmd.Flags().StringP("category", "c", string(model.CategoryOther), "category (equipment, furniture, book, document, other)")
	inventoryCreateCmd.Flags().Bool("public", false, "let every user add and edit items")
	inventoryCreateCmd.Flags().String("format", "", "id format document (file path or - for stdin)")
	inventoryCreateCmd.Flags().String("fields", "", "custom field definitions as a JSON array (file path or -)")

	inventoryListCmd.Flags().String("owner", "", "filter by owner")
	inventoryListCmd.Flags().StringSlice("category", nil, "filter by category (repeatable)")
	inventoryListCmd.Flags().Bool("public", false, "filter by visibility")
	inventoryListCmd.Flags().String("search", "", "substring match on title or description")
	inventoryListCmd.Flags().Int("limit", 50, "maximum number of results")

	inventoryCmd.AddCommand(inventoryCreateCmd, inventoryShowCmd, inventoryListCmd, inventoryGrantCmd, inventoryDeleteCmd)
}
