package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/inventory"
	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
	"github.com/alfredjeanlab/invtrack/internal/ui"
)

// Exit codes.
const (
	exitError     = 1
	exitInput     = 2
	exitForbidden = 3
	exitNotFound  = 4
	exitConflict  = 5
)

// errInvalidID reports a failed `id validate` through the exit code.
var errInvalidID = errors.New("id does not match the inventory's format")

func exitCode(err error) int {
	var inputErr inventory.InputError
	switch {
	case errors.As(err, &inputErr), errors.Is(err, errInvalidID):
		return exitInput
	case errors.Is(err, inventory.ErrForbidden):
		return exitForbidden
	case errors.Is(err, store.ErrNotFound):
		return exitNotFound
	case errors.Is(err, store.ErrVersionConflict), errors.Is(err, inventory.ErrIDGenerationFailed),
		errors.Is(err, idformat.ErrSequenceExhausted):
		return exitConflict
	}
	return exitError
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printInventory(w io.Writer, inv *model.Inventory) {
	fmt.Fprintf(w, "ID:          %s\n", inv.ID)
	fmt.Fprintf(w, "Title:       %s\n", inv.Title)
	fmt.Fprintf(w, "Category:    %s\n", inv.Category)
	fmt.Fprintf(w, "Owner:       %s\n", inv.OwnerID)
	fmt.Fprintf(w, "Public:      %t\n", inv.IsPublic)
	if inv.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", inv.Description)
	}
	if len(inv.Fields) > 0 {
		names := make([]string, len(inv.Fields))
		for i, f := range inv.Fields {
			names[i] = fmt.Sprintf("%s (%s)", f.Title, f.Slot)
		}
		fmt.Fprintf(w, "Fields:      %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "ID format:   %s\n", string(inv.IDFormat))
	fmt.Fprintf(w, "Format hash: %s\n", ui.RenderMuted(inv.IDFormatHash))
	fmt.Fprintf(w, "Version:     %d\n", inv.Version)
	if !inv.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", inv.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printInventoryList(w io.Writer, invs []*model.Inventory, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tOWNER\tPUBLIC\tTITLE")
	for _, inv := range invs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", inv.ID, inv.Category, inv.OwnerID, inv.IsPublic, truncate(inv.Title, 50))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d inventories (%d total)\n", len(invs), total)
}

func printItem(w io.Writer, item *model.Item, defs []model.FieldDef) {
	fmt.Fprintf(w, "ID:          %s\n", item.ID)
	fmt.Fprintf(w, "Custom ID:   %s\n", ui.RenderCustomID(item.CustomID, item.CustomIDBoundaries))
	fmt.Fprintf(w, "Inventory:   %s\n", item.InventoryID)
	values := model.ItemFields(item, defs)
	for _, def := range defs {
		if v, ok := values[def.Slot]; ok {
			fmt.Fprintf(w, "%-12s %v\n", def.Title+":", v)
		}
	}
	fmt.Fprintf(w, "Version:     %d\n", item.Version)
	if item.CreatedBy != "" {
		fmt.Fprintf(w, "Created By:  %s\n", item.CreatedBy)
	}
}

func printItemList(w io.Writer, items []*model.Item, total int, stale func(*model.Item) bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOM ID\tVERSION\tSTALE")
	for _, it := range items {
		mark := ""
		if stale(it) {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, it.CustomID, it.Version, mark)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d items (%d total)\n", len(items), total)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
