package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/idformat"
	"github.com/alfredjeanlab/invtrack/internal/inventory"
	"github.com/alfredjeanlab/invtrack/internal/model"
	"github.com/alfredjeanlab/invtrack/internal/store"
)

// runCLI executes the root command against an empty config directory and
// the in-memory store, returning stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("INVTRACK_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	for _, k := range []string{"INVTRACK_STORE", "INVTRACK_DATABASE_URL", "INVTRACK_NATS_URL", "INVTRACK_PROFILE", "INVTRACK_TRACING"} {
		t.Setenv(k, "")
	}
	t.Setenv("INVTRACK_ACTOR", "alice")

	jsonOutput, actor, noColor = false, "", true
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	closeAll(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormatCheck(t *testing.T) {
	path := writeFile(t, "format.json", `[
		{"type":"FixedText","value":"INV-"},
		{"type":"sequence","padding":3}
	]`)

	out, err := runCLI(t, "format", "check", path, "--json")
	if err != nil {
		t.Fatalf("format check: %v", err)
	}
	var report formatReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if report.Segments != 2 {
		t.Errorf("Segments = %d, want 2", report.Segments)
	}
	if report.Sample != "INV-001" {
		t.Errorf("Sample = %q, want INV-001", report.Sample)
	}
	if report.Hash == "" || !strings.HasPrefix(report.Pattern, "^") {
		t.Errorf("incomplete report: %+v", report)
	}
}

func TestFormatCheckMalformed(t *testing.T) {
	path := writeFile(t, "format.json", `{"type":"fixedText"}`)
	if _, err := runCLI(t, "format", "check", path); err == nil {
		t.Fatal("expected error for a non-array document")
	}
}

func TestInventoryCreateWithMemoryStore(t *testing.T) {
	format := writeFile(t, "format.json", `[{"type":"fixedText","value":"BK"},{"type":"sequence"}]`)

	out, err := runCLI(t, "inventory", "create", "Library", "--category", "book", "--format", format, "--json")
	if err != nil {
		t.Fatalf("inventory create: %v", err)
	}
	var inv model.Inventory
	if err := json.Unmarshal([]byte(out), &inv); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if inv.OwnerID != "alice" || inv.Category != model.CategoryBook {
		t.Errorf("inventory = %+v", inv)
	}
	if inv.IDFormatHash == "" {
		t.Error("format hash not set")
	}
}

func TestWantsStore(t *testing.T) {
	for _, tc := range []struct {
		name string
		cmd  *cobra.Command
		want bool
	}{
		{"format check", formatCheckCmd, false},
		{"format set", formatSetCmd, true},
		{"item create", itemCreateCmd, true},
		{"events watch", eventsWatchCmd, false},
		{"events log", eventsLogCmd, true},
		{"migrate", migrateCmd, false},
	} {
		if got := wantsStore(tc.cmd); got != tc.want {
			t.Errorf("wantsStore(%s) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{errors.New("boom"), exitError},
		{inventory.InputError("bad"), exitInput},
		{fmt.Errorf("wrapped: %w", inventory.InputError("bad")), exitInput},
		{errInvalidID, exitInput},
		{fmt.Errorf("x: %w", inventory.ErrForbidden), exitForbidden},
		{fmt.Errorf("item 1: %w", store.ErrNotFound), exitNotFound},
		{store.ErrVersionConflict, exitConflict},
		{inventory.ErrIDGenerationFailed, exitConflict},
		{fmt.Errorf("gen: %w", idformat.ErrSequenceExhausted), exitConflict},
	} {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRedact(t *testing.T) {
	for in, want := range map[string]string{
		"postgres://inv:secret@db:5432/invtrack": "postgres://inv:xxxxx@db:5432/invtrack",
		"postgres://db/invtrack":                 "postgres://db/invtrack",
		"":                                       "",
	} {
		if got := redact(in); got != want {
			t.Errorf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}
