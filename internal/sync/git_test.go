package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// newClone creates a bare "origin" with one commit on main and returns a
// working clone of it.
func newClone(t *testing.T) (clone, origin string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	origin = t.TempDir()
	gitOut(t, origin, "init", "--bare", "--initial-branch=main")

	work := t.TempDir()
	gitOut(t, work, "clone", origin, "repo")
	clone = filepath.Join(work, "repo")
	gitOut(t, clone, "config", "user.email", "sync@invtrack.test")
	gitOut(t, clone, "config", "user.name", "invtrack sync")
	gitOut(t, clone, "symbolic-ref", "HEAD", "refs/heads/main")

	if err := os.WriteFile(filepath.Join(clone, "README"), []byte("exports\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitOut(t, clone, "add", "README")
	gitOut(t, clone, "commit", "-m", "init")
	gitOut(t, clone, "push", "origin", "main")
	return clone, origin
}

func gitOut(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func TestGitDestinationCommitsOnlyChanges(t *testing.T) {
	ctx := context.Background()
	clone, origin := newClone(t)
	dest := NewGitDestination(clone, "inventory.jsonl", "main")

	first := []byte(`{"type":"header","version":"1","inventory_count":0}` + "\n")
	second := []byte(`{"type":"header","version":"1","inventory_count":1}` + "\n")

	for i, data := range [][]byte{first, first, second} {
		if err := dest.Write(ctx, data); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	got, err := os.ReadFile(filepath.Join(clone, "inventory.jsonl"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(got) != string(second) {
		t.Errorf("export = %q, want %q", got, second)
	}

	// init + two distinct exports; the repeated write adds nothing.
	if n := gitOut(t, origin, "rev-list", "--count", "main"); n != "3" {
		t.Errorf("origin has %s commits, want 3", n)
	}
	if msg := gitOut(t, origin, "log", "-1", "--format=%s", "main"); msg != DefaultCommitMessage {
		t.Errorf("last commit message = %q, want %q", msg, DefaultCommitMessage)
	}
}

func TestGitDestinationNestedFile(t *testing.T) {
	clone, origin := newClone(t)
	dest := NewGitDestination(clone, "exports/nightly/inventory.jsonl", "main")
	dest.message = "nightly export"

	data := []byte(`{"type":"header"}` + "\n")
	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := gitOut(t, origin, "show", "main:exports/nightly/inventory.jsonl"); got+"\n" != string(data) {
		t.Errorf("pushed content = %q, want %q", got, data)
	}
	if msg := gitOut(t, origin, "log", "-1", "--format=%s", "main"); msg != "nightly export" {
		t.Errorf("commit message = %q", msg)
	}
}

func TestGitDestinationErrorCarriesOutput(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	dest := NewGitDestination(t.TempDir(), "inventory.jsonl", "main")

	err := dest.Write(context.Background(), []byte("{}\n"))
	if err == nil {
		t.Fatal("expected error outside a git repository")
	}
	if !strings.HasPrefix(err.Error(), "git checkout") {
		t.Errorf("err = %q, want it to name the failing subcommand", err)
	}
}
