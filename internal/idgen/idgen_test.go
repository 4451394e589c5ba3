package idgen

import (
	"regexp"
	"testing"
)

func TestEntityIDs(t *testing.T) {
	for _, tc := range []struct {
		name   string
		gen    func() (string, error)
		prefix string
	}{
		{"inventory", Inventory, InventoryPrefix},
		{"item", Item, ItemPrefix},
	} {
		pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(tc.prefix) + `[a-z0-9]{12}$`)
		for i := 0; i < 50; i++ {
			id, err := tc.gen()
			if err != nil {
				t.Fatalf("%s: error on iteration %d: %v", tc.name, i, err)
			}
			if !pattern.MatchString(id) {
				t.Fatalf("%s: id %q does not match %s", tc.name, id, pattern)
			}
		}
	}
}

func TestWithPrefix_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := WithPrefix("x-")
		if err != nil {
			t.Fatalf("WithPrefix() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestWithPrefix_Length(t *testing.T) {
	prefix := "test-"
	id, err := WithPrefix(prefix)
	if err != nil {
		t.Fatalf("WithPrefix(%q) error: %v", prefix, err)
	}
	if id[:len(prefix)] != prefix {
		t.Errorf("WithPrefix(%q) = %q, want prefix %q", prefix, id, prefix)
	}
	if wantLen := len(prefix) + Length; len(id) != wantLen {
		t.Errorf("WithPrefix(%q) length = %d, want %d (id=%q)", prefix, len(id), wantLen, id)
	}
}
