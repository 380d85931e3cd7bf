package driver

import (
	"strings"
	"testing"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

func TestNameFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind ResourceKind
		id   string
		want string
	}{
		{
			name: "clean uuid keeps identity",
			kind: KindShare,
			id:   "5aeeba64-4bf1-42b2-9bd1-0f381986a66e",
			want: "share-5aeeba64-4bf1-42b2-9bd1-0f381986a66e",
		},
		{
			name: "group kind uses its own namespace",
			kind: KindShareGroup,
			id:   "5aeeba64-4bf1-42b2-9bd1-0f381986a66e",
			want: "group-5aeeba64-4bf1-42b2-9bd1-0f381986a66e",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NameFor(tt.kind, tt.id)
			if err != nil {
				t.Fatalf("NameFor returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NameFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNameFor_Stability(t *testing.T) {
	t.Parallel()

	ids := []string{
		"5aeeba64-4bf1-42b2-9bd1-0f381986a66e",
		"Share With Spaces",
		"UPPER_case.id",
		strings.Repeat("a", 200),
	}
	for _, id := range ids {
		first, err := NameFor(KindShare, id)
		if err != nil {
			t.Fatalf("NameFor(%q): %v", id, err)
		}
		second, err := NameFor(KindShare, id)
		if err != nil {
			t.Fatalf("NameFor(%q) second call: %v", id, err)
		}
		if first != second {
			t.Errorf("NameFor(%q) not stable: %q vs %q", id, first, second)
		}
	}
}

func TestNameFor_Constraints(t *testing.T) {
	t.Parallel()

	ids := []string{
		"Share With Spaces",
		"UPPER_case.id",
		strings.Repeat("x", 500),
		"dots.and/slashes\\everywhere",
	}
	for _, id := range ids {
		name, err := NameFor(KindShare, id)
		if err != nil {
			t.Fatalf("NameFor(%q): %v", id, err)
		}
		if len(name) > maxArrayNameLength {
			t.Errorf("NameFor(%q) = %q exceeds %d chars", id, name, maxArrayNameLength)
		}
		for _, r := range name {
			valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
			if !valid {
				t.Errorf("NameFor(%q) = %q contains invalid rune %q", id, name, r)
			}
		}
		if strings.HasSuffix(name, "-") || strings.HasPrefix(name, "-") {
			t.Errorf("NameFor(%q) = %q has dangling dash", id, name)
		}
	}
}

func TestNameFor_CollisionFree(t *testing.T) {
	t.Parallel()

	// Identifiers that would fold onto the same sanitized form must still
	// get distinct array names.
	pairs := [][2]string{
		{"share one", "share-one"},
		{"share_one", "share.one"},
		{"A", "a"},
		{strings.Repeat("a", 100) + "1", strings.Repeat("a", 100) + "2"},
	}
	for _, pair := range pairs {
		left, err := NameFor(KindShare, pair[0])
		if err != nil {
			t.Fatalf("NameFor(%q): %v", pair[0], err)
		}
		right, err := NameFor(KindShare, pair[1])
		if err != nil {
			t.Fatalf("NameFor(%q): %v", pair[1], err)
		}
		if left == right {
			t.Errorf("NameFor collision: %q and %q both map to %q", pair[0], pair[1], left)
		}
	}
}

func TestNameFor_InvalidIdentifier(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "   ", "///", "..."} {
		_, err := NameFor(KindShare, id)
		if !errors.IsCode(err, errors.ErrCodeInvalidIdentifier) {
			t.Errorf("NameFor(%q) = %v, want INVALID_IDENTIFIER", id, err)
		}
	}
}

func TestSnapshotSuffix(t *testing.T) {
	t.Parallel()

	suffix, err := SnapshotSuffix("snap-0001")
	if err != nil {
		t.Fatalf("SnapshotSuffix: %v", err)
	}
	if suffix != "snap-0001" {
		t.Errorf("SnapshotSuffix = %q", suffix)
	}

	messy, err := SnapshotSuffix("Snap 0001")
	if err != nil {
		t.Fatalf("SnapshotSuffix: %v", err)
	}
	if messy == "snap-0001" {
		t.Error("distinct snapshot ids folded onto the same suffix")
	}

	if _, err := SnapshotSuffix(""); !errors.IsCode(err, errors.ErrCodeInvalidIdentifier) {
		t.Errorf("empty suffix should be INVALID_IDENTIFIER, got %v", err)
	}
}
