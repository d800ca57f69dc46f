package randx

import (
	"strings"
	"testing"
)

func TestConnectionIDShape(t *testing.T) {
	id := ConnectionID()
	if !strings.HasPrefix(id, ConnectionIDPrefix) {
		t.Fatalf("ConnectionID() = %q, missing prefix %q", id, ConnectionIDPrefix)
	}
	raw := strings.TrimPrefix(id, ConnectionIDPrefix)
	if len(raw) != ConnectionIDRawLength {
		t.Fatalf("random part length = %d, want %d", len(raw), ConnectionIDRawLength)
	}
	for _, char := range raw {
		if !strings.ContainsRune(Base62Chars, char) {
			t.Fatalf("ConnectionID() contains non-base62 rune %q", char)
		}
	}
}

func TestConnectionIDsDiffer(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := ConnectionID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate connection id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTicketIDsAreDistinctUUIDs(t *testing.T) {
	first, second := TicketID(), TicketID()
	if first == second {
		t.Fatalf("TicketID() returned %q twice", first)
	}
	if len(first) != 36 || strings.Count(first, "-") != 4 {
		t.Fatalf("TicketID() = %q, want a UUID string", first)
	}
}
