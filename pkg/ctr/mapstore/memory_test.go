package mapstore

import (
	"context"
	"testing"
)

func TestMemstore(t *testing.T) {
	ctx := context.Background()
	s := NewMemstore()

	if _, ok, _ := s.Lookup(ctx, "chase"); ok {
		t.Fatal("empty store should miss")
	}

	if out, _ := s.Insert(ctx, "chase", "Chase"); out != OutcomeCreated {
		t.Fatalf("outcome = %v, want created", out)
	}
	if out, _ := s.Insert(ctx, "chase", "JPMorgan Chase"); out != OutcomeUpdated {
		t.Fatalf("outcome = %v, want updated", out)
	}

	name, ok, _ := s.Lookup(ctx, "chase")
	if !ok || name != "JPMorgan Chase" {
		t.Fatalf("Lookup = (%q, %v)", name, ok)
	}

	all, _ := s.All(ctx)
	if len(all) != 1 || all[0].Key != "chase" {
		t.Fatalf("All = %+v", all)
	}
}
