package aggregate

import (
	"math"
	"testing"
)

func TestAggregate(t *testing.T) {
	rows := []Row{
		{Company: "A", Impressions: 100, Clicks: 10},
		{Company: "A", Impressions: 50, Clicks: 5},
		{Company: "B", Impressions: 0, Clicks: 0},
	}

	stats := Aggregate(rows)
	if len(stats) != 2 {
		t.Fatalf("got %d groups, want 2", len(stats))
	}

	a := stats[0]
	if a.Company != "A" || a.Impressions != 150 || a.Clicks != 15 {
		t.Fatalf("group A = %+v", a)
	}
	if !a.CTRValid || math.Abs(a.CTR-0.1) > 1e-12 {
		t.Fatalf("group A CTR = %v (valid=%v), want 0.1", a.CTR, a.CTRValid)
	}

	b := stats[1]
	if b.Company != "B" || b.Impressions != 0 || b.Clicks != 0 {
		t.Fatalf("group B = %+v", b)
	}
	if b.CTRValid {
		t.Fatal("zero-impression group must have undefined CTR, not a value")
	}
}

func TestAggregateClampsNegatives(t *testing.T) {
	stats := Aggregate([]Row{
		{Company: "A", Impressions: -5, Clicks: -1},
		{Company: "A", Impressions: 10, Clicks: 2},
	})
	if len(stats) != 1 {
		t.Fatalf("got %d groups", len(stats))
	}
	if stats[0].Impressions != 10 || stats[0].Clicks != 2 {
		t.Fatalf("negative values must clamp to zero: %+v", stats[0])
	}
}

func TestAggregateStableOrder(t *testing.T) {
	rows := []Row{
		{Company: "Zeta", Impressions: 1},
		{Company: "Alpha", Impressions: 1},
		{Company: "Mid", Impressions: 1},
	}
	stats := Aggregate(rows)
	want := []string{"Alpha", "Mid", "Zeta"}
	for i, st := range stats {
		if st.Company != want[i] {
			t.Fatalf("order = %v, want %v", stats, want)
		}
	}
}

func TestTotals(t *testing.T) {
	total := Totals(Aggregate([]Row{
		{Company: "A", Impressions: 100, Clicks: 10},
		{Company: "B", Impressions: 100, Clicks: 30},
	}))
	if total.Impressions != 200 || total.Clicks != 40 {
		t.Fatalf("totals = %+v", total)
	}
	if !total.CTRValid || math.Abs(total.CTR-0.2) > 1e-12 {
		t.Fatalf("total CTR = %v", total.CTR)
	}

	empty := Totals(nil)
	if empty.CTRValid {
		t.Fatal("empty totals must have undefined CTR")
	}
}

func TestRollupPlurality(t *testing.T) {
	m := Rollup("march.xlsx", []Row{
		{Company: "Chase", Impressions: 10, Clicks: 1},
		{Company: "Chase", Impressions: 20, Clicks: 2},
		{Company: "Unknown Company", Impressions: 5, Clicks: 0},
	})
	if m.File != "march.xlsx" || m.Company != "Chase" {
		t.Fatalf("rollup = %+v", m)
	}
	if m.Impressions != 35 || m.Clicks != 3 {
		t.Fatalf("rollup sums = %+v", m)
	}
}

func TestRollupTieBreaksByName(t *testing.T) {
	m := Rollup("f.xlsx", []Row{
		{Company: "Beta"},
		{Company: "Alpha"},
	})
	if m.Company != "Alpha" {
		t.Fatalf("tie should break by name, got %q", m.Company)
	}
}
