// Package aggregate groups resolved rows by company and computes CTR.
package aggregate

import "sort"

// Row is one resolved input row. Company is the already-canonical
// name; grouping is exact string equality.
type Row struct {
	Company     string
	Impressions int64
	Clicks      int64
}

// CompanyStat is the per-company aggregate. CTRValid is false when the
// group has zero impressions: CTR is undefined there, not zero.
type CompanyStat struct {
	Company     string
	Impressions int64
	Clicks      int64
	CTR         float64
	CTRValid    bool
}

// Monthly is the per-source-file rollup.
type Monthly struct {
	File        string
	Company     string
	Impressions int64
	Clicks      int64
}

// Aggregate groups rows by company, sums impressions and clicks, and
// derives CTR. Negative counts are a caller contract violation and are
// clamped to zero. Output is sorted by company name so repeated runs
// diff cleanly.
func Aggregate(rows []Row) []CompanyStat {
	groups := make(map[string]*CompanyStat)
	for _, row := range rows {
		st, ok := groups[row.Company]
		if !ok {
			st = &CompanyStat{Company: row.Company}
			groups[row.Company] = st
		}
		st.Impressions += clamp(row.Impressions)
		st.Clicks += clamp(row.Clicks)
	}

	out := make([]CompanyStat, 0, len(groups))
	for _, st := range groups {
		st.CTR, st.CTRValid = ctr(st.Clicks, st.Impressions)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out
}

// Totals sums already-aggregated stats into one overall row.
func Totals(stats []CompanyStat) CompanyStat {
	total := CompanyStat{Company: "Total"}
	for _, st := range stats {
		total.Impressions += st.Impressions
		total.Clicks += st.Clicks
	}
	total.CTR, total.CTRValid = ctr(total.Clicks, total.Impressions)
	return total
}

// Rollup builds the monthly summary for one source file. The file is
// attributed to the company resolved for the plurality of its rows
// (ties break by name); counts are summed across all rows.
func Rollup(file string, rows []Row) Monthly {
	m := Monthly{File: file}
	counts := make(map[string]int)
	for _, row := range rows {
		m.Impressions += clamp(row.Impressions)
		m.Clicks += clamp(row.Clicks)
		counts[row.Company]++
	}

	best := ""
	bestN := 0
	for company, n := range counts {
		if n > bestN || (n == bestN && company < best) {
			best = company
			bestN = n
		}
	}
	m.Company = best
	return m
}

func ctr(clicks, impressions int64) (float64, bool) {
	if impressions == 0 {
		return 0, false
	}
	return float64(clicks) / float64(impressions), true
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
