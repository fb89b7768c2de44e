package ctr

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/classify"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/internalerr"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/resolve"
)

type labeledRow struct {
	label       string
	impressions interface{}
	clicks      interface{}
}

func workbook(t *testing.T, rows []labeledRow) *bytes.Buffer {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	wb.SetCellValue(sheet, "A1", "Keyword")
	wb.SetCellValue(sheet, "D1", "Search Volume")
	wb.SetCellValue(sheet, "H1", "Traffic")
	for i, row := range rows {
		n := i + 2
		wb.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.label)
		wb.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.impressions)
		wb.SetCellValue(sheet, fmt.Sprintf("H%d", n), row.clicks)
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func noClassifier(t *testing.T) classify.Classifier {
	t.Helper()
	return classify.Func(func(ctx context.Context, label string) (string, error) {
		t.Fatalf("unexpected remote classification for %q", label)
		return "", nil
	})
}

func TestProcessReaders(t *testing.T) {
	cfg := config.Default()
	store := mapstore.NewMemstore()
	p := New(cfg, store, noClassifier(t), nil)

	march := workbook(t, []labeledRow{
		{"bofa checking account", 100, 10},
		{"bank of america login", 50, 5},
		{"wells fargo mortgage", 200, 8},
	})
	april := workbook(t, []labeledRow{
		{"bofa checking account", 40, 4},
	})

	res, err := p.ProcessReaders(context.Background(), []Input{
		{Name: "march.xlsx", Src: march},
		{Name: "april.xlsx", Src: april},
	})
	if err != nil {
		t.Fatalf("ProcessReaders: %v", err)
	}

	if res.RunID == "" {
		t.Fatal("run ID missing")
	}
	if res.Rows != 4 {
		t.Fatalf("rows = %d, want 4", res.Rows)
	}

	if len(res.Companies) != 2 {
		t.Fatalf("companies = %+v, want Bank of America and Wells Fargo", res.Companies)
	}
	bofa := res.Companies[0]
	if bofa.Company != "Bank of America" || bofa.Impressions != 190 || bofa.Clicks != 19 {
		t.Fatalf("Bank of America = %+v", bofa)
	}
	if !bofa.CTRValid || bofa.CTR != 0.1 {
		t.Fatalf("Bank of America CTR = %v", bofa.CTR)
	}

	if res.Totals.Impressions != 390 || res.Totals.Clicks != 27 {
		t.Fatalf("totals = %+v", res.Totals)
	}

	if len(res.Monthly) != 2 {
		t.Fatalf("monthly = %+v", res.Monthly)
	}
	if res.Monthly[0].File != "march.xlsx" || res.Monthly[0].Company != "Bank of America" {
		t.Fatalf("march rollup = %+v", res.Monthly[0])
	}

	// Repeat of an indicator-learned key comes back from the cache.
	if res.Resolved[resolve.SourceIndicator] != 3 || res.Resolved[resolve.SourceCache] != 1 {
		t.Fatalf("resolved = %+v", res.Resolved)
	}

	// The run learned the mappings.
	if n, _ := store.Len(context.Background()); n != 3 {
		t.Fatalf("store len = %d, want 3 learned keys", n)
	}
}

func TestProcessReadersSkipsBadFiles(t *testing.T) {
	cfg := config.Default()
	p := New(cfg, mapstore.NewMemstore(), noClassifier(t), nil)

	good := workbook(t, []labeledRow{{"chase sapphire", 10, 1}})
	res, err := p.ProcessReaders(context.Background(), []Input{
		{Name: "bad.xlsx", Src: strings.NewReader("not a workbook")},
		{Name: "good.xlsx", Src: good},
	})
	if err != nil {
		t.Fatalf("one good file should carry the run: %v", err)
	}
	if res.Rows != 1 {
		t.Fatalf("rows = %d, want 1", res.Rows)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("skipped file must surface as a warning")
	}
}

func TestProcessReadersNoInput(t *testing.T) {
	p := New(config.Default(), mapstore.NewMemstore(), noClassifier(t), nil)

	_, err := p.ProcessReaders(context.Background(), []Input{
		{Name: "bad.xlsx", Src: strings.NewReader("junk")},
	})
	if err == nil || !strings.Contains(err.Error(), internalerr.ErrNoInput.Error()) {
		t.Fatalf("err = %v, want ErrNoInput", err)
	}
}

func TestProcessReadersUsesClassifierOnce(t *testing.T) {
	cfg := config.Default()
	store := mapstore.NewMemstore()

	calls := 0
	cls := classify.Func(func(ctx context.Context, label string) (string, error) {
		calls++
		return "Acme Corp", nil
	})
	p := New(cfg, store, cls, nil)

	wb := workbook(t, []labeledRow{
		{"acme widgets", 10, 1},
		{"acme widgets", 20, 2},
	})
	res, err := p.ProcessReaders(context.Background(), []Input{{Name: "f.xlsx", Src: wb}})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("classifier called %d times, want 1", calls)
	}
	if res.Resolved[resolve.SourceModel] != 1 || res.Resolved[resolve.SourceCache] != 1 {
		t.Fatalf("resolved = %+v", res.Resolved)
	}

	// A later run through the same processor hits the learned table.
	wb2 := workbook(t, []labeledRow{{"acme widgets", 5, 1}})
	res2, err := p.ProcessReaders(context.Background(), []Input{{Name: "g.xlsx", Src: wb2}})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("second run re-classified: %d calls", calls)
	}
	if res2.Resolved[resolve.SourceCache] != 1 {
		t.Fatalf("second run resolved = %+v", res2.Resolved)
	}
}

func TestResolveLabel(t *testing.T) {
	p := New(config.Default(), mapstore.NewMemstore(), noClassifier(t), nil)

	res := p.ResolveLabel(context.Background(), "wells fargo checking")
	if res.Company != "Wells Fargo" || res.Source != resolve.SourceIndicator {
		t.Fatalf("resolution = %+v", res)
	}

	res = p.ResolveLabel(context.Background(), "wells fargo checking")
	if res.Source != resolve.SourceCache {
		t.Fatalf("second resolution = %+v, want cache hit", res)
	}
}
