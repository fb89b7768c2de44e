package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
)

func buildWorkbook(t *testing.T, rows [][2]interface{}) *bytes.Buffer {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	wb.SetCellValue(sheet, "A1", "Keyword")
	wb.SetCellValue(sheet, "D1", "Search Volume")
	wb.SetCellValue(sheet, "H1", "Traffic")

	for i, row := range rows {
		n := i + 2
		wb.SetCellValue(sheet, fmt.Sprintf("A%d", n), row[0])
		if vals, ok := row[1].([2]interface{}); ok {
			wb.SetCellValue(sheet, fmt.Sprintf("D%d", n), vals[0])
			wb.SetCellValue(sheet, fmt.Sprintf("H%d", n), vals[1])
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestReadExtractsConfiguredColumns(t *testing.T) {
	buf := buildWorkbook(t, [][2]interface{}{
		{"bofa checking", [2]interface{}{1200, 120}},
		{"wells fargo login", [2]interface{}{"1,500", 30}},
		{"chase sapphire", [2]interface{}{0, 0}},
	})

	r := NewReader(config.Default().Columns, nil)
	f, err := r.Read(buf, "march.xlsx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(f.Rows) != 3 {
		t.Fatalf("got %d rows, want 3 (header skipped): %+v", len(f.Rows), f.Rows)
	}
	if f.Rows[0].Label != "bofa checking" || f.Rows[0].Impressions != 1200 || f.Rows[0].Clicks != 120 {
		t.Fatalf("row 0 = %+v", f.Rows[0])
	}
	// Thousands separators parse.
	if f.Rows[1].Impressions != 1500 {
		t.Fatalf("row 1 impressions = %d, want 1500", f.Rows[1].Impressions)
	}
	if len(f.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", f.Warnings)
	}
}

func TestReadCoercesBadNumericCells(t *testing.T) {
	buf := buildWorkbook(t, [][2]interface{}{
		{"good row", [2]interface{}{100, 10}},
		{"bad row", [2]interface{}{"n/a", "oops"}},
	})

	r := NewReader(config.Default().Columns, nil)
	f, err := r.Read(buf, "f.xlsx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(f.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(f.Rows))
	}
	bad := f.Rows[1]
	if bad.Impressions != 0 || bad.Clicks != 0 {
		t.Fatalf("bad row should coerce to zero: %+v", bad)
	}
	if len(f.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", f.Warnings)
	}
}

func TestReadEmptyWorkbook(t *testing.T) {
	wb := excelize.NewFile()
	buf, err := wb.WriteToBuffer()
	wb.Close()
	if err != nil {
		t.Fatal(err)
	}

	r := NewReader(config.Default().Columns, nil)
	f, err := r.Read(buf, "empty.xlsx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(f.Rows) != 0 {
		t.Fatalf("rows = %+v, want none", f.Rows)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	r := NewReader(config.Default().Columns, nil)
	if _, err := r.Read(strings.NewReader("not an xlsx"), "bad.bin"); err == nil {
		t.Fatal("expected error for non-xlsx input")
	}
}
