// Package ingest reads tabular click/impression data from xlsx
// workbooks. Only the first sheet is consumed; column positions come
// from configuration.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
)

// Row is one raw input row before resolution.
type Row struct {
	Label       string
	Impressions int64
	Clicks      int64
}

// File is the parsed content of one workbook.
type File struct {
	Name     string
	Rows     []Row
	Warnings []string
}

// Reader parses workbooks with a fixed column layout.
type Reader struct {
	cols config.Columns
	log  *slog.Logger
}

// NewReader creates a reader for the configured column layout.
func NewReader(cols config.Columns, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{cols: cols, log: log}
}

// ReadFile parses the workbook at path.
func (r *Reader) ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Read(f, filepath.Base(path))
}

// Read parses a workbook from an arbitrary reader. Row-level problems
// never fail the file: unparseable numeric cells coerce to zero and
// are reported as warnings, a leading header row is skipped.
func (r *Reader) Read(src io.Reader, name string) (*File, error) {
	wb, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", name)
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	out := &File{Name: name}
	for i, cells := range rows {
		label := strings.TrimSpace(cell(cells, r.cols.Label))
		impRaw := cell(cells, r.cols.Impressions)
		clkRaw := cell(cells, r.cols.Clicks)

		if label == "" && strings.TrimSpace(impRaw) == "" && strings.TrimSpace(clkRaw) == "" {
			continue
		}

		imp, impOK := parseCount(impRaw)
		clk, clkOK := parseCount(clkRaw)

		// A leading row whose numeric columns hold text is the header.
		if len(out.Rows) == 0 && !impOK && !clkOK {
			continue
		}

		if !impOK || !clkOK {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("%s row %d: non-numeric counts coerced to zero", name, i+1))
		}

		out.Rows = append(out.Rows, Row{Label: label, Impressions: imp, Clicks: clk})
	}

	r.log.Info("workbook parsed", "file", name, "rows", len(out.Rows), "warnings", len(out.Warnings))
	return out, nil
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// parseCount parses a count cell tolerantly: thousands separators and
// spaces are stripped, decimals are rounded. An empty cell is zero.
func parseCount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	s = strings.NewReplacer(",", "", " ", "", " ", "").Replace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int64(math.Round(v)), true
}
