// Package report renders the aggregated run into a two-sheet xlsx
// workbook: a company summary with totals and a per-file monthly
// summary.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/aggregate"
)

const (
	companySheet = "Company Summary"
	monthlySheet = "Monthly Summary"

	// undefinedCTR marks groups with zero impressions. A numeric zero
	// would wrongly read as "no clicks per impression".
	undefinedCTR = "n/a"
)

// Build renders company stats and monthly rollups into a workbook.
func Build(stats []aggregate.CompanyStat, monthly []aggregate.Monthly) (*excelize.File, error) {
	wb := excelize.NewFile()

	if err := buildCompanySheet(wb, stats); err != nil {
		wb.Close()
		return nil, err
	}
	if err := buildMonthlySheet(wb, monthly); err != nil {
		wb.Close()
		return nil, err
	}

	// Drop the default sheet and make the summary first.
	if err := wb.DeleteSheet(wb.GetSheetName(0)); err != nil {
		wb.Close()
		return nil, err
	}
	idx, err := wb.GetSheetIndex(companySheet)
	if err != nil {
		wb.Close()
		return nil, err
	}
	wb.SetActiveSheet(idx)

	return wb, nil
}

// WriteTo builds the workbook and streams it to w.
func WriteTo(w io.Writer, stats []aggregate.CompanyStat, monthly []aggregate.Monthly) error {
	wb, err := Build(stats, monthly)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.Write(w)
}

// SaveAs builds the workbook and writes it to path.
func SaveAs(path string, stats []aggregate.CompanyStat, monthly []aggregate.Monthly) error {
	wb, err := Build(stats, monthly)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.SaveAs(path)
}

func buildCompanySheet(wb *excelize.File, stats []aggregate.CompanyStat) error {
	if _, err := wb.NewSheet(companySheet); err != nil {
		return err
	}

	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := []interface{}{"Company", "Total Search Volume", "Total Traffic", "CTR"}
	if err := wb.SetSheetRow(companySheet, "A1", &header); err != nil {
		return err
	}
	if err := wb.SetCellStyle(companySheet, "A1", "D1", bold); err != nil {
		return err
	}

	row := 2
	for _, st := range stats {
		cells := []interface{}{st.Company, st.Impressions, st.Clicks, ctrCell(st)}
		if err := wb.SetSheetRow(companySheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		row++
	}

	total := aggregate.Totals(stats)
	cells := []interface{}{total.Company, total.Impressions, total.Clicks, ctrCell(total)}
	if err := wb.SetSheetRow(companySheet, fmt.Sprintf("A%d", row), &cells); err != nil {
		return err
	}
	return wb.SetCellStyle(companySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), bold)
}

func buildMonthlySheet(wb *excelize.File, monthly []aggregate.Monthly) error {
	if _, err := wb.NewSheet(monthlySheet); err != nil {
		return err
	}

	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := []interface{}{"File Name", "Company", "Monthly Search Volume", "Monthly Traffic"}
	if err := wb.SetSheetRow(monthlySheet, "A1", &header); err != nil {
		return err
	}
	if err := wb.SetCellStyle(monthlySheet, "A1", "D1", bold); err != nil {
		return err
	}

	for i, m := range monthly {
		cells := []interface{}{m.File, m.Company, m.Impressions, m.Clicks}
		if err := wb.SetSheetRow(monthlySheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return err
		}
	}
	return nil
}

func ctrCell(st aggregate.CompanyStat) interface{} {
	if !st.CTRValid {
		return undefinedCTR
	}
	return st.CTR
}
