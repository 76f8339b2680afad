package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "genset-cloud/internal/analytics/domain"
)

// BuildUsagePDF renders a usage report: session statistics, daily runtime,
// and per-parameter aggregates.
func BuildUsagePDF(deviceID string, from, to time.Time, stats analytics.SessionStats, days []analytics.ActivityDay, summaries []analytics.ParameterSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Generator Usage Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Device: %s", deviceID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Window: %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Total Runtime (h): %.2f", stats.TotalHours))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Daily Average (h): %.2f", stats.DailyAverage))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Longest Session (h): %.2f", stats.LongestSessionHours))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Days Active: %d", stats.DaysActive))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Runtime (h)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, day := range days {
		pdf.CellFormat(60, 6, day.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, fmt.Sprintf("%.2f", day.Hours), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Parameter", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Avg", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range summaries {
		pdf.CellFormat(35, 6, s.Parameter, "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", s.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", s.Max), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", s.Avg), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildUsageXLSX renders the same usage report as a workbook.
func BuildUsageXLSX(deviceID string, from, to time.Time, stats analytics.SessionStats, days []analytics.ActivityDay, summaries []analytics.ParameterSummary) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	activitySheet := "activity"
	paramsSheet := "parameters"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(activitySheet)
	f.NewSheet(paramsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Generator Usage Report")
	_ = f.SetCellValue(summarySheet, "A3", "Device")
	_ = f.SetCellValue(summarySheet, "B3", deviceID)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	_ = f.SetCellValue(summarySheet, "B4", from.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "To")
	_ = f.SetCellValue(summarySheet, "B5", to.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Total Runtime (h)")
	_ = f.SetCellValue(summarySheet, "B6", stats.TotalHours)
	_ = f.SetCellValue(summarySheet, "A7", "Daily Average (h)")
	_ = f.SetCellValue(summarySheet, "B7", stats.DailyAverage)
	_ = f.SetCellValue(summarySheet, "A8", "Longest Session (h)")
	_ = f.SetCellValue(summarySheet, "B8", stats.LongestSessionHours)
	_ = f.SetCellValue(summarySheet, "A9", "Days Active")
	_ = f.SetCellValue(summarySheet, "B9", stats.DaysActive)

	_ = f.SetCellValue(activitySheet, "A1", "Day")
	_ = f.SetCellValue(activitySheet, "B1", "Runtime (h)")
	for i, day := range days {
		row := i + 2
		_ = f.SetCellValue(activitySheet, fmt.Sprintf("A%d", row), day.Date)
		_ = f.SetCellValue(activitySheet, fmt.Sprintf("B%d", row), day.Hours)
	}

	_ = f.SetCellValue(paramsSheet, "A1", "Parameter")
	_ = f.SetCellValue(paramsSheet, "B1", "Min")
	_ = f.SetCellValue(paramsSheet, "C1", "Max")
	_ = f.SetCellValue(paramsSheet, "D1", "Avg")
	_ = f.SetCellValue(paramsSheet, "E1", "Latest")
	for i, s := range summaries {
		row := i + 2
		_ = f.SetCellValue(paramsSheet, fmt.Sprintf("A%d", row), s.Parameter)
		_ = f.SetCellValue(paramsSheet, fmt.Sprintf("B%d", row), s.Min)
		_ = f.SetCellValue(paramsSheet, fmt.Sprintf("C%d", row), s.Max)
		_ = f.SetCellValue(paramsSheet, fmt.Sprintf("D%d", row), s.Avg)
		_ = f.SetCellValue(paramsSheet, fmt.Sprintf("E%d", row), s.Latest)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
