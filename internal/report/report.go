// Package report renders a completed analysis as an xlsx workbook for the
// dashboard's download action.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/store"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Coaching Detail"
)

// Workbook builds the export for one completed record.
func Workbook(rec *store.Record) (*excelize.File, error) {
	if rec.Results == nil {
		return nil, fmt.Errorf("analysis %s has no results to export", rec.ID)
	}
	res := rec.Results

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)

	rows := [][]any{
		{"Title", rec.Title},
		{"Customer", rec.CustomerName},
		{"Call Type", rec.CallType},
		{"CSM", rec.CSMName},
		{"Created", rec.CreatedAt.Format("2006-01-02 15:04")},
		{"Overall Score", res.Summary.Score},
		{"Summary", res.Summary.Text},
		{},
		{"Category", "Score"},
	}
	for _, cat := range res.Categories() {
		score := any("N/A")
		if cat.Section.Score != nil {
			score = *cat.Section.Score
		}
		rows = append(rows, []any{analysis.CategoryTitle(cat.Name), score})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, fmt.Errorf("create detail sheet: %w", err)
	}
	detail := [][]any{{"Category", "Kind", "Text", "Timestamp", "Quote", "Customer Role", "Scenario Prompt"}}
	for _, cat := range res.Categories() {
		title := analysis.CategoryTitle(cat.Name)
		detail = appendEntries(detail, title, "Strength", cat.Section.Strengths)
		detail = appendEntries(detail, title, "Opportunity", cat.Section.Opportunities)
	}
	detail = appendEntries(detail, "Overall", "Top Strength", res.Top3Strengths)
	detail = appendEntries(detail, "Overall", "Top Opportunity", res.Top3Opportunities)
	detail = appendEntries(detail, "Role Playing", "Focus", res.RolePlayingSummary)
	for _, ex := range res.RolePlayingExamples {
		detail = append(detail, []any{"Role Playing", "Example", ex.Text, "", "", ex.CustomerRole, ex.ExampleScenarioPrompt})
	}
	if err := writeRows(f, detailSheet, detail); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 80)
	_ = f.SetColWidth(detailSheet, "A", "B", 24)
	_ = f.SetColWidth(detailSheet, "C", "E", 60)
	_ = f.SetColWidth(detailSheet, "F", "F", 24)
	_ = f.SetColWidth(detailSheet, "G", "G", 60)

	return f, nil
}

func appendEntries(rows [][]any, category, kind string, entries []analysis.Entry) [][]any {
	for _, e := range entries {
		ts := ""
		if e.Timestamp != "" {
			ts = e.Timestamp.Display()
		}
		rows = append(rows, []any{category, kind, e.Text, ts, e.Quote})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}
