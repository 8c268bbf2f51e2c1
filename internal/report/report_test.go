package report

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/store"
)

func score(v float64) *float64 { return &v }

func completedRecord() *store.Record {
	return &store.Record{
		ID:           uuid.New(),
		UserID:       "user-1",
		Title:        "Q3 renewal call",
		CustomerName: "Acme Corp",
		CallType:     "renewal",
		CSMName:      "Jordan",
		Status:       store.StatusCompleted,
		CreatedAt:    time.Date(2026, 8, 12, 14, 30, 0, 0, time.UTC),
		Results: &analysis.Result{
			Summary: analysis.Summary{Text: "Strong renewal conversation.", Score: 4.2},
			RelationshipBuilding: analysis.Section{
				Score:     score(4),
				Strengths: []analysis.Entry{{Text: "Warm open", Timestamp: "75", Quote: "great to see you again"}},
			},
			ValueDemonstration: analysis.Section{
				Opportunities: []analysis.Entry{{Text: "Quantify ROI"}},
			},
			Top3Strengths: []analysis.Entry{{Text: "Listening"}},
			RolePlayingExamples: []analysis.RolePlayExample{
				{Text: "Budget pushback drill", CustomerRole: "CFO", ExampleScenarioPrompt: "You are a skeptical CFO."},
			},
		},
	}
}

func TestWorkbook(t *testing.T) {
	rec := completedRecord()

	f, err := Workbook(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != summarySheet || sheets[1] != detailSheet {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	cases := []struct {
		sheet, cell, want string
	}{
		{summarySheet, "A1", "Title"},
		{summarySheet, "B1", "Q3 renewal call"},
		{summarySheet, "B2", "Acme Corp"},
		{summarySheet, "B5", "2026-08-12 14:30"},
		{summarySheet, "B6", "4.2"},
		{summarySheet, "A10", "Relationship Building"},
		{summarySheet, "B10", "4"},
		{detailSheet, "A1", "Category"},
		{detailSheet, "C2", "Warm open"},
		{detailSheet, "D2", "1:15"},
		{detailSheet, "E2", "great to see you again"},
	}
	for _, tc := range cases {
		got, err := f.GetCellValue(tc.sheet, tc.cell)
		if err != nil {
			t.Fatalf("read %s!%s: %v", tc.sheet, tc.cell, err)
		}
		if got != tc.want {
			t.Errorf("%s!%s: expected %q, got %q", tc.sheet, tc.cell, tc.want, got)
		}
	}
}

func TestWorkbook_ScorelessCategoryShowsNA(t *testing.T) {
	rec := completedRecord()

	f, err := Workbook(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	// value_demonstration is row 12 in the category table and has no score
	got, err := f.GetCellValue(summarySheet, "B12")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "N/A" {
		t.Errorf("expected N/A for scoreless category, got %q", got)
	}
}

func TestWorkbook_RolePlayExampleRow(t *testing.T) {
	rec := completedRecord()

	f, err := Workbook(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(detailSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}

	found := false
	for _, row := range rows {
		if len(row) < 3 || row[0] != "Role Playing" || row[1] != "Example" || row[2] != "Budget pushback drill" {
			continue
		}
		found = true
		if len(row) < 7 || row[5] != "CFO" || row[6] != "You are a skeptical CFO." {
			t.Errorf("expected customer role and scenario columns, got %v", row)
		}
	}
	if !found {
		t.Error("expected role play example row in detail sheet")
	}
}

func TestWorkbook_NoResults(t *testing.T) {
	rec := completedRecord()
	rec.Results = nil

	if _, err := Workbook(rec); err == nil {
		t.Fatal("expected error for record without results")
	}
}
