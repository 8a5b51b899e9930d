package dashboard

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary      = "Student Summary"
	sheetInteractions = "Detailed Interactions"
	sheetRubric       = "Grading Rubric"
)

// BuildWorkbook assembles the grading report: a per-student summary, the
// full interaction log, and the rubric the scores are graded against.
func BuildWorkbook(summaries []StudentSummary, interactions []Interaction) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, summaries); err != nil {
		return nil, err
	}
	if err := writeInteractionsSheet(f, interactions); err != nil {
		return nil, err
	}
	if err := writeRubricSheet(f); err != nil {
		return nil, err
	}

	// Drop the default sheet so the report opens on the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	return f, nil
}

func writeSummarySheet(f *excelize.File, summaries []StudentSummary) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := make([]interface{}, len(summaryHeader))
	for i, h := range summaryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetSummary, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(summaryHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", last, style); err != nil {
		return err
	}

	for i, s := range summaries {
		row := []interface{}{
			s.StudentID,
			s.Sessions,
			s.TotalMinutes,
			s.AvgMinutes,
			s.TotalMessages,
			s.AvgMessages,
			s.MaxLevelName,
			s.AvgLevel,
			s.EngagementScore,
			s.Grade,
			strings.Join(s.Articles, ", "),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return nil
}

func writeInteractionsSheet(f *excelize.File, interactions []Interaction) error {
	if _, err := f.NewSheet(sheetInteractions); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := []interface{}{
		"Session ID", "Student ID", "Article", "Week", "Date",
		"Duration (min)", "Student Messages", "Level Reached",
	}
	if err := f.SetSheetRow(sheetInteractions, "A1", &header); err != nil {
		return err
	}

	for i, it := range interactions {
		row := []interface{}{
			it.ConversationID,
			it.StudentID,
			it.ArticleTitle,
			it.WeekNumber,
			it.StartedAt.Format("2006-01-02 15:04"),
			it.DurationMinutes,
			it.StudentMessages,
			it.LevelName,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetInteractions, cell, &row); err != nil {
			return fmt.Errorf("failed to write interaction row %d: %w", i, err)
		}
	}
	return nil
}

func writeRubricSheet(f *excelize.File) error {
	if _, err := f.NewSheet(sheetRubric); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Landscape Ecology Tutor Interaction Rubric"},
		{},
		{"Criteria", "Description"},
		{"Depth of Analysis (20%)", "Critical thinking, original insights"},
		{"Concept Integration (15%)", "Connects multiple concepts"},
		{"Question Quality (15%)", "Probing, thoughtful questions"},
		{"Engagement Consistency (15%)", "Sustained participation"},
		{"Cognitive Progression (15%)", "Reaches higher thinking levels"},
		{"Spatial Reasoning (20%)", "GIS and spatial thinking skills"},
		{},
		{"Grade Scale:"},
		{"A: 90-100", "Excellent"},
		{"B: 80-89", "Good"},
		{"C: 70-79", "Satisfactory"},
		{"D: 60-69", "Needs Improvement"},
		{"F: Below 60", "Unsatisfactory"},
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := fmt.Sprintf("A%d", i+1)
		r := row
		if err := f.SetSheetRow(sheetRubric, cell, &r); err != nil {
			return fmt.Errorf("failed to write rubric row %d: %w", i, err)
		}
	}
	return nil
}
