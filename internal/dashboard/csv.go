package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var summaryHeader = []string{
	"Student ID", "Sessions", "Total Duration (min)", "Avg Duration (min)",
	"Total Messages", "Avg Messages", "Max Level", "Avg Level",
	"Engagement Score", "Grade", "Articles",
}

// WriteStudentCSV writes the per-student grading summary as CSV, one row per
// student, ready for gradebook import.
func WriteStudentCSV(w io.Writer, summaries []StudentSummary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range summaries {
		row := []string{
			s.StudentID,
			strconv.Itoa(s.Sessions),
			formatFloat(s.TotalMinutes),
			formatFloat(s.AvgMinutes),
			strconv.Itoa(s.TotalMessages),
			formatFloat(s.AvgMessages),
			s.MaxLevelName,
			formatFloat(s.AvgLevel),
			formatFloat(s.EngagementScore),
			s.Grade,
			strings.Join(s.Articles, ", "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", s.StudentID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
