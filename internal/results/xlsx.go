package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
)

const (
	summarySheet   = "Summary"
	questionsSheet = "Questions"
	timeLayout     = "2006-01-02 15:04:05"
)

// WriteXLSX renders report as a workbook with a summary sheet and a
// per-question sheet.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	summary := [][]any{
		{"Test", report.TestTitle},
		{"Candidate", report.CandidateID},
		{"Submission", report.SubmissionID},
		{"Score", report.Score},
		{"Max score", report.MaxScore},
		{"Percentage", report.Percentage},
		{"Level", string(report.Level)},
		{"Duration (minutes)", report.DurationMinutes},
		{"Reason", report.Reason},
		{"Started at", formatTime(report.StartedAt.IsZero(), report.StartedAt.Format(timeLayout))},
		{"Ended at", formatTime(report.EndedAt.IsZero(), report.EndedAt.Format(timeLayout))},
		{"Answered", fmt.Sprintf("%d/%d", report.Answered, len(report.Items))},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	index, err := f.NewSheet(questionsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	rows := [][]any{{"#", "Question", "Kind", "Answer", "Correct answer", "Correct", "Points", "Awarded"}}
	for i, item := range report.Items {
		correct := "No"
		if item.Correct {
			correct = "Yes"
		}
		rows = append(rows, []any{
			i + 1,
			item.Prompt,
			string(item.Kind),
			answerText(item.Answer),
			strings.Join(item.CorrectAnswers, ", "),
			correct,
			item.Points,
			item.Awarded,
		})
	}
	if err := writeRows(f, questionsSheet, rows); err != nil {
		return err
	}
	f.SetActiveSheet(index)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func answerText(a assessment.Answer) string {
	switch v := a.(type) {
	case assessment.SingleAnswer:
		return string(v)
	case assessment.MultipleAnswer:
		return strings.Join(v, ", ")
	case assessment.TextAnswer:
		return string(v)
	}
	return ""
}

func formatTime(zero bool, s string) string {
	if zero {
		return ""
	}
	return s
}
