// Package export renders metrics reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/metrics"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	PhasesSheet  = "Phases"
)

var phaseHeader = []string{"Order", "Phase", "Status", "Total tasks", "Completed tasks", "Completion %"}

// WriteMetricsXLSX writes report as an XLSX workbook with a summary sheet
// and one row per phase.
func WriteMetricsXLSX(w io.Writer, report *metrics.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if err := writeSummary(f, report); err != nil {
		return err
	}

	if _, err := f.NewSheet(PhasesSheet); err != nil {
		return fmt.Errorf("adding phases sheet: %w", err)
	}
	if err := writePhases(f, report.Phases); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func summaryRows(r *metrics.Report) [][]any {
	rows := [][]any{
		{"Project", r.ProjectName},
		{"Project ID", r.ProjectID.String()},
		{"Health", string(r.Health)},
		{"Generated at", r.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total tasks", r.TotalTasks},
		{"Completed tasks", r.CompletedTasks},
		{"In progress tasks", r.InProgressTasks},
		{"Blocked tasks", r.BlockedTasks},
		{"Overdue tasks", r.OverdueTasks},
		{"Task completion %", r.TaskCompletionRate},
		{"Overdue %", r.OverdueRate},
		{"Total budget", r.TotalBudget},
		{"Spent budget", r.SpentBudget},
		{"Approved budget", r.ApprovedBudget},
		{"Remaining budget", r.RemainingBudget},
		{"Budget utilization %", r.BudgetUtilization},
		{"Estimated hours", r.EstimatedHours},
		{"Actual hours", r.ActualHours},
		{"Schedule performance %", r.SchedulePerformance},
	}
	if p := r.PQG; p != nil {
		rows = append(rows,
			[]any{"PQG priority", deref(p.Priority)},
			[]any{"PQG program", deref(p.Program)},
			[]any{"PQG implementing unit", deref(p.ImplementingUnit)},
			[]any{"PQG intervention area", deref(p.InterventionArea)},
			[]any{"PQG location", deref(p.Location)},
		)
		for _, ind := range p.Indicators {
			rows = append(rows, []any{"PQG indicator", ind})
		}
	}
	return rows
}

func writeSummary(f *excelize.File, r *metrics.Report) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	rows := summaryRows(r)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(1, len(rows))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "A", 28)
}

func writePhases(f *excelize.File, phases []metrics.PhaseProgress) error {
	for i, h := range phaseHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(PhasesSheet, cell, h); err != nil {
			return err
		}
	}

	for i, p := range phases {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Order, p.Name, string(p.Status), p.TotalTasks, p.CompletedTasks, p.CompletionRate}
		if err := f.SetSheetRow(PhasesSheet, cell, &row); err != nil {
			return fmt.Errorf("writing phase %q: %w", p.Name, err)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
