package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/export"
	"github.com/dangerclosesec/agiletrack/internal/metrics"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteMetricsXLSX(t *testing.T) {
	program := "Rural water"
	report := &metrics.Report{
		ProjectID:          uuid.New(),
		ProjectName:        "Clean Water",
		TotalTasks:         4,
		CompletedTasks:     3,
		TaskCompletionRate: 75,
		BudgetUtilization:  120,
		Health:             metrics.HealthRed,
		GeneratedAt:        time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		Phases: []metrics.PhaseProgress{
			{Name: "Plan", Order: 1, Status: model.PhaseCompleted, TotalTasks: 2, CompletedTasks: 2, CompletionRate: 100},
			{Name: "Build", Order: 2, Status: model.PhaseInProgress, TotalTasks: 2, CompletedTasks: 1, CompletionRate: 50},
		},
		PQG: &metrics.PQGData{Program: &program, Indicators: []string{"households served"}},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteMetricsXLSX(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SummarySheet, export.PhasesSheet}, f.GetSheetList())

	summary, err := f.GetRows(export.SummarySheet)
	require.NoError(t, err)
	values := map[string]string{}
	for _, row := range summary {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "Clean Water", values["Project"])
	assert.Equal(t, "RED", values["Health"])
	assert.Equal(t, "75", values["Task completion %"])
	assert.Equal(t, "120", values["Budget utilization %"])
	assert.Equal(t, "Rural water", values["PQG program"])
	assert.Equal(t, "households served", values["PQG indicator"])

	phases, err := f.GetRows(export.PhasesSheet)
	require.NoError(t, err)
	require.Len(t, phases, 3)
	assert.Equal(t, "Completion %", phases[0][5])
	assert.Equal(t, []string{"2", "Build", "IN_PROGRESS", "2", "1", "50"}, phases[2])
}
