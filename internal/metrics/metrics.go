// internal/metrics/metrics.go
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
)

type Health string

const (
	HealthGreen  Health = "GREEN"
	HealthYellow Health = "YELLOW"
	HealthRed    Health = "RED"
)

// Input is everything Compute needs about one project.
type Input struct {
	Project *model.Project
	Tasks   []model.Task
	Budgets []model.ProjectBudget
	Phases  []model.ProjectPhase
}

type PhaseProgress struct {
	PhaseID        uuid.UUID         `json:"phaseId"`
	Name           string            `json:"name"`
	Order          int               `json:"order"`
	Status         model.PhaseStatus `json:"status"`
	TotalTasks     int               `json:"totalTasks"`
	CompletedTasks int               `json:"completedTasks"`
	CompletionRate float64           `json:"completionRate"`
}

type Report struct {
	ProjectID   uuid.UUID `json:"projectId"`
	ProjectName string    `json:"projectName"`

	TotalTasks         int     `json:"totalTasks"`
	CompletedTasks     int     `json:"completedTasks"`
	InProgressTasks    int     `json:"inProgressTasks"`
	BlockedTasks       int     `json:"blockedTasks"`
	OverdueTasks       int     `json:"overdueTasks"`
	TaskCompletionRate float64 `json:"taskCompletionRate"`
	OverdueRate        float64 `json:"overdueRate"`

	TotalBudget       float64 `json:"totalBudget"`
	SpentBudget       float64 `json:"spentBudget"`
	ApprovedBudget    float64 `json:"approvedBudget"`
	RemainingBudget   float64 `json:"remainingBudget"`
	BudgetUtilization float64 `json:"budgetUtilization"`

	EstimatedHours      float64 `json:"estimatedHours"`
	ActualHours         float64 `json:"actualHours"`
	SchedulePerformance float64 `json:"schedulePerformance"`

	Health Health          `json:"health"`
	Phases []PhaseProgress `json:"phases"`
	PQG    *PQGData        `json:"pqg"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// Compute derives the project report from its loaded rows. It has no side
// effects; now decides which tasks are overdue.
func Compute(in Input, now time.Time) Report {
	r := Report{GeneratedAt: now.UTC(), Phases: []PhaseProgress{}}
	if in.Project != nil {
		r.ProjectID = in.Project.ID
		r.ProjectName = in.Project.Name
		r.PQG = ExtractPQG(in.Project.Metadata)
	}

	for _, t := range in.Tasks {
		r.TotalTasks++
		switch t.Status {
		case model.TaskDone:
			r.CompletedTasks++
		case model.TaskInProgress:
			r.InProgressTasks++
		case model.TaskBlocked:
			r.BlockedTasks++
		}
		if IsOverdue(t, now) {
			r.OverdueTasks++
		}
		r.EstimatedHours += t.EstimatedHours
		r.ActualHours += t.ActualHours
	}

	for _, b := range in.Budgets {
		r.TotalBudget += b.AllocatedAmount
		r.SpentBudget += b.SpentAmount
		r.ApprovedBudget += b.ApprovedAmount
	}
	r.RemainingBudget = r.TotalBudget - r.SpentBudget

	r.TaskCompletionRate = CompletionRate(r.CompletedTasks, r.TotalTasks)
	r.OverdueRate = CompletionRate(r.OverdueTasks, r.TotalTasks)
	r.BudgetUtilization = BudgetUtilization(r.SpentBudget, r.TotalBudget)
	r.SchedulePerformance = SchedulePerformance(r.EstimatedHours, r.ActualHours)
	r.Health = ClassifyHealth(r.TaskCompletionRate, r.BudgetUtilization, r.OverdueRate)

	r.Phases = phaseProgress(in.Phases, in.Tasks)

	r.TaskCompletionRate = round2(r.TaskCompletionRate)
	r.OverdueRate = round2(r.OverdueRate)
	r.BudgetUtilization = round2(r.BudgetUtilization)
	r.SchedulePerformance = round2(r.SchedulePerformance)
	return r
}

// CompletionRate is part/total as a percentage, 0 when total is 0.
func CompletionRate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// BudgetUtilization is spent/total as a percentage, 0 when total is 0.
func BudgetUtilization(spent, total float64) float64 {
	if total == 0 {
		return 0
	}
	return spent * 100 / total
}

// SchedulePerformance is estimated/actual as a percentage. With no actual
// hours logged the project is on schedule by definition.
func SchedulePerformance(estimated, actual float64) float64 {
	if actual == 0 {
		return 100
	}
	return estimated * 100 / actual
}

// IsOverdue reports whether the task's due date has passed and it is not done.
func IsOverdue(t model.Task, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != model.TaskDone
}

// NextDeadline returns the earliest due date that has not yet passed among
// unfinished tasks, or nil. The overdue count computed at now holds until then.
func NextDeadline(tasks []model.Task, now time.Time) *time.Time {
	var next *time.Time
	for _, t := range tasks {
		if t.DueDate == nil || t.Status == model.TaskDone || t.DueDate.Before(now) {
			continue
		}
		if next == nil || t.DueDate.Before(*next) {
			d := t.DueDate.UTC()
			next = &d
		}
	}
	return next
}

// ClassifyHealth applies the traffic-light rules in order; the first match wins.
// Utilization of 120% or more is already RED.
func ClassifyHealth(completionRate, budgetUtilization, overdueRate float64) Health {
	switch {
	case completionRate < 50 || budgetUtilization >= 120 || overdueRate > 25:
		return HealthRed
	case completionRate < 75 || budgetUtilization > 90 || overdueRate > 10:
		return HealthYellow
	default:
		return HealthGreen
	}
}

func phaseProgress(phases []model.ProjectPhase, tasks []model.Task) []PhaseProgress {
	sorted := make([]model.ProjectPhase, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	out := make([]PhaseProgress, 0, len(sorted))
	for _, p := range sorted {
		pp := PhaseProgress{PhaseID: p.ID, Name: p.Name, Order: p.Order, Status: p.Status}
		for _, t := range tasks {
			if t.PhaseID == nil || *t.PhaseID != p.ID {
				continue
			}
			pp.TotalTasks++
			if t.Status == model.TaskDone {
				pp.CompletedTasks++
			}
		}
		pp.CompletionRate = round2(CompletionRate(pp.CompletedTasks, pp.TotalTasks))
		out = append(out, pp)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
