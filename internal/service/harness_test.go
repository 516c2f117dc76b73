package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/cache"
	"github.com/dangerclosesec/agiletrack/internal/database/dbtest"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu       sync.Mutex
	expenses []service.ExpenseDecisionNotice
	members  []service.MemberAddedNotice
}

func (n *recordingNotifier) ExpenseDecided(_ context.Context, notice service.ExpenseDecisionNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expenses = append(n.expenses, notice)
}

func (n *recordingNotifier) MemberAdded(_ context.Context, notice service.MemberAddedNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.members = append(n.members, notice)
}

var fixedNow = time.Date(2024, 3, 15, 12, 30, 45, 123_000_000, time.UTC)

type harness struct {
	ctx      context.Context
	db       *gorm.DB
	svc      *service.Services
	notifier *recordingNotifier

	admin   uuid.UUID
	org     *service.OrganizationView
	project *model.Project
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	cacheService := service.NewCacheServiceWithStore(cache.NewInMemoryCache(time.Minute, 0), time.Minute)
	notifier := &recordingNotifier{}
	svc := service.NewServices(db, cacheService, notifier, logger)

	clock := func() time.Time { return fixedNow }
	svc.Tasks.Now = clock
	svc.Budgets.Now = clock
	svc.Expenses.Now = clock
	svc.Reports.Now = clock
	svc.Metrics.Now = clock

	h := &harness{ctx: ctx, db: db, svc: svc, notifier: notifier, admin: uuid.New()}

	org, err := svc.Organizations.Create(ctx, service.Identity{
		UserID: h.admin,
		Email:  "ada@example.com",
		Name:   "Ada Admin",
	}, service.CreateOrganizationInput{Name: "Acme Relief", Slug: "acme"})
	require.NoError(t, err)
	h.org = org

	project, err := svc.Projects.Create(ctx, h.admin, "acme", service.CreateProjectInput{Name: "Clean Water"})
	require.NoError(t, err)
	h.project = project

	return h
}

// join creates a user and adds them to the organization with role.
func (h *harness) join(t *testing.T, email string, role model.Role) uuid.UUID {
	t.Helper()
	user := &model.User{Email: email, Name: email}
	require.NoError(t, h.db.Create(user).Error)

	_, err := h.svc.Organizations.AddMember(h.ctx, h.admin, "acme", service.AddMemberInput{Email: email, Role: role})
	require.NoError(t, err)
	return user.ID
}

func (h *harness) budget(t *testing.T, category string, allocated float64) *model.ProjectBudget {
	t.Helper()
	b, err := h.svc.Budgets.Create(h.ctx, h.admin, "acme", service.CreateBudgetInput{
		ProjectID:       h.project.ID,
		Category:        category,
		AllocatedAmount: allocated,
	})
	require.NoError(t, err)
	return b
}
