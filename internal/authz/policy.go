// internal/authz/policy.go
package authz

import (
	"fmt"
	"sort"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
)

// Operation names one guarded action, as resource:action.
type Operation string

const (
	OrgView      Operation = "org:view"
	OrgUpdate    Operation = "org:update"
	MemberList   Operation = "member:list"
	MemberAdd    Operation = "member:add"
	MemberUpdate Operation = "member:update"
	MemberRemove Operation = "member:remove"
	AuditView    Operation = "audit:view"

	ProjectView   Operation = "project:view"
	ProjectCreate Operation = "project:create"
	ProjectUpdate Operation = "project:update"
	ProjectDelete Operation = "project:delete"
	PhaseManage   Operation = "phase:manage"
	MetricsView   Operation = "metrics:view"

	TaskView    Operation = "task:view"
	TaskCreate  Operation = "task:create"
	TaskUpdate  Operation = "task:update"
	TaskDelete  Operation = "task:delete"
	TaskComment Operation = "task:comment"

	BudgetView    Operation = "budget:view"
	BudgetCreate  Operation = "budget:create"
	BudgetUpdate  Operation = "budget:update"
	BudgetDelete  Operation = "budget:delete"
	BudgetApprove Operation = "budget:approve"

	ExpenseView    Operation = "expense:view"
	ExpenseSubmit  Operation = "expense:submit"
	ExpenseApprove Operation = "expense:approve"

	ReportView    Operation = "report:view"
	ReportCreate  Operation = "report:create"
	ReportApprove Operation = "report:approve"
)

var (
	everyone = model.Roles
	admins   = []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin}
	managers = []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager}
	funders  = []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleDonorSponsor}
	workers  = []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager, model.RoleTeamMember}
)

// policy is the single source of truth for who may do what. Each operation
// lists its roles on its own; there is no inheritance between entries.
var policy = map[Operation][]model.Role{
	OrgView:      everyone,
	OrgUpdate:    admins,
	MemberList:   everyone,
	MemberAdd:    admins,
	MemberUpdate: admins,
	MemberRemove: admins,
	AuditView:    admins,

	ProjectView:   everyone,
	ProjectCreate: managers,
	ProjectUpdate: managers,
	ProjectDelete: admins,
	PhaseManage:   managers,
	MetricsView:   everyone,

	TaskView:   everyone,
	TaskCreate: workers,
	TaskUpdate: managers,
	TaskDelete: managers,
	TaskComment: {
		model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager,
		model.RoleMonitor, model.RoleDonorSponsor, model.RoleTeamMember,
	},

	BudgetView:    everyone,
	BudgetCreate:  managers,
	BudgetUpdate:  managers,
	BudgetDelete:  admins,
	BudgetApprove: funders,

	ExpenseView:    everyone,
	ExpenseSubmit:  workers,
	ExpenseApprove: funders,

	ReportView: everyone,
	ReportCreate: {
		model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager,
		model.RoleMonitor, model.RoleTeamMember,
	},
	ReportApprove: {
		model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleMonitor, model.RoleDonorSponsor,
	},
}

// ForbiddenError is returned when a role is not on an operation's allow-list.
type ForbiddenError struct {
	Role      model.Role
	Operation Operation
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not perform %s", e.Role, e.Operation)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == domain.ErrForbidden
}

// Allowed reports whether role is on the allow-list for op. Unknown
// operations allow nobody.
func Allowed(role model.Role, op Operation) bool {
	for _, r := range policy[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize returns a *ForbiddenError unless role may perform op.
func Authorize(role model.Role, op Operation) error {
	if Allowed(role, op) {
		return nil
	}
	return &ForbiddenError{Role: role, Operation: op}
}

// AuthorizeOwned is Authorize for operations the resource owner may always
// perform, such as editing a task one created or is assigned to.
func AuthorizeOwned(role model.Role, op Operation, isOwner bool) error {
	if isOwner {
		return nil
	}
	return Authorize(role, op)
}

// RolesFor returns a copy of the allow-list for op.
func RolesFor(op Operation) []model.Role {
	roles := policy[op]
	out := make([]model.Role, len(roles))
	copy(out, roles)
	return out
}

// Operations returns every operation in the policy, sorted.
func Operations() []Operation {
	ops := make([]Operation, 0, len(policy))
	for op := range policy {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
