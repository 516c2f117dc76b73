package authz_test

import (
	"errors"
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyTable(t *testing.T) {
	tests := []struct {
		op      authz.Operation
		allowed []model.Role
	}{
		{authz.BudgetCreate, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager}},
		{authz.BudgetUpdate, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager}},
		{authz.BudgetApprove, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleDonorSponsor}},
		{authz.ExpenseApprove, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleDonorSponsor}},
		{authz.BudgetDelete, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin}},
		{authz.ProjectDelete, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin}},
		{authz.MemberUpdate, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin}},
		{authz.TaskUpdate, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager}},
		{authz.ExpenseSubmit, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleProjectManager, model.RoleTeamMember}},
		{authz.ReportApprove, []model.Role{model.RoleOrgAdmin, model.RoleSuperAdmin, model.RoleMonitor, model.RoleDonorSponsor}},
		{authz.ProjectView, model.Roles},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			for _, role := range model.Roles {
				want := contains(tt.allowed, role)
				err := authz.Authorize(role, tt.op)
				if want {
					assert.NoError(t, err, "role %s", role)
				} else {
					assert.ErrorIs(t, err, domain.ErrForbidden, "role %s", role)
				}
			}
		})
	}
}

// Every operation in the table admits exactly its listed roles.
func TestEveryOperationMatchesAllowList(t *testing.T) {
	for _, op := range authz.Operations() {
		allowed := authz.RolesFor(op)
		require.NotEmpty(t, allowed, "operation %s has no roles", op)
		for _, role := range model.Roles {
			assert.Equal(t, contains(allowed, role), authz.Allowed(role, op), "%s / %s", op, role)
		}
	}
}

func TestViewerCannotComment(t *testing.T) {
	assert.Error(t, authz.Authorize(model.RoleViewer, authz.TaskComment))
	assert.NoError(t, authz.Authorize(model.RoleMonitor, authz.TaskComment))
}

func TestAuthorizeOwned(t *testing.T) {
	assert.NoError(t, authz.AuthorizeOwned(model.RoleTeamMember, authz.TaskUpdate, true))
	assert.NoError(t, authz.AuthorizeOwned(model.RoleProjectManager, authz.TaskUpdate, false))

	err := authz.AuthorizeOwned(model.RoleTeamMember, authz.TaskDelete, false)
	var forbidden *authz.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, authz.TaskDelete, forbidden.Operation)
	assert.Equal(t, model.RoleTeamMember, forbidden.Role)
}

func TestUnknownOperationDeniesEveryone(t *testing.T) {
	for _, role := range model.Roles {
		assert.False(t, authz.Allowed(role, authz.Operation("widget:frobnicate")))
	}
}

func TestRolesForReturnsCopy(t *testing.T) {
	roles := authz.RolesFor(authz.BudgetDelete)
	roles[0] = model.RoleViewer
	assert.False(t, authz.Allowed(model.RoleViewer, authz.BudgetDelete))
}

func contains(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
