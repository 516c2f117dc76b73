package repository_test

import (
	"context"
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/database/dbtest"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	admin   *model.User
	org     *model.Organization
	project *model.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	ctx := context.Background()

	admin := &model.User{Email: "admin@example.com", Name: "Ada Admin"}
	require.NoError(t, db.WithContext(ctx).Create(admin).Error)

	org := &model.Organization{Name: "Acme", Slug: "acme", CreatedByID: admin.ID}
	require.NoError(t, db.Create(org).Error)
	require.NoError(t, db.Create(&model.OrganizationMember{
		OrganizationID: org.ID, UserID: admin.ID, Role: model.RoleOrgAdmin,
	}).Error)

	project := &model.Project{OrganizationID: org.ID, Name: "Water", CreatedByID: admin.ID}
	require.NoError(t, db.Create(project).Error)

	return &fixture{db: db, admin: admin, org: org, project: project}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: email}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) member(t *testing.T, userID uuid.UUID, role model.Role) *model.OrganizationMember {
	t.Helper()
	m := &model.OrganizationMember{OrganizationID: f.org.ID, UserID: userID, Role: role}
	require.NoError(t, f.db.Create(m).Error)
	return m
}
