// internal/model/organization.go
package model

import (
	"regexp"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOrgAdmin       Role = "ORG_ADMIN"
	RoleSuperAdmin     Role = "SUPER_ADMIN"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleMonitor        Role = "MONITOR"
	RoleDonorSponsor   Role = "DONOR_SPONSOR"
	RoleTeamMember     Role = "TEAM_MEMBER"
	RoleViewer         Role = "VIEWER"
)

// Roles lists every role in declaration order.
var Roles = []Role{
	RoleOrgAdmin,
	RoleSuperAdmin,
	RoleProjectManager,
	RoleMonitor,
	RoleDonorSponsor,
	RoleTeamMember,
	RoleViewer,
}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a lowercase, dash-separated slug.
func ValidSlug(s string) bool {
	return len(s) <= 64 && slugPattern.MatchString(s)
}

type Organization struct {
	Base
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedByID uuid.UUID `gorm:"type:char(36);not null" json:"createdById"`

	Members  []OrganizationMember `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	Projects []Project            `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

type OrganizationMember struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_org_member" json:"organizationId"`
	UserID         uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_org_member" json:"userId"`
	Role           Role      `gorm:"type:varchar(32);not null;index" json:"role"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
