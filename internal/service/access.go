// internal/service/access.go
package service

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/agiletrack/internal/audit"
	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/google/uuid"
)

// Access is a caller's resolved standing in one organization.
type Access struct {
	UserID       uuid.UUID
	Organization *model.Organization
	Member       *model.OrganizationMember
}

func (a *Access) Role() model.Role { return a.Member.Role }

// AccessService resolves memberships and applies the policy table. Every
// decision is written to the audit log.
type AccessService struct {
	orgs   repository.OrganizationRepositoryIface
	audit  audit.Logger
	logger *slog.Logger
}

func NewAccessService(orgs repository.OrganizationRepositoryIface, auditLogger audit.Logger, logger *slog.Logger) *AccessService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &AccessService{orgs: orgs, audit: auditLogger, logger: logger}
}

// Resolve finds the caller's membership in the organization with slug. A
// caller who is not a member gets ErrOrganizationNotFound, the same as for
// an organization that does not exist.
func (s *AccessService) Resolve(ctx context.Context, userID uuid.UUID, slug string) (*Access, error) {
	org, member, err := s.orgs.FindMembership(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	return &Access{UserID: userID, Organization: org, Member: member}, nil
}

// Require resolves the membership and authorizes op against the organization.
func (s *AccessService) Require(ctx context.Context, userID uuid.UUID, slug string, op authz.Operation) (*Access, error) {
	a, err := s.Resolve(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	if err := s.Check(ctx, a, op, "organization", a.Organization.ID.String(), false); err != nil {
		return nil, err
	}
	return a, nil
}

// Check authorizes op on one resource. isOwner admits the creator or
// assignee for owner-aware operations.
func (s *AccessService) Check(ctx context.Context, a *Access, op authz.Operation, resourceType, resourceID string, isOwner bool) error {
	err := authz.AuthorizeOwned(a.Role(), op, isOwner)
	s.record(ctx, a, op, resourceType, resourceID, err == nil, isOwner)
	return err
}

func (s *AccessService) record(ctx context.Context, a *Access, op authz.Operation, resourceType, resourceID string, allowed, isOwner bool) {
	d := audit.Decision{
		OrganizationID: a.Organization.ID,
		UserID:         a.UserID,
		Role:           a.Role(),
		Operation:      string(op),
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Allowed:        allowed,
	}
	if isOwner {
		d.Context = map[string]interface{}{"owner": true}
	}
	if err := s.audit.LogDecision(ctx, d); err != nil {
		s.logger.WarnContext(ctx, "writing authorization audit log",
			"operation", op,
			"organization", a.Organization.Slug,
			"error", err,
		)
	}
	if !allowed {
		s.logger.InfoContext(ctx, "authorization denied",
			"operation", op,
			"role", a.Role(),
			"user_id", a.UserID,
			"organization", a.Organization.Slug,
		)
	}
}
