// internal/service/organization.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dangerclosesec/agiletrack/internal/authz"
	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as described by their token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

type OrganizationService struct {
	orgs     repository.OrganizationRepositoryIface
	users    repository.UserRepositoryIface
	access   *AccessService
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
}

func NewOrganizationService(
	orgs repository.OrganizationRepositoryIface,
	users repository.UserRepositoryIface,
	access *AccessService,
	notifier Notifier,
	logger *slog.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgs:     orgs,
		users:    users,
		access:   access,
		notifier: notifier,
		logger:   logger,
		validate: newValidator(),
	}
}

type CreateOrganizationInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Slug        string `json:"slug" validate:"required,max=64"`
	Description string `json:"description"`
}

type UpdateOrganizationInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

// OrganizationView is an organization together with the caller's role in it.
type OrganizationView struct {
	*model.Organization
	Role model.Role `json:"role"`
}

// Create makes a new organization with the caller as its first ORG_ADMIN.
// The caller's user row is created from their token on first use.
func (s *OrganizationService) Create(ctx context.Context, caller Identity, input CreateOrganizationInput) (*OrganizationView, error) {
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if !model.ValidSlug(input.Slug) {
		return nil, domain.Invalid("slug", "must be lowercase letters, digits and single dashes")
	}

	if err := s.ensureUser(ctx, caller); err != nil {
		return nil, err
	}

	org := &model.Organization{
		Name:        strings.TrimSpace(input.Name),
		Slug:        input.Slug,
		Description: input.Description,
		CreatedByID: caller.UserID,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "organization created", "organization", org.Slug, "user_id", caller.UserID)
	return &OrganizationView{Organization: org, Role: model.RoleOrgAdmin}, nil
}

func (s *OrganizationService) ensureUser(ctx context.Context, caller Identity) error {
	_, err := s.users.FindByID(ctx, caller.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	name := caller.Name
	if name == "" {
		name = caller.Email
	}
	return s.users.Create(ctx, &model.User{
		Base:  model.Base{ID: caller.UserID},
		Email: caller.Email,
		Name:  name,
	})
}

// ListMine returns the organizations the caller belongs to.
func (s *OrganizationService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Organization, error) {
	orgs, err := s.orgs.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	return orgs, nil
}

func (s *OrganizationService) Get(ctx context.Context, userID uuid.UUID, slug string) (*OrganizationView, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.OrgView)
	if err != nil {
		return nil, err
	}
	return &OrganizationView{Organization: a.Organization, Role: a.Role()}, nil
}

func (s *OrganizationService) Update(ctx context.Context, userID uuid.UUID, slug string, input UpdateOrganizationInput) (*OrganizationView, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.OrgUpdate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}

	org := a.Organization
	if input.Name != nil {
		org.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		org.Description = *input.Description
	}
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return &OrganizationView{Organization: org, Role: a.Role()}, nil
}

type AddMemberInput struct {
	Email string     `json:"email" validate:"required,email"`
	Role  model.Role `json:"role" validate:"required"`
}

type UpdateMemberInput struct {
	Role model.Role `json:"role" validate:"required"`
}

func (s *OrganizationService) ListMembers(ctx context.Context, userID uuid.UUID, slug string) ([]model.OrganizationMember, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.MemberList)
	if err != nil {
		return nil, err
	}
	return s.orgs.ListMembers(ctx, a.Organization.ID)
}

// AddMember adds an existing user, found by email, to the organization.
func (s *OrganizationService) AddMember(ctx context.Context, userID uuid.UUID, slug string, input AddMemberInput) (*model.OrganizationMember, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.MemberAdd)
	if err != nil {
		return nil, err
	}
	input.Email = strings.TrimSpace(input.Email)
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, domain.Invalid("role", "is not a known role")
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Invalid("email", "no user with this email")
		}
		return nil, err
	}

	member := &model.OrganizationMember{
		OrganizationID: a.Organization.ID,
		UserID:         user.ID,
		Role:           input.Role,
	}
	if err := s.orgs.AddMember(ctx, member); err != nil {
		return nil, err
	}
	member.User = user

	s.notifier.MemberAdded(ctx, MemberAddedNotice{
		To:               user.Email,
		Name:             user.Name,
		OrganizationName: a.Organization.Name,
		OrganizationSlug: a.Organization.Slug,
		Role:             string(input.Role),
	})
	return member, nil
}

// UpdateMemberRole changes a member's role; the last ORG_ADMIN cannot be demoted.
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, userID uuid.UUID, slug string, memberID uuid.UUID, input UpdateMemberInput) (*model.OrganizationMember, error) {
	a, err := s.access.Require(ctx, userID, slug, authz.MemberUpdate)
	if err != nil {
		return nil, err
	}
	if err := validate(s.validate, input); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, domain.Invalid("role", "is not a known role")
	}

	member, err := s.orgs.UpdateMemberRole(ctx, a.Organization.ID, memberID, input.Role)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "member role changed",
		"organization", a.Organization.Slug,
		"member_id", memberID,
		"role", input.Role,
		"by", userID,
	)
	return member, nil
}

// RemoveMember removes a member; the last ORG_ADMIN cannot be removed.
func (s *OrganizationService) RemoveMember(ctx context.Context, userID uuid.UUID, slug string, memberID uuid.UUID) error {
	a, err := s.access.Require(ctx, userID, slug, authz.MemberRemove)
	if err != nil {
		return err
	}
	return s.orgs.RemoveMember(ctx, a.Organization.ID, memberID)
}
