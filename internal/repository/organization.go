// internal/repository/organization.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/agiletrack/internal/database"
	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepositoryIface interface {
	Create(ctx context.Context, org *model.Organization) error
	FindBySlug(ctx context.Context, slug string) (*model.Organization, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error

	FindMembership(ctx context.Context, userID uuid.UUID, slug string) (*model.Organization, *model.OrganizationMember, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationMember, error)
	FindMember(ctx context.Context, orgID, memberID uuid.UUID) (*model.OrganizationMember, error)
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, member *model.OrganizationMember) error
	UpdateMemberRole(ctx context.Context, orgID, memberID uuid.UUID, role model.Role) (*model.OrganizationMember, error)
	RemoveMember(ctx context.Context, orgID, memberID uuid.UUID) error
}

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts the organization and makes its creator the first ORG_ADMIN.
func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return domain.ErrSlugTaken
			}
			return fmt.Errorf("creating organization: %w", err)
		}

		admin := &model.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         org.CreatedByID,
			Role:           model.RoleOrgAdmin,
		}
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("creating organization admin: %w", err)
		}

		return nil
	})

	if err != nil {
		if isDomain(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

func (r *OrganizationRepository) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := r.db.WithContext(ctx).
		Joins("JOIN organization_members ON organizations.id = organization_members.organization_id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.name").
		Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("finding user organizations: %w", err)
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("updating organization: %w", err)
	}
	return nil
}

// FindMembership loads the organization by slug together with the caller's
// membership row. Both a missing organization and a missing membership
// return ErrOrganizationNotFound.
func (r *OrganizationRepository) FindMembership(ctx context.Context, userID uuid.UUID, slug string) (*model.Organization, *model.OrganizationMember, error) {
	org, err := r.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	var member model.OrganizationMember
	err = r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", org.ID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("finding membership: %w", err)
	}

	return org, &member, nil
}

func (r *OrganizationRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationMember, error) {
	var members []model.OrganizationMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("listing organization members: %w", err)
	}
	return members, nil
}

func (r *OrganizationRepository) FindMember(ctx context.Context, orgID, memberID uuid.UUID) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ? AND id = ?", orgID, memberID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding organization member: %w", err)
	}
	return &member, nil
}

func (r *OrganizationRepository) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return count > 0, nil
}

func (r *OrganizationRepository) AddMember(ctx context.Context, member *model.OrganizationMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyMember
		}
		return fmt.Errorf("creating organization member: %w", err)
	}
	return nil
}

// UpdateMemberRole changes a member's role. Demoting the last ORG_ADMIN is
// rejected with ErrLastAdmin; the admin rows stay locked from the count
// until the update commits.
func (r *OrganizationRepository) UpdateMemberRole(ctx context.Context, orgID, memberID uuid.UUID, role model.Role) (*model.OrganizationMember, error) {
	var updated model.OrganizationMember
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := r.lockAdminsAndFind(tx, orgID, memberID, role != model.RoleOrgAdmin)
		if err != nil {
			return err
		}

		if err := tx.Model(target).Update("role", role).Error; err != nil {
			return fmt.Errorf("updating member role: %w", err)
		}
		target.Role = role
		updated = *target
		return nil
	})

	if err != nil {
		if isDomain(err) {
			return nil, err
		}
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	return &updated, nil
}

// RemoveMember deletes a membership under the same last-admin guard as
// UpdateMemberRole.
func (r *OrganizationRepository) RemoveMember(ctx context.Context, orgID, memberID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := r.lockAdminsAndFind(tx, orgID, memberID, true)
		if err != nil {
			return err
		}

		if err := tx.Delete(target).Error; err != nil {
			return fmt.Errorf("deleting member: %w", err)
		}
		return nil
	})

	if err != nil {
		if isDomain(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// lockAdminsAndFind locks the organization's ORG_ADMIN rows, loads the target
// member and fails with ErrLastAdmin when losingAdmin would leave none.
func (r *OrganizationRepository) lockAdminsAndFind(tx *gorm.DB, orgID, memberID uuid.UUID, losingAdmin bool) (*model.OrganizationMember, error) {
	var admins []model.OrganizationMember
	if err := tx.Clauses(forUpdate).
		Where("organization_id = ? AND role = ?", orgID, model.RoleOrgAdmin).
		Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("locking admins: %w", err)
	}

	var target model.OrganizationMember
	if err := tx.Clauses(forUpdate).
		Where("organization_id = ? AND id = ?", orgID, memberID).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding member: %w", err)
	}

	if losingAdmin && target.Role == model.RoleOrgAdmin && len(admins) <= 1 {
		return nil, domain.ErrLastAdmin
	}

	return &target, nil
}
