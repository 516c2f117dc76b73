// Package seed loads YAML fixtures into the database. Users carry no
// credentials; they exist so organizations can attribute and add members.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Fixtures struct {
	Users         []User         `yaml:"users"`
	Organizations []Organization `yaml:"organizations"`
}

type User struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
}

type Organization struct {
	Slug        string    `yaml:"slug"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Owner       string    `yaml:"owner"`
	Members     []Member  `yaml:"members"`
	Projects    []Project `yaml:"projects"`
}

type Member struct {
	Email string     `yaml:"email"`
	Role  model.Role `yaml:"role"`
}

type Project struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Methodology model.Methodology   `yaml:"methodology"`
	Status      model.ProjectStatus `yaml:"status"`
	Priority    model.Priority      `yaml:"priority"`
	StartDate   *time.Time          `yaml:"start_date"`
	EndDate     *time.Time          `yaml:"end_date"`
	Metadata    map[string]any      `yaml:"metadata"`
}

// Result counts the rows Apply created.
type Result struct {
	Users         int
	Organizations int
	Members       int
	Projects      int
}

// Decode parses fixtures, rejecting unknown keys.
func Decode(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile decodes the fixtures file at path.
func LoadFile(path string) (*Fixtures, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixtures: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

func (f *Fixtures) validate() error {
	known := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Email == "" {
			return domain.Invalid(fmt.Sprintf("users[%d].email", i), "is required")
		}
		known[strings.ToLower(u.Email)] = true
	}

	for i, org := range f.Organizations {
		field := fmt.Sprintf("organizations[%d]", i)
		if !model.ValidSlug(org.Slug) {
			return domain.Invalid(field+".slug", "must be lowercase letters, digits and dashes")
		}
		if org.Name == "" {
			return domain.Invalid(field+".name", "is required")
		}
		if !known[strings.ToLower(org.Owner)] {
			return domain.Invalid(field+".owner", "must be one of the listed users")
		}
		for j, m := range org.Members {
			if !known[strings.ToLower(m.Email)] {
				return domain.Invalid(fmt.Sprintf("%s.members[%d].email", field, j), "must be one of the listed users")
			}
			if !m.Role.Valid() {
				return domain.Invalid(fmt.Sprintf("%s.members[%d].role", field, j), "is not a known role")
			}
		}
		for j, p := range org.Projects {
			if p.Name == "" {
				return domain.Invalid(fmt.Sprintf("%s.projects[%d].name", field, j), "is required")
			}
		}
	}
	return nil
}

// Apply writes the fixtures. Organizations whose slug already exists are
// left untouched, so running the same file twice is harmless.
func Apply(ctx context.Context, db *gorm.DB, f *Fixtures, logger *slog.Logger) (*Result, error) {
	users := repository.NewUserRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	projects := repository.NewProjectRepository(db)

	res := &Result{}
	stored := make(map[string]*model.User, len(f.Users))
	for _, u := range f.Users {
		user := &model.User{Email: strings.ToLower(u.Email), Name: u.Name}
		if user.Name == "" {
			user.Name = user.Email
		}
		if err := users.Upsert(ctx, user); err != nil {
			return nil, err
		}
		stored[user.Email] = user
		res.Users++
	}

	for _, o := range f.Organizations {
		if _, err := orgs.FindBySlug(ctx, o.Slug); err == nil {
			logger.Info("organization exists, skipping", "slug", o.Slug)
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		owner := stored[strings.ToLower(o.Owner)]
		org := &model.Organization{
			Name:        o.Name,
			Slug:        o.Slug,
			Description: o.Description,
			CreatedByID: owner.ID,
		}
		if err := orgs.Create(ctx, org); err != nil {
			return nil, fmt.Errorf("creating organization %s: %w", o.Slug, err)
		}
		res.Organizations++

		for _, m := range o.Members {
			member := &model.OrganizationMember{
				OrganizationID: org.ID,
				UserID:         stored[strings.ToLower(m.Email)].ID,
				Role:           m.Role,
			}
			if err := orgs.AddMember(ctx, member); err != nil {
				if errors.Is(err, domain.ErrAlreadyMember) {
					continue
				}
				return nil, fmt.Errorf("adding %s to %s: %w", m.Email, o.Slug, err)
			}
			res.Members++
		}

		for _, p := range o.Projects {
			project := &model.Project{
				OrganizationID: org.ID,
				Name:           p.Name,
				Description:    p.Description,
				Methodology:    p.Methodology,
				Status:         p.Status,
				Priority:       p.Priority,
				StartDate:      p.StartDate,
				EndDate:        p.EndDate,
				Metadata:       p.Metadata,
				CreatedByID:    owner.ID,
			}
			if project.Methodology == "" {
				project.Methodology = model.MethodologyAgile
			}
			if project.Status == "" {
				project.Status = model.ProjectPlanning
			}
			if project.Priority == "" {
				project.Priority = model.PriorityMedium
			}
			if err := projects.Create(ctx, project); err != nil {
				return nil, fmt.Errorf("creating project %s: %w", p.Name, err)
			}
			res.Projects++
		}

		logger.Info("organization seeded", "slug", o.Slug, "members", len(o.Members), "projects", len(o.Projects))
	}

	return res, nil
}
