package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/repo"
)

// RoleStore extends UserStore with role management.
type RoleStore interface {
	UserStore
	List(ctx context.Context) ([]domain.User, error)
	ReplaceRoles(ctx context.Context, user *domain.User, roleNames []string) error
}

// UserRolesDTO is the admin view of a user.
type UserRolesDTO struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// AdminService implements the admin-only user/role operations.
type AdminService struct {
	users RoleStore
}

// NewAdminService creates an AdminService.
func NewAdminService(users RoleStore) *AdminService {
	return &AdminService{users: users}
}

// ListUsers returns every user with their role names, ordered by email.
func (s *AdminService) ListUsers(ctx context.Context) ([]UserRolesDTO, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]UserRolesDTO, len(users))
	for i := range users {
		result[i] = UserRolesDTO{
			ID:    users[i].ID,
			Email: users[i].Email,
			Roles: users[i].RoleNames(),
		}
	}
	return result, nil
}

// UpdateRoles replaces the target user's role set with the requested
// one. Unknown role names reject the whole request before any mutation.
// An admin editing their own account must keep the Admin role.
func (s *AdminService) UpdateRoles(ctx context.Context, actorID, targetID string, requested []string) (*UserRolesDTO, error) {
	// Normalize: drop blanks and duplicates, canonicalize case
	seen := map[string]bool{}
	var roleNames []string
	for _, name := range requested {
		name = canonicalRole(name)
		if name == "" || seen[name] {
			continue
		}
		if !domain.KnownRole(name) {
			return nil, NewBusinessError("unknown role: " + name)
		}
		seen[name] = true
		roleNames = append(roleNames, name)
	}

	if actorID == targetID && !seen[domain.RoleAdmin] {
		return nil, ErrSelfDemotion
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.users.ReplaceRoles(ctx, user, roleNames); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"target_id": targetID,
		"roles":     roleNames,
	}).Info("user roles updated")

	return &UserRolesDTO{ID: user.ID, Email: user.Email, Roles: user.RoleNames()}, nil
}

// canonicalRole maps a case-insensitive role name onto the closed enum,
// returning "" for blanks. Unknown names pass through for the caller to
// reject with the offending value in the message.
func canonicalRole(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return ""
	case "admin":
		return domain.RoleAdmin
	case "user":
		return domain.RoleUser
	default:
		return strings.TrimSpace(name)
	}
}
