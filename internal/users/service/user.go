package service

import (
	"context"
	"errors"

	"commonspace/internal/auth"
	userserrors "commonspace/internal/users/errors"
	"commonspace/internal/users/repository"
	"commonspace/pkg/config"
	apperrors "commonspace/pkg/errors"
	"commonspace/pkg/model"
	"commonspace/pkg/sanitizer"
	"commonspace/pkg/validation"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

type Notifier interface {
	Welcome(ctx context.Context, user *model.User)
}

type UserService interface {
	Sync(ctx context.Context, caller *auth.Principal) (*model.User, error)
	Me(ctx context.Context, caller *auth.Principal) (*model.User, error)
	List(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, int64, error)
	UpdateRole(ctx context.Context, caller *auth.Principal, id string, update *model.UserRoleUpdate) (*model.User, error)
}

type userService struct {
	repo     repository.UserRepository
	notifier Notifier
	validate *validator.Validate
	cfg      *config.Config
}

func NewUserService(repo repository.UserRepository, notifier Notifier, cfg *config.Config) UserService {
	return &userService{
		repo:     repo,
		notifier: notifier,
		validate: validation.New(cfg.Log),
		cfg:      cfg,
	}
}

// Sync records the caller's profile from their token. The role is only
// taken from the token when the user is first seen.
func (s *userService) Sync(ctx context.Context, caller *auth.Principal) (*model.User, error) {
	user := &model.User{
		ID:    caller.UserID,
		Email: sanitizer.NormalizeEmail(caller.Email),
		Name:  sanitizer.NormalizeName(caller.Name),
		Role:  caller.Role,
	}

	created, err := s.repo.Upsert(ctx, user)
	if err != nil {
		s.cfg.Log.Error("Failed to sync user", "id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to save user profile", err)
	}

	stored, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}

	if created {
		s.cfg.Log.Info("User created successfully", "id", stored.ID, "role", stored.Role)
		s.notifier.Welcome(ctx, stored)
	}
	return stored, nil
}

func (s *userService) Me(ctx context.Context, caller *auth.Principal) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, mapRepoError(err, caller.UserID, "Failed to retrieve user")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, int64, error) {
	filter.Search = sanitizer.NormalizeSearch(filter.Search)
	if filter.Role != "" {
		if _, err := model.ParseRole(string(filter.Role)); err != nil {
			return nil, 0, apperrors.Validation("Invalid user filter", map[string]any{"role": err.Error()})
		}
	}

	var count int64
	var users []*model.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if count, err = s.repo.Count(gctx, filter); err != nil {
			return apperrors.Internal("Failed to count users", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if users, err = s.repo.Find(gctx, filter, limit, offset); err != nil {
			return apperrors.Internal("Failed to retrieve users", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, 0, err
	}

	return users, count, nil
}

// UpdateRole changes another account's role. Superadmin is never granted or
// revoked through the API.
func (s *userService) UpdateRole(ctx context.Context, caller *auth.Principal, id string, update *model.UserRoleUpdate) (*model.User, error) {
	if err := validation.Struct(s.validate, update); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Invalid role update", verrs.Details())
		}
		return nil, apperrors.Validation("Invalid role update", map[string]any{"error": err.Error()})
	}
	if update.Role == model.RoleSuperadmin {
		return nil, apperrors.Validation("Invalid role update", map[string]any{"role": "superadmin cannot be granted"})
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to retrieve user")
	}
	if !auth.CanChangeRole(caller, target) {
		return nil, apperrors.Forbidden("You cannot change this user's role")
	}
	if target.Role == update.Role {
		return target, nil
	}

	if err := s.repo.UpdateRole(ctx, id, update.Role); err != nil {
		return nil, mapRepoError(err, id, "Failed to update user role")
	}

	s.cfg.Log.Info("User role updated", "id", id, "from", target.Role, "to", update.Role, "by", caller.UserID)
	target.Role = update.Role
	return target, nil
}

func mapRepoError(err error, id, message string) error {
	if errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("User", id)
	}
	return apperrors.Internal(message, err)
}
