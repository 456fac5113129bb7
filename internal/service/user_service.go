package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// ErrSelfDeactivation indicates an admin tried to deactivate their own account.
var ErrSelfDeactivation = errors.New("cannot deactivate own account")

// UserService exposes account administration and profile use cases.
type UserService interface {
	List(ctx context.Context, actor authz.Actor, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor authz.Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	ChangeRole(ctx context.Context, actor authz.Actor, id uint, payload dto.UserRoleUpdateRequest) (dto.UserResponse, error)
	Deactivate(ctx context.Context, actor authz.Actor, id uint) error
}

type userService struct {
	users     repository.UserRepository
	tx        repository.TxRunner
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(users repository.UserRepository, tx repository.TxRunner, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		tx:        tx,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		now:       time.Now,
	}
}

func (s *userService) List(ctx context.Context, actor authz.Actor, req dto.UserListRequest) (dto.UserListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserListResponse{}, err
	}

	if actor.Role != authz.RoleAdmin {
		return dto.UserListResponse{}, ErrForbidden
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Role:     req.Role,
		Search:   req.Search,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user))
	}

	return dto.UserListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *userService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.UserResponse, error) {
	decision := authz.Decide(actor, authz.Resource{Kind: authz.KindUser, StudentID: id}, authz.ActionRead)
	if err := resolveDecision(decision, ErrUserNotFound); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor authz.Actor, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	decision := authz.Decide(actor, authz.Resource{Kind: authz.KindUser, StudentID: id}, authz.ActionUpdate)
	if err := resolveDecision(decision, ErrUserNotFound); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if payload.FirstName != nil {
		user.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		user.LastName = *payload.LastName
	}
	if payload.PhoneNumber != nil {
		user.PhoneNumber = *payload.PhoneNumber
	}
	if payload.Bio != nil {
		user.Bio = *payload.Bio
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, &user); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionProfileUpdated, "user", &user.ID, nil)
	})
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("profile updated")

	return dto.NewUserResponse(user), nil
}

func (s *userService) ChangeRole(ctx context.Context, actor authz.Actor, id uint, payload dto.UserRoleUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	if actor.Role != authz.RoleAdmin {
		return dto.UserResponse{}, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	previous := user.Role
	user.Role = payload.Role

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, &user); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionUserRoleChanged, "user", &user.ID, map[string]interface{}{
			"previous_role": previous,
			"new_role":      user.Role,
		})
	})
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("role changed")

	return dto.NewUserResponse(user), nil
}

func (s *userService) Deactivate(ctx context.Context, actor authz.Actor, id uint) error {
	if actor.Role != authz.RoleAdmin {
		return ErrForbidden
	}

	if actor.ID == id {
		return ErrSelfDeactivation
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	user.Active = false

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, &user); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionUserDeactivated, "user", &user.ID, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("account deactivated")
	return nil
}
