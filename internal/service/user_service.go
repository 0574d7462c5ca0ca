package service

import (
	"context"

	"github.com/rs/zerolog"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"
)

// UserService is the signed-in user's view of their own account.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*model.UserResponse, error)
	ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) error
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type userService struct {
	userRepo repository.UserRepository
	log      zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, log zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With().Str("component", "users").Logger(),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// ChangePassword requires the current password; a wrong one reads as invalid credentials.
func (s *userService) ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) error {
	if err := validator.FirstError(&req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(req.OldPassword) {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}
	s.log.Info().Uint("user_id", user.ID).Msg("password changed")
	return nil
}
