package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// RegisterInput is the sign-up payload. An admin registers together with their company.
type RegisterInput struct {
	Username       string `json:"username" validate:"required,min=3,max=50"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	Role           string `json:"role" validate:"omitempty,oneof=admin user"`
	CompanyName    string `json:"company_name" validate:"max=100"`
	CompanyAddress string `json:"company_address" validate:"max=255"`
	CompanyContact string `json:"company_contact" validate:"max=100"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.UserResponse, error)
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
}

type LoginResponse struct {
	Token     string             `json:"token"`
	User      model.UserResponse `json:"user"`
	Role      string             `json:"role"`
	CompanyID *uint              `json:"company_id,omitempty"`
	Company   *model.Company     `json:"company,omitempty"`
}

type authService struct {
	userRepo repository.UserRepository
	tx       repository.TxRunner
	tokens   *jwt.Manager
	log      zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tx repository.TxRunner, tokens *jwt.Manager, log zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tx:       tx,
		tokens:   tokens,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.UserResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if err := validator.FirstError(&in); err != nil {
		return nil, err
	}
	if in.Role == model.RoleAdmin && in.CompanyName == "" {
		return nil, &validator.ValidationError{Field: "company_name", Message: "is required for admin accounts"}
	}

	user := &model.User{Username: in.Username, Role: in.Role}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	// Company and admin are created together or not at all.
	err := s.tx.RunAccounts(ctx, func(companies repository.CompanyRepository, users repository.UserRepository) error {
		if in.Role == model.RoleAdmin {
			company := &model.Company{
				Name:    in.CompanyName,
				Address: strings.TrimSpace(in.CompanyAddress),
				Contact: strings.TrimSpace(in.CompanyContact),
			}
			if err := companies.Create(ctx, company); err != nil {
				return err
			}
			user.CompanyID = &company.ID
			user.Company = company
		}
		return users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	// 1. Find user by username
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Generate JWT token
	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role, user.CompanyID)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		User:      user.ToResponse(),
		Role:      user.Role,
		CompanyID: user.CompanyID,
		Company:   user.Company,
	}, nil
}

// ResetPassword sets a new password without knowing the old one. Operator use only.
func (s *authService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return &validator.ValidationError{Field: "password", Message: "must be at least 6 characters"}
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}
