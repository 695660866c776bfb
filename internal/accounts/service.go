// Package accounts registers shoppers, creates back-office staff and checks
// credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/validation"
)

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
}

type Service struct {
	users     UserStore
	validator *validation.Validator
	logger    *slog.Logger
	cost      int
}

func NewService(users UserStore, validator *validation.Validator, logger *slog.Logger) *Service {
	return &Service{
		users:     users,
		validator: validator,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
	}
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type NewAdmin struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     domain.Role `json:"role" validate:"required,oneof=ADMIN SUPER_ADMIN"`
}

// RegisterUser creates a USER account. There is no verification step.
func (s *Service) RegisterUser(ctx context.Context, in Credentials) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Email, in.Password, domain.RoleUser)
}

// CreateAdmin creates an ADMIN or SUPER_ADMIN account. Only a SUPER_ADMIN
// actor may call it; anyone else is refused before any lookup or write.
func (s *Service) CreateAdmin(ctx context.Context, actor domain.Principal, in NewAdmin) (*domain.User, error) {
	if err := auth.Authorize(actor, domain.RoleSuperAdmin); err != nil {
		s.logger.Warn("admin creation refused", "actor_id", actor.UserID, "actor_role", actor.Role)
		return nil, err
	}

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.create(ctx, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin created", "user_id", u.ID, "role", u.Role, "created_by", actor.UserID)
	return u, nil
}

// ListAdmins returns ADMIN and SUPER_ADMIN accounts, newest first.
func (s *Service) ListAdmins(ctx context.Context, actor domain.Principal) ([]domain.User, error) {
	if err := auth.Authorize(actor, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	return s.users.ListByRoles(ctx, domain.RoleAdmin, domain.RoleSuperAdmin)
}

// Authenticate checks credentials, failing with domain.ErrInvalidCredentials
// whether the email or the password is wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.Principal, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	return u.Principal(), nil
}

// EnsureSuperAdmin creates the first SUPER_ADMIN unless the email is
// already registered.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if existing != nil {
		if existing.Role != domain.RoleSuperAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non super admin", "user_id", existing.ID, "role", existing.Role)
		}
		return nil
	}

	u, err := s.create(ctx, email, password, domain.RoleSuperAdmin)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap super admin created", "user_id", u.ID)
	return nil
}

func (s *Service) create(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
