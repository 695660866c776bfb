// Package admin holds the back-office writes on the product catalog and the
// dashboard figures.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/validation"
)

type ProductStore interface {
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	CategoryExists(ctx context.Context, id string) (bool, error)
}

type ProductInput struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	CategoryID  string           `json:"category_id" validate:"required"`
	Images      []string         `json:"images" validate:"dive,url"`
}

type Service struct {
	products  ProductStore
	validator *validation.Validator
	logger    *slog.Logger
}

func NewService(products ProductStore, validator *validation.Validator, logger *slog.Logger) *Service {
	return &Service{
		products:  products,
		validator: validator,
		logger:    logger,
	}
}

func (s *Service) CreateProduct(ctx context.Context, actor domain.Principal, in ProductInput) (*domain.Product, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}

	p, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, s.writeError("create product", err)
	}

	s.logger.Info("product created", "product_id", p.ID, "by", actor.UserID)
	return p, nil
}

// UpdateProduct replaces every field of product id; stock is set, not adjusted.
func (s *Service) UpdateProduct(ctx context.Context, actor domain.Principal, id string, in ProductInput) (*domain.Product, error) {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}

	p, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	p.ID = id

	if err := s.products.Update(ctx, p); err != nil {
		return nil, s.writeError("update product", err)
	}

	s.logger.Info("product updated", "product_id", p.ID, "by", actor.UserID)
	return p, nil
}

// DeleteProduct removes the product even when past orders reference it;
// their items keep the dangling product id.
func (s *Service) DeleteProduct(ctx context.Context, actor domain.Principal, id string) error {
	if err := auth.Authorize(actor, domain.RoleAdmin, domain.RoleSuperAdmin); err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return s.writeError("delete product", err)
	}

	s.logger.Info("product deleted", "product_id", id, "by", actor.UserID)
	return nil
}

func (s *Service) validate(ctx context.Context, in ProductInput) (*domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.products.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, unknownCategory()
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}

	return &domain.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		Stock:       *in.Stock,
		Images:      images,
		CategoryID:  &in.CategoryID,
	}, nil
}

func (s *Service) writeError(op string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrUnknownCategory):
		return unknownCategory()
	case errors.Is(err, domain.ErrProductNotFound):
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func unknownCategory() error {
	verr := domain.NewValidationError()
	verr.Add("category_id", "unknown category")
	return verr
}
