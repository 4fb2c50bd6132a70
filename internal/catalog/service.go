package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/simplepos/simplepos/internal/shared"
)

// Service coordinates product catalog operations.
type Service struct {
	repo *Repository
}

// NewService builds Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(s)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingID)
	}
	return s.repo.Get(ctx, id)
}

// List returns products, optionally filtered by a case-folded substring
// match over name, category and id.
func (s *Service) List(ctx context.Context, query string) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return products, nil
	}
	needle := fold(query)
	filtered := products[:0]
	for _, p := range products {
		if strings.Contains(fold(p.Name), needle) ||
			strings.Contains(fold(p.Category), needle) ||
			strings.Contains(fold(p.ID), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Create validates and stores a new product. A missing id is generated
// from the current time the way the web client used to.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = s.generateID(ctx)
	}
	if err := validate(p); err != nil {
		return Product{}, err
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update upserts the product under its existing id. The id itself is
// immutable.
func (s *Service) Update(ctx context.Context, id string, p Product) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingID)
	}
	if p.ID != "" && p.ID != id {
		return Product{}, fmt.Errorf("%w: product id is immutable", shared.ErrValidation)
	}
	p.ID = id
	if err := validate(p); err != nil {
		return Product{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Product{}, err
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Delete removes the product. Depletion mappings referencing it are the
// caller's responsibility to clean up.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingID)
	}
	return s.repo.Delete(ctx, id)
}

// Clear removes every product.
func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

func (s *Service) generateID(ctx context.Context) string {
	id := fmt.Sprintf("p%d", time.Now().UnixMilli())
	if _, err := s.repo.Get(ctx, id); errors.Is(err, shared.ErrNotFound) {
		return id
	}
	return "p" + uuid.NewString()
}

func validate(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingName)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: %w", shared.ErrValidation, ErrNegativePrice)
	}
	return nil
}
