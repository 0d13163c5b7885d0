// Package repository defines the persistence interface for products.
package repository

import (
	"context"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
)

// ProductRepository persists and retrieves products. Implementations enforce
// schema-level field constraints only; cross-field business rules live in the
// service layer.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}
