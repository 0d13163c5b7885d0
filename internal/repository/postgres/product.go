package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
	apperrors "github.com/clangauge0314/react-fashion-ecommerce/pkg/errors"
)

// DB is the subset of pgxpool.Pool used by the repository. pgxmock satisfies
// it too, so tests can run against a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
// The color and image lists are stored as jsonb columns.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, description, price, stock, status, category, gender, color, image, mercari_uri, created_at, updated_at`

// Create inserts a new product record.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	colorJSON, imageJSON, err := marshalLists(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, description, price, stock, status, category, gender, color, image, mercari_uri, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.Status,
		p.Category,
		p.Gender,
		colorJSON,
		imageJSON,
		p.MercariURI,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := r.scanProductRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

// List returns all products, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := r.scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// Update overwrites an existing product record. The caller owns the
// UpdatedAt timestamp; it is persisted as given.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	colorJSON, imageJSON, err := marshalLists(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, status = $5, category = $6, gender = $7, color = $8, image = $9, mercari_uri = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.Status,
		p.Category,
		p.Gender,
		colorJSON,
		imageJSON,
		p.MercariURI,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product record by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

func marshalLists(p *domain.Product) (colorJSON, imageJSON []byte, err error) {
	colorJSON, err = json.Marshal(emptyIfNil(p.Color))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal color: %w", err)
	}
	imageJSON, err = json.Marshal(emptyIfNil(p.Image))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal image: %w", err)
	}
	return colorJSON, imageJSON, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func (r *ProductRepository) scanProductRow(row pgx.Row) (*domain.Product, error) {
	var (
		p         domain.Product
		colorJSON []byte
		imageJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Status,
		&p.Category,
		&p.Gender,
		&colorJSON,
		&imageJSON,
		&p.MercariURI,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if colorJSON != nil {
		if err := json.Unmarshal(colorJSON, &p.Color); err != nil {
			return nil, fmt.Errorf("unmarshal color: %w", err)
		}
	}
	if imageJSON != nil {
		if err := json.Unmarshal(imageJSON, &p.Image); err != nil {
			return nil, fmt.Errorf("unmarshal image: %w", err)
		}
	}

	return &p, nil
}
