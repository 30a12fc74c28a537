package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/cache"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQL error numbers the store translates into client errors.
const (
	errDuplicateEntry   = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	productSelectFields = `p.id, p.category_id, p.name, p.description, p.price, p.image_url,
		p.stock_quantity, p.created_at, p.updated_at`
)

// Store reads and writes products and categories. Reads go through the
// catalog cache; every write invalidates it.
type Store struct {
	db    *sql.DB
	cache *cache.CatalogCache
	log   *zap.Logger
}

func NewStore(db *sql.DB, c *cache.CatalogCache, log *zap.Logger) *Store {
	return &Store{db: db, cache: c, log: log}
}

// Invalidate drops cached catalog data. Failures are logged only: the
// entries still expire after the cache TTL.
func (s *Store) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Error("Failed to invalidate catalog cache", zap.Error(err))
	}
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := cache.Load(ctx, s.cache, "categories", s.loadCategories)
	if err != nil {
		return nil, apperrors.Internal("Failed to load categories", err)
	}
	return categories, nil
}

func (s *Store) loadCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug, description, created_at FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// ListProducts returns the products matching filter, ordered by name.
// The whole catalog is loaded (and cached) and filtered in process.
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := cache.Load(ctx, s.cache, "products", s.loadProducts)
	if err != nil {
		return nil, apperrors.Internal("Failed to load products", err)
	}
	return models.FilterProducts(products, filter), nil
}

func (s *Store) loadProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productSelectFields+" FROM products p ORDER BY p.name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner, extra ...any) (models.Product, error) {
	var p models.Product
	var categoryID sql.NullInt64
	dest := []any{
		&p.ID, &categoryID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
		&p.StockQuantity, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return p, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	p.StockStatus = models.StockStatusFor(p.StockQuantity)
	return p, nil
}

// GetProduct returns one product with its category name.
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := cache.Load(ctx, s.cache, fmt.Sprintf("product:%d", id), func(ctx context.Context) (*models.Product, error) {
		return s.loadProduct(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Failed to load product", err)
	}
	return p, nil
}

func (s *Store) loadProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := "SELECT " + productSelectFields + `, c.name
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`

	var categoryName sql.NullString
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id), &categoryName)
	if err != nil {
		return nil, err
	}
	p.CategoryName = categoryName.String
	return &p, nil
}

// SearchProducts serves the shopping assistant's catalog lookups.
func (s *Store) SearchProducts(ctx context.Context, query string, categoryID *int64) ([]models.Product, error) {
	return s.ListProducts(ctx, models.ProductFilter{CategoryID: categoryID, Query: query})
}

func mysqlErrorNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}
