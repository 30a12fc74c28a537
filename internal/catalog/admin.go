package catalog

import (
	"context"
	"time"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gosimple/slug"
)

// --- Category writes ---

// CreateCategory inserts a category; its slug is derived from the name.
func (s *Store) CreateCategory(ctx context.Context, input models.CreateCategoryInput) (*models.Category, error) {
	cat := models.Category{
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		CreatedAt:   time.Now(),
	}
	if cat.Slug == "" {
		return nil, apperrors.BadRequest("Category name must contain letters or digits")
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, slug, description, created_at) VALUES (?, ?, ?, ?)",
		cat.Name, cat.Slug, cat.Description, cat.CreatedAt)
	if err != nil {
		if mysqlErrorNumber(err) == errDuplicateEntry {
			return nil, apperrors.Conflict("A category with this name already exists")
		}
		return nil, apperrors.Internal("Failed to create category", err)
	}

	cat.ID, err = res.LastInsertId()
	if err != nil {
		return nil, apperrors.Internal("Failed to create category", err)
	}

	s.Invalidate(ctx)
	return &cat, nil
}

// DeleteCategory removes a category. Its products become uncategorized.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return apperrors.Internal("Failed to delete category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("Category not found")
	}

	s.Invalidate(ctx)
	return nil
}

// --- Product writes ---

func (s *Store) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products
		(category_id, name, description, price, image_url, stock_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		input.CategoryID, input.Name, input.Description, models.RoundCents(input.Price),
		input.ImageURL, *input.StockQuantity, now, now)
	if err != nil {
		if mysqlErrorNumber(err) == errNoReferencedRow {
			return nil, apperrors.BadRequest("Unknown category")
		}
		return nil, apperrors.Internal("Failed to create product", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.Internal("Failed to create product", err)
	}

	s.Invalidate(ctx)
	return s.GetProduct(ctx, id)
}

// UpdateProduct replaces every editable field of a product.
func (s *Store) UpdateProduct(ctx context.Context, id int64, input models.ProductInput) (*models.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = ?, name = ?, description = ?, price = ?, image_url = ?, stock_quantity = ?, updated_at = ?
		WHERE id = ?`,
		input.CategoryID, input.Name, input.Description, models.RoundCents(input.Price),
		input.ImageURL, *input.StockQuantity, time.Now(), id)
	if err != nil {
		if mysqlErrorNumber(err) == errNoReferencedRow {
			return nil, apperrors.BadRequest("Unknown category")
		}
		return nil, apperrors.Internal("Failed to update product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperrors.NotFound("Product not found")
	}

	s.Invalidate(ctx)
	return s.GetProduct(ctx, id)
}

// SetImageURL points a product at a freshly uploaded image.
func (s *Store) SetImageURL(ctx context.Context, id int64, url string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE products SET image_url = ?, updated_at = ? WHERE id = ?", url, time.Now(), id)
	if err != nil {
		return apperrors.Internal("Failed to update product image", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("Product not found")
	}

	s.Invalidate(ctx)
	return nil
}

// DeleteProduct removes a product that has never been ordered.
// Cart lines referencing it are removed by the foreign key cascade.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		if mysqlErrorNumber(err) == errRowIsReferenced {
			return apperrors.Conflict("Product has orders and cannot be deleted")
		}
		return apperrors.Internal("Failed to delete product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("Product not found")
	}

	s.Invalidate(ctx)
	return nil
}
