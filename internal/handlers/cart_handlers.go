package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/database"
	"github.com/01moynul/greens-storefront/internal/middleware"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers (anonymous, scoped by cart session) ---
//

// loadCart fetches the session's cart lines joined with their products,
// oldest line first.
func loadCart(ctx context.Context, q database.Querier, sessionID string) (models.Cart, error) {
	query := `
		SELECT ci.id, ci.product_id, ci.quantity, p.name, p.price, p.image_url, p.stock_quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.session_id = ?
		ORDER BY ci.created_at ASC, ci.id ASC`

	rows, err := q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return models.Cart{}, apperrors.Internal("Failed to query cart items", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Quantity, &l.Name, &l.Price, &l.ImageURL, &l.StockQuantity); err != nil {
			return models.Cart{}, apperrors.Internal("Failed to scan cart item", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return models.Cart{}, apperrors.Internal("Error iterating cart items", err)
	}
	return models.NewCart(lines), nil
}

// respondCart writes the session's refreshed cart with the given status.
func (h *Handlers) respondCart(c *gin.Context, status int) {
	cart, err := loadCart(c.Request.Context(), h.DB, middleware.SessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, cart)
}

// GetCart is the handler for GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	h.respondCart(c, http.StatusOK)
}

// AddToCart is the handler for POST /v1/cart/items
// Adding a product that is already in the cart increases that line's
// quantity instead of creating a second line.
func (h *Handlers) AddToCart(c *gin.Context) {
	var input models.AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	// 1. --- Check the product and what the cart already holds ---
	var stock, inCart int
	err := h.DB.QueryRowContext(ctx, `
		SELECT p.stock_quantity, COALESCE(ci.quantity, 0)
		FROM products p
		LEFT JOIN cart_items ci ON ci.product_id = p.id AND ci.session_id = ?
		WHERE p.id = ?`,
		sessionID, input.ProductID).Scan(&stock, &inCart)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.respondError(c, apperrors.NotFound("Product not found"))
			return
		}
		h.respondError(c, apperrors.Internal("Failed to check product stock", err))
		return
	}

	if stock <= 0 {
		h.respondError(c, apperrors.Conflict("This product is out of stock"))
		return
	}
	if input.Quantity > stock-inCart {
		h.respondError(c, apperrors.Conflict("Not enough stock available for this quantity"))
		return
	}

	// 2. --- Insert or merge (upsert on session + product) ---
	now := time.Now()
	_, err = h.DB.ExecContext(ctx, `
		INSERT INTO cart_items (session_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			updated_at = VALUES(updated_at)`,
		sessionID, input.ProductID, input.Quantity, now, now)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to update cart", err))
		return
	}

	h.respondCart(c, http.StatusCreated)
}

// UpdateCartItem is the handler for PUT /v1/cart/items/:id
// A quantity of zero or less removes the line.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	lineID, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var input models.UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	if *input.Quantity <= 0 {
		h.removeCartLine(c, lineID)
		return
	}

	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	// 1. --- Check Stock ---
	var stock int
	err = h.DB.QueryRowContext(ctx, `
		SELECT p.stock_quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.id = ? AND ci.session_id = ?`,
		lineID, sessionID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.respondError(c, apperrors.NotFound("Item not found in cart"))
			return
		}
		h.respondError(c, apperrors.Internal("Failed to check product stock", err))
		return
	}
	if stock < *input.Quantity {
		h.respondError(c, apperrors.Conflict("Not enough stock available for this quantity"))
		return
	}

	// 2. --- Execute Update ---
	_, err = h.DB.ExecContext(ctx,
		"UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ? AND session_id = ?",
		*input.Quantity, time.Now(), lineID, sessionID)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to update item", err))
		return
	}

	h.respondCart(c, http.StatusOK)
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	lineID, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.removeCartLine(c, lineID)
}

// removeCartLine deletes one line, checking it belongs to the session.
func (h *Handlers) removeCartLine(c *gin.Context, lineID int64) {
	result, err := h.DB.ExecContext(c.Request.Context(),
		"DELETE FROM cart_items WHERE id = ? AND session_id = ?", lineID, middleware.SessionID(c))
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to delete item", err))
		return
	}

	if n, _ := result.RowsAffected(); n == 0 {
		h.respondError(c, apperrors.NotFound("Item not found in cart"))
		return
	}

	h.respondCart(c, http.StatusOK)
}

// ClearCart is the handler for DELETE /v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	_, err := h.DB.ExecContext(c.Request.Context(),
		"DELETE FROM cart_items WHERE session_id = ?", middleware.SessionID(c))
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to clear cart", err))
		return
	}

	c.JSON(http.StatusOK, models.NewCart(nil))
}
