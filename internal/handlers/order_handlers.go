package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/database"
	"github.com/01moynul/greens-storefront/internal/email"
	"github.com/01moynul/greens-storefront/internal/logger"
	"github.com/01moynul/greens-storefront/internal/middleware"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//
// --- Checkout & Receipt Handlers ---
//

// checkoutLine is a locked cart line with the product's current state.
type checkoutLine struct {
	ProductID int64
	Quantity  int
	Name      string
	ImageURL  string
	Price     float64 // The *current* price from the products table
	Stock     int
}

// lockCartLines reads the session's cart with SELECT ... FOR UPDATE so the
// stock it sees cannot change before the transaction ends.
func lockCartLines(ctx context.Context, tx database.Querier, sessionID string) ([]checkoutLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, ci.quantity, p.name, p.image_url, p.price, p.stock_quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.session_id = ?
		ORDER BY ci.created_at ASC, ci.id ASC
		FOR UPDATE`, sessionID)
	if err != nil {
		return nil, apperrors.Internal("Failed to get cart items", err)
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.Name, &l.ImageURL, &l.Price, &l.Stock); err != nil {
			return nil, apperrors.Internal("Failed to scan cart item", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("Error iterating cart items", err)
	}
	return lines, nil
}

// placeOrder turns the session's cart into a pending order. It must run
// inside a transaction: the product rows are locked until commit.
func placeOrder(ctx context.Context, tx database.Querier, sessionID string, customer models.CustomerDetails) (*models.Order, []models.ReceiptItem, error) {
	// 1. --- Get cart items AND lock the product rows ---
	lines, err := lockCartLines(ctx, tx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if len(lines) == 0 {
		return nil, nil, apperrors.BadRequest("Your cart is empty")
	}

	// 2. --- Check Stock & Calculate Total ---
	var total float64
	for _, l := range lines {
		if l.Stock < l.Quantity {
			return nil, nil, apperrors.Conflict(fmt.Sprintf("Not enough stock for %s", l.Name))
		}
		total += l.Price * float64(l.Quantity)
	}

	now := time.Now()
	order := &models.Order{
		ID:              uuid.NewString(),
		SessionID:       sessionID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		DeliveryAddress: customer.Address,
		TotalAmount:     models.RoundCents(total),
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 3. --- Create the order ---
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		(id, session_id, customer_name, customer_email, customer_phone, delivery_address, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.SessionID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.DeliveryAddress, order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to create order", err)
	}

	// 4. --- Snapshot items & deduct stock ---
	items := make([]models.ReceiptItem, 0, len(lines))
	for _, l := range lines {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)",
			order.ID, l.ProductID, l.Quantity, l.Price)
		if err != nil {
			return nil, nil, apperrors.Internal("Failed to save order item", err)
		}
		itemID, _ := res.LastInsertId()

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = ? WHERE id = ?",
			l.Quantity, now, l.ProductID)
		if err != nil {
			return nil, nil, apperrors.Internal("Failed to deduct stock", err)
		}

		items = append(items, models.ReceiptItem{
			OrderItem: models.OrderItem{
				ID:        itemID,
				OrderID:   order.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Price:     l.Price,
			},
			ProductName: l.Name,
			ImageURL:    l.ImageURL,
			LineTotal:   models.RoundCents(l.Price * float64(l.Quantity)),
		})
	}

	// 5. --- Clear the Cart ---
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE session_id = ?", sessionID); err != nil {
		return nil, nil, apperrors.Internal("Failed to clear cart", err)
	}

	return order, items, nil
}

// Checkout is the handler for POST /v1/checkout
// An empty cart is reported before the customer form is validated.
func (h *Handlers) Checkout(c *gin.Context) {
	var input models.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	// 1. --- Reject an empty cart ---
	var lineCount int
	err := h.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM cart_items WHERE session_id = ?", sessionID).Scan(&lineCount)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to get cart items", err))
		return
	}
	if lineCount == 0 {
		h.respondError(c, apperrors.BadRequest("Your cart is empty"))
		return
	}

	// 2. --- Validate the customer form ---
	customer := input.Customer()
	if err := customer.Validate(); err != nil {
		h.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}

	// 3. --- Begin Transaction ---
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to start transaction", err))
		return
	}
	defer tx.Rollback() // Safety net

	order, items, err := placeOrder(ctx, tx, sessionID, customer)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 4. --- Commit Transaction ---
	if err := tx.Commit(); err != nil {
		h.respondError(c, apperrors.Internal("Failed to commit order", err))
		return
	}

	// Stock changed.
	h.Catalog.Invalidate(ctx)

	logger.FromContext(c, h.Log).Info("Order placed",
		zap.String("order_id", order.ID),
		zap.Int("items", len(items)),
		zap.Float64("total", order.TotalAmount),
	)
	h.sendConfirmation(order, items)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// sendConfirmation mails the receipt in the background. The order is
// already committed, so a failure is only logged.
func (h *Handlers) sendConfirmation(order *models.Order, items []models.ReceiptItem) {
	if h.Mailer == nil {
		return
	}
	subject, body := email.OrderConfirmation(order, items)

	h.background.Add(1)
	go func() {
		defer h.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := h.Mailer.Send(ctx, order.CustomerEmail, subject, body); err != nil {
			h.Log.Error("Failed to send order confirmation",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		}
	}()
}

const orderSelectFields = `id, customer_name, customer_email, customer_phone, delivery_address,
	total_amount, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.DeliveryAddress,
		&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// loadReceipt returns an order with its items and their product details.
func loadReceipt(ctx context.Context, q database.Querier, orderID string) (*models.Order, []models.ReceiptItem, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, "SELECT "+orderSelectFields+" FROM orders WHERE id = ?", orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperrors.NotFound("Order not found")
		}
		return nil, nil, apperrors.Internal("Failed to load order", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, p.name, p.image_url
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ?
		ORDER BY oi.id ASC`, orderID)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to load order items", err)
	}
	defer rows.Close()

	items := []models.ReceiptItem{}
	for rows.Next() {
		var item models.ReceiptItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&item.ProductName, &item.ImageURL); err != nil {
			return nil, nil, apperrors.Internal("Failed to scan order item", err)
		}
		item.LineTotal = models.RoundCents(item.Price * float64(item.Quantity))
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Internal("Error iterating order items", err)
	}
	return order, items, nil
}

// GetOrder is the handler for GET /v1/orders/:id
// Order IDs are random UUIDs, so knowing the ID is what grants access.
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	if _, err := uuid.Parse(orderID); err != nil {
		h.respondError(c, apperrors.NotFound("Order not found"))
		return
	}

	order, items, err := loadReceipt(c.Request.Context(), h.DB, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}
