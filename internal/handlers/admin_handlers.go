package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/auth"
	"github.com/01moynul/greens-storefront/internal/logger"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//
// --- Admin: Login ---
//

type AdminLoginInput struct {
	Password string `json:"password" binding:"required"`
}

// AdminLogin is the handler for POST /v1/admin/login
// It exchanges the admin password for a signed token.
func (h *Handlers) AdminLogin(c *gin.Context) {
	if h.Tokens == nil || h.AdminPasswordHash == "" {
		h.respondError(c, apperrors.Unavailable("Admin access is not configured"))
		return
	}

	var input AdminLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	if !auth.CheckPassword(h.AdminPasswordHash, input.Password) {
		logger.FromContext(c, h.Log).Warn("Failed admin login", zap.String("client_ip", c.ClientIP()))
		h.respondError(c, apperrors.Unauthorized("Invalid password"))
		return
	}

	token, err := h.Tokens.GenerateToken(auth.AdminSubject)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to generate token", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

//
// --- Admin: Order Management ---
//

// ListOrders is the handler for GET /v1/admin/orders
// Optional ?status= narrows the list. Newest orders come first.
func (h *Handlers) ListOrders(c *gin.Context) {
	// 1. --- Build Query ---
	query := "SELECT " + orderSelectFields + " FROM orders"
	args := []interface{}{}

	if status := c.Query("status"); status != "" {
		if !slices.Contains(models.OrderStatuses, status) {
			h.respondError(c, apperrors.BadRequest("Invalid status filter"))
			return
		}
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	// 2. --- Execute Query ---
	rows, err := h.DB.QueryContext(c.Request.Context(), query, args...)
	if err != nil {
		h.respondError(c, apperrors.Internal("Database query failed", err))
		return
	}
	defer rows.Close()

	// 3. --- Scan Rows into Slice ---
	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			h.respondError(c, apperrors.Internal("Failed to scan order row", err))
			return
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		h.respondError(c, apperrors.Internal("Error iterating order rows", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails is the handler for GET /v1/admin/orders/:id
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	order, items, err := loadReceipt(c.Request.Context(), h.DB, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

// UpdateOrderStatus is the handler for PATCH /v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var input models.UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	result, err := h.DB.ExecContext(c.Request.Context(),
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?",
		input.Status, time.Now(), orderID)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to update order status", err))
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		h.respondError(c, apperrors.NotFound("Order not found"))
		return
	}

	logger.FromContext(c, h.Log).Info("Order status changed",
		zap.String("order_id", orderID),
		zap.String("status", input.Status),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": input.Status})
}
