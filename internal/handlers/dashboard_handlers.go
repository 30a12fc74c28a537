package handlers

import (
	"net/http"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Admin Dashboard Stats ---
//

type DashboardStats struct {
	TotalProducts   int            `json:"totalProducts"`
	LowStockCount   int            `json:"lowStockCount"`
	OutOfStockCount int            `json:"outOfStockCount"`
	OrdersByStatus  map[string]int `json:"ordersByStatus"`
	TotalRevenue    float64        `json:"totalRevenue"` // Excludes cancelled orders
}

// GetDashboardStats returns KPI data for the admin dashboard
// GET /v1/admin/dashboard-stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := DashboardStats{OrdersByStatus: map[string]int{}}
	for _, s := range models.OrderStatuses {
		stats.OrdersByStatus[s] = 0
	}

	// 1. Inventory counts
	// We use COALESCE(..., 0) to ensure we return 0 instead of NULL if the table is empty
	err := h.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN stock_quantity BETWEEN 1 AND ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN stock_quantity <= 0 THEN 1 ELSE 0 END), 0)
		FROM products`, models.LowStockThreshold).
		Scan(&stats.TotalProducts, &stats.LowStockCount, &stats.OutOfStockCount)
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to count products", err))
		return
	}

	// 2. Orders per status and revenue
	rows, err := h.DB.QueryContext(ctx, "SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders GROUP BY status")
	if err != nil {
		h.respondError(c, apperrors.Internal("Failed to count orders", err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		var revenue float64
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			h.respondError(c, apperrors.Internal("Failed to scan order stats", err))
			return
		}
		stats.OrdersByStatus[status] = count
		if status != models.StatusCancelled {
			stats.TotalRevenue += revenue
		}
	}
	if err := rows.Err(); err != nil {
		h.respondError(c, apperrors.Internal("Error iterating order stats", err))
		return
	}
	stats.TotalRevenue = models.RoundCents(stats.TotalRevenue)

	c.JSON(http.StatusOK, stats)
}
