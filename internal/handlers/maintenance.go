package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PruneStaleCarts deletes cart lines nobody has touched within the cart TTL.
// It is run periodically by the background worker in main.
func (h *Handlers) PruneStaleCarts(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-h.CartTTL)

	result, err := h.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale carts: %w", err)
	}

	removed, _ := result.RowsAffected()
	if removed > 0 {
		h.Log.Info("Pruned stale cart items", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}
