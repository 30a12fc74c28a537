package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/auth"
	"github.com/01moynul/greens-storefront/internal/catalog"
	"github.com/01moynul/greens-storefront/internal/email"
	"github.com/01moynul/greens-storefront/internal/logger"
	"github.com/01moynul/greens-storefront/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// mailTimeout bounds one background confirmation send.
const mailTimeout = 30 * time.Second

// Assistant is the shopping assistant the chat endpoint talks to.
type Assistant interface {
	Reply(ctx context.Context, message string) (string, int, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB        *sql.DB
	Catalog   *catalog.Store
	Images    storage.ImageStore
	Mailer    email.Sender
	Assistant Assistant // nil when no API key is configured
	Tokens    *auth.Manager
	Log       *zap.Logger

	AdminPasswordHash string
	CartTTL           time.Duration

	background sync.WaitGroup
}

// Wait blocks until background work started by handlers (confirmation
// mail) has finished. Called on shutdown.
func (h *Handlers) Wait() {
	h.background.Wait()
}

// respondError writes err as {"error": message}. Server errors are logged
// with their cause; client errors are not.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if apperrors.IsServerError(appErr) {
		logger.FromContext(c, h.Log).Error(appErr.Message,
			zap.String("path", c.FullPath()),
			zap.Error(appErr.Err),
		)
	}
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest("Invalid " + name)
	}
	return id, nil
}

// Health is the handler for GET /v1/health. It reports whether the database
// answers a ping.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		logger.FromContext(c, h.Log).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
