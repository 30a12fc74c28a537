package handlers

import (
	"net/http"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gin-gonic/gin"
)

// --- Category Handlers ---

// ListCategories (Public) GET /v1/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory (Admin Only) POST /v1/admin/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input models.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	category, err := h.Catalog.CreateCategory(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

// DeleteCategory (Admin Only) DELETE /v1/admin/categories/:id
// Products in the category are kept and become uncategorized.
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
