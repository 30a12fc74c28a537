package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Public Catalog Handlers ---
//

// ListProducts is the handler for GET /v1/products
// Optional query parameters: category (category ID) and q (search text
// matched against name or description, case-insensitively).
func (h *Handlers) ListProducts(c *gin.Context) {
	filter := models.ProductFilter{Query: c.Query("q")}

	if raw := c.Query("category"); raw != "" && raw != "all" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.respondError(c, apperrors.BadRequest("Invalid category"))
			return
		}
		filter.CategoryID = &id
	}

	products, err := h.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

// GetProduct is the handler for GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

//
// --- Admin Product Handlers ---
//

// CreateProduct is the handler for POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": product})
}

// UpdateProduct is the handler for PUT /v1/admin/products/:id
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
}

// DeleteProduct is the handler for DELETE /v1/admin/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
