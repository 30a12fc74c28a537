package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/storage"
	"github.com/gin-gonic/gin"
)

// maxUploadBody leaves room for the multipart framing around one image.
const maxUploadBody = storage.MaxImageSize + 1<<20

// UploadProductImage handles POST /v1/admin/products/:id/image
// It stores the multipart "file" field and points the product at it.
func (h *Handlers) UploadProductImage(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 1. Get the file from the request
	if c.Request.ContentLength > maxUploadBody {
		h.respondError(c, apperrors.BadRequest(storage.ErrTooLarge.Error()))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, apperrors.BadRequest(storage.ErrTooLarge.Error()))
			return
		}
		h.respondError(c, apperrors.BadRequest("No file uploaded"))
		return
	}
	if header.Size > storage.MaxImageSize {
		h.respondError(c, apperrors.BadRequest(storage.ErrTooLarge.Error()))
		return
	}

	// 2. Make sure the product exists before storing anything
	if _, err := h.Catalog.GetProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, apperrors.BadRequest("Failed to read uploaded file"))
		return
	}
	defer file.Close()

	// 3. Save the file
	url, err := h.Images.Save(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
			h.respondError(c, apperrors.BadRequest(err.Error()))
			return
		}
		h.respondError(c, apperrors.Internal("Failed to save file", err))
		return
	}

	// 4. Attach it to the product and return the public URL
	if err := h.Catalog.SetImageURL(c.Request.Context(), id, url); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
