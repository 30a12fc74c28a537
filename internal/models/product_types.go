package models

import (
	"math"
	"time"
)

// LowStockThreshold is the highest stock count still flagged as low.
const LowStockThreshold = 5

// Stock status values exposed to the storefront.
const (
	StockInStock    = "in_stock"
	StockLow        = "low_stock"
	StockOutOfStock = "out_of_stock"
)

// Product is the model for the 'products' table.
type Product struct {
	ID            int64     `json:"id" db:"id"`
	CategoryID    *int64    `json:"categoryId" db:"category_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	StockQuantity int       `json:"stockQuantity" db:"stock_quantity"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`

	// Populated on reads, not stored.
	StockStatus  string `json:"stockStatus" db:"-"`
	CategoryName string `json:"categoryName,omitempty" db:"-"`
}

// StockStatusFor maps a stock count to one of the Stock* values.
func StockStatusFor(qty int) string {
	switch {
	case qty <= 0:
		return StockOutOfStock
	case qty <= LowStockThreshold:
		return StockLow
	default:
		return StockInStock
	}
}

// RoundCents rounds an amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	CategoryID    *int64  `json:"categoryId"`
	Name          string  `json:"name" binding:"required,max=200"`
	Description   string  `json:"description" binding:"max=5000"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	ImageURL      string  `json:"imageUrl" binding:"omitempty,url"`
	StockQuantity *int    `json:"stockQuantity" binding:"required,gte=0"`
}
