package models

import (
	"errors"
	"strings"
	"time"
)

// Order status values. Checkout always creates StatusPending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Order is the model for the 'orders' table
type Order struct {
	ID              string    `json:"id" db:"id"`
	SessionID       string    `json:"-" db:"session_id"`
	CustomerName    string    `json:"customerName" db:"customer_name"`
	CustomerEmail   string    `json:"customerEmail" db:"customer_email"`
	CustomerPhone   string    `json:"customerPhone" db:"customer_phone"`
	DeliveryAddress string    `json:"deliveryAddress" db:"delivery_address"`
	TotalAmount     float64   `json:"totalAmount" db:"total_amount"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderItem is the model for the 'order_items' table.
// Price is the unit price at the time of purchase.
type OrderItem struct {
	ID        int64   `json:"id" db:"id"`
	OrderID   string  `json:"orderId" db:"order_id"`
	ProductID int64   `json:"productId" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
}

// ReceiptItem is an order item with the product details a receipt shows.
type ReceiptItem struct {
	OrderItem
	ProductName string  `json:"productName"`
	ImageURL    string  `json:"imageUrl"`
	LineTotal   float64 `json:"lineTotal"`
}

// CheckoutInput carries the customer form. Fields are validated by
// CustomerDetails.Validate rather than binding tags so the shopper gets
// the first failing field's message.
type CheckoutInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CustomerDetails is the trimmed, validated form of CheckoutInput.
type CustomerDetails struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Customer trims the input into CustomerDetails.
func (in CheckoutInput) Customer() CustomerDetails {
	return CustomerDetails{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
}

// Validation failures, checked in this order.
var (
	ErrNameRequired    = errors.New("Please enter your name")
	ErrEmailInvalid    = errors.New("Please enter a valid email address")
	ErrPhoneRequired   = errors.New("Please enter your phone number")
	ErrAddressRequired = errors.New("Please enter your delivery address")
)

// Validate returns the first failing rule, or nil.
func (d CustomerDetails) Validate() error {
	switch {
	case d.Name == "":
		return ErrNameRequired
	case d.Email == "" || !strings.Contains(d.Email, "@"):
		return ErrEmailInvalid
	case d.Phone == "":
		return ErrPhoneRequired
	case d.Address == "":
		return ErrAddressRequired
	}
	return nil
}

// UpdateOrderStatusInput is the admin payload for moving an order along.
type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}
