package models

// CartLine is a 'cart_items' row joined with the product it refers to.
// A session holds at most one line per product.
type CartLine struct {
	ID            int64   `json:"id"`
	ProductID     int64   `json:"productId"`
	Quantity      int     `json:"quantity"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"imageUrl"`
	StockQuantity int     `json:"stockQuantity"`
	LineTotal     float64 `json:"lineTotal"`
}

// Cart is the session's cart as returned to the storefront.
type Cart struct {
	Items       []CartLine `json:"items"`
	TotalAmount float64    `json:"totalAmount"`
	TotalItems  int        `json:"totalItems"`
}

// NewCart computes line and cart totals. A nil slice renders as [].
func NewCart(lines []CartLine) Cart {
	cart := Cart{Items: make([]CartLine, 0, len(lines))}
	for _, l := range lines {
		l.LineTotal = RoundCents(l.Price * float64(l.Quantity))
		cart.TotalAmount += l.Price * float64(l.Quantity)
		cart.TotalItems += l.Quantity
		cart.Items = append(cart.Items, l)
	}
	cart.TotalAmount = RoundCents(cart.TotalAmount)
	return cart
}

// AddToCartInput defines the JSON for adding an item to the cart.
// Quantity may be omitted, in which case one unit is added.
type AddToCartInput struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"omitempty,gt=0,max=10000"`
}

// UpdateCartItemInput sets a line's quantity. Zero or less removes the line.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,max=10000"`
}
