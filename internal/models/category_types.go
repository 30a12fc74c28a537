package models

import "time"

// Category defines the struct for the 'categories' table
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// CreateCategoryInput is the admin payload for a new category.
type CreateCategoryInput struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description" binding:"max=2000"`
}
