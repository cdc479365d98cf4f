package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	QtyStock  int             `json:"qty_stock" db:"qty_stock"`
	ImageKey  *string         `json:"-" db:"image_key"`
	ImageURL  string          `json:"image_url,omitempty" db:"-"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductUpdate carries the admin-editable catalog fields.
type ProductUpdate struct {
	Price    decimal.Decimal `json:"price"`
	QtyStock int             `json:"qty_stock"`
}

// ProductPage is the fixed-shape listing envelope returned by GET /products.
type ProductPage struct {
	Data        []*Product `json:"data"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	PerPage     int        `json:"per_page"`
	Total       int        `json:"total"`
}

// LastPageFor returns max(1, ceil(total/perPage)).
func LastPageFor(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		return 1
	}
	return last
}
