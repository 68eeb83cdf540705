package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product. The order engine only reads price
// and stock and adjusts stock; catalog lifecycle is owned elsewhere.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Deleted     bool            `gorm:"not null;default:false" json:"deleted"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// IsAvailable reports whether the product can still be ordered
func (p *Product) IsAvailable() bool {
	return !p.Deleted
}

// HasEnoughStock reports whether the product can cover the requested quantity
func (p *Product) HasEnoughStock(quantity int) bool {
	return p.Stock >= quantity
}
