package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
// PENDING is the only non-terminal status.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// IsFinal reports whether the status is terminal
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusCanceled || s == OrderStatusRejected
}

// Order represents a priced order. It exclusively owns its line items and
// payments; both are deleted with the order.
type Order struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"uniqueIndex;not null;size:50" json:"reference"`

	ClientID uint   `gorm:"not null;index" json:"client_id"`
	Client   Client `gorm:"foreignKey:ClientID" json:"client"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments"`

	PromoCodeID *uint      `gorm:"index" json:"promo_code_id,omitempty"`
	PromoCode   *PromoCode `gorm:"foreignKey:PromoCodeID" json:"promo_code,omitempty"`

	OrderDate time.Time `gorm:"not null" json:"order_date"`

	SubTotal              decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"sub_total"`
	LoyaltyDiscountRate   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"loyalty_discount_rate"`
	LoyaltyDiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"loyalty_discount_amount"`
	PromoDiscountRate     decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"promo_discount_rate"`
	PromoDiscountAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"promo_discount_amount"`
	TotalDiscount         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_discount"`
	NetAmount             decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"net_amount"`
	TaxRate               decimal.Decimal `gorm:"type:numeric(5,2);not null;default:20" json:"tax_rate"`
	TaxAmount             decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax_amount"`
	GrossTotal            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"gross_total"`
	AmountPaid            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount_paid"`
	AmountRemaining       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount_remaining"`

	Status            OrderStatus `gorm:"not null;default:'PENDING'" json:"status"`
	ClientTierAtOrder Tier        `gorm:"size:20" json:"client_tier_at_order"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	CanceledAt  *time.Time `json:"canceled_at"`
	Notes       string     `gorm:"size:500" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsFullyPaid reports whether settled payments cover the gross total
func (o *Order) IsFullyPaid() bool {
	return o.AmountRemaining.LessThanOrEqual(decimal.Zero)
}

// CanBeConfirmed reports whether the order is eligible for confirmation
func (o *Order) CanBeConfirmed() bool {
	return o.Status == OrderStatusPending && o.IsFullyPaid()
}

// CanBeCanceled reports whether the order can still be canceled
func (o *Order) CanBeCanceled() bool {
	return o.Status == OrderStatusPending
}

// AppendNote appends a free-text note, separated from existing notes
func (o *Order) AppendNote(note string) {
	if note == "" {
		return
	}
	if o.Notes != "" {
		o.Notes = o.Notes + " | " + note
		return
	}
	o.Notes = note
}
