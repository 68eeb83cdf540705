package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tier represents the loyalty classification of a client, derived from
// order history. It is never set directly outside ClassifyTier.
type Tier string

const (
	TierBasic    Tier = "BASIC"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// Spend thresholds for tier classification.
var (
	platinumSpendThreshold = decimal.NewFromInt(15000)
	goldSpendThreshold     = decimal.NewFromInt(5000)
	silverSpendThreshold   = decimal.NewFromInt(1000)
)

// Sub-total thresholds a tier must clear before its discount applies.
var (
	platinumDiscountMinimum = decimal.NewFromInt(1200)
	goldDiscountMinimum     = decimal.NewFromInt(800)
	silverDiscountMinimum   = decimal.NewFromInt(500)
)

// Client represents a storefront client with loyalty statistics
type Client struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Email          string          `gorm:"uniqueIndex;not null" json:"email"`
	CustomerTier   Tier            `gorm:"not null;default:'BASIC'" json:"customer_tier"`
	TotalOrders    int             `gorm:"not null;default:0" json:"total_orders"`
	TotalSpent     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_spent"`
	FirstOrderDate *time.Time      `json:"first_order_date"`
	LastOrderDate  *time.Time      `json:"last_order_date"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// ClassifyTier maps a client's historical order count and cumulative spend
// to a loyalty tier. Rules are evaluated high-to-low, first match wins.
func ClassifyTier(totalOrders int, totalSpent decimal.Decimal) Tier {
	switch {
	case totalOrders >= 20 || totalSpent.GreaterThanOrEqual(platinumSpendThreshold):
		return TierPlatinum
	case totalOrders >= 10 || totalSpent.GreaterThanOrEqual(goldSpendThreshold):
		return TierGold
	case totalOrders >= 3 || totalSpent.GreaterThanOrEqual(silverSpendThreshold):
		return TierSilver
	default:
		return TierBasic
	}
}

// DiscountPercentage returns the loyalty discount rate a tier grants for a
// given order sub-total. A tier only grants its discount once the sub-total
// clears the tier's minimum.
func (t Tier) DiscountPercentage(subTotal decimal.Decimal) decimal.Decimal {
	switch t {
	case TierPlatinum:
		if subTotal.GreaterThanOrEqual(platinumDiscountMinimum) {
			return decimal.NewFromInt(15)
		}
	case TierGold:
		if subTotal.GreaterThanOrEqual(goldDiscountMinimum) {
			return decimal.NewFromInt(10)
		}
	case TierSilver:
		if subTotal.GreaterThanOrEqual(silverDiscountMinimum) {
			return decimal.NewFromInt(5)
		}
	}
	return decimal.Zero
}

// ApplyOrderStatistics records a confirmed order against the client's
// loyalty history and re-runs the tier classifier. Only called when an
// order transitions to CONFIRMED.
func (c *Client) ApplyOrderStatistics(grossTotal decimal.Decimal, at time.Time) {
	c.TotalOrders++
	c.TotalSpent = c.TotalSpent.Add(grossTotal)
	if c.FirstOrderDate == nil {
		first := at
		c.FirstOrderDate = &first
	}
	last := at
	c.LastOrderDate = &last
	c.CustomerTier = ClassifyTier(c.TotalOrders, c.TotalSpent)
}
