package models

import (
	"time"
)

// PromoCode represents a redeemable discount token with an independent
// discount rate, optional expiry, and optional usage cap.
type PromoCode struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Code               string     `gorm:"uniqueIndex;not null;size:10" json:"code"`
	Active             bool       `gorm:"not null;default:true" json:"active"`
	DiscountPercentage int        `gorm:"not null;default:5" json:"discount_percentage"`
	ExpiresAt          *time.Time `json:"expires_at"`
	MaxUses            *int       `json:"max_uses"`
	UsesCount          int        `gorm:"not null;default:0" json:"uses_count"`
	Description        string     `json:"description"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the PromoCode model
func (PromoCode) TableName() string {
	return "promo_codes"
}

// IsValid reports whether the code can be redeemed right now: it must be
// active, not expired, and under its usage cap.
func (p *PromoCode) IsValid() bool {
	if !p.Active {
		return false
	}
	if p.ExpiresAt != nil && time.Now().After(*p.ExpiresAt) {
		return false
	}
	if p.MaxUses != nil && p.UsesCount >= *p.MaxUses {
		return false
	}
	return true
}
