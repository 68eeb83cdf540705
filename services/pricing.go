package services

import (
	"github.com/shopspring/decimal"

	"github.com/smartshop/smartshop-api/models"
)

var oneHundred = decimal.NewFromInt(100)

// PriceBreakdown is the monetary breakdown of an order computed at
// creation time. All amounts are rounded to 2 decimal places, half up.
type PriceBreakdown struct {
	SubTotal              decimal.Decimal
	LoyaltyDiscountRate   decimal.Decimal
	LoyaltyDiscountAmount decimal.Decimal
	PromoDiscountRate     decimal.Decimal
	PromoDiscountAmount   decimal.Decimal
	TotalDiscount         decimal.Decimal
	NetAmount             decimal.Decimal
	TaxRate               decimal.Decimal
	TaxAmount             decimal.Decimal
	GrossTotal            decimal.Decimal
}

// ComputePricing prices an order from its sub-total (already the sum of
// individually rounded line totals), the client's tier and an optional
// promo discount rate. Rounding happens at every intermediate step, not
// only at the end. The loyalty and promo discount tracks apply
// independently; a valid promo does not suppress the loyalty discount.
// Discounts can never push the net amount below zero.
func ComputePricing(subTotal decimal.Decimal, tier models.Tier, promoRate decimal.Decimal, taxRate decimal.Decimal) PriceBreakdown {
	loyaltyRate := tier.DiscountPercentage(subTotal)
	loyaltyAmount := subTotal.Mul(loyaltyRate).Div(oneHundred).Round(2)

	promoAmount := decimal.Zero
	if promoRate.GreaterThan(decimal.Zero) {
		promoAmount = subTotal.Mul(promoRate).Div(oneHundred).Round(2)
	}

	totalDiscount := loyaltyAmount.Add(promoAmount).Round(2)

	net := subTotal.Sub(totalDiscount).Round(2)
	if net.LessThan(decimal.Zero) {
		net = decimal.Zero
	}

	tax := net.Mul(taxRate).Div(oneHundred).Round(2)
	gross := net.Add(tax).Round(2)

	return PriceBreakdown{
		SubTotal:              subTotal,
		LoyaltyDiscountRate:   loyaltyRate,
		LoyaltyDiscountAmount: loyaltyAmount,
		PromoDiscountRate:     promoRate,
		PromoDiscountAmount:   promoAmount,
		TotalDiscount:         totalDiscount,
		NetAmount:             net,
		TaxRate:               taxRate,
		TaxAmount:             tax,
		GrossTotal:            gross,
	}
}
