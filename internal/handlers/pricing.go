package handlers

import (
	"github.com/shopspring/decimal"

	"backend/internal/models"
)

func roundMoney(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// calculateDiscountPrice derives the persisted discounted unit price. A
// discount of zero (or none) yields nil, not 0 — listings check the pointer.
func calculateDiscountPrice(price float64, discountPercent *float64) *float64 {
	if discountPercent == nil || *discountPercent <= 0 {
		return nil
	}
	discounted := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(100 - *discountPercent)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
	return &discounted
}

// effectiveUnitPrice is the single source of truth for "the price the customer
// pays"; cart, checkout, and order code all go through it.
func effectiveUnitPrice(price float64, discountPrice *float64) float64 {
	if discountPrice != nil && *discountPrice >= 0 {
		return *discountPrice
	}
	return price
}

func hasDiscount(price float64, discountPrice *float64) bool {
	return discountPrice != nil && *discountPrice >= 0 && *discountPrice < price && price > 0
}

func productUnitPrice(product models.Product) float64 {
	return effectiveUnitPrice(product.Price, product.DiscountPrice)
}

// unitAmountMinor converts a unit price to integer minor currency units for
// Stripe line items.
func unitAmountMinor(unitPrice float64) int64 {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
