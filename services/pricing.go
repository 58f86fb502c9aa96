package services

import (
	"crystal-shop/models"

	"github.com/shopspring/decimal"
)

type PricingRules struct {
	FreeShippingThreshold decimal.Decimal
	StandardFee           decimal.Decimal
	ExpressFee            decimal.Decimal
}

func DefaultPricingRules() PricingRules {
	return PricingRules{
		FreeShippingThreshold: decimal.NewFromInt(99),
		StandardFee:           decimal.NewFromInt(9),
		ExpressFee:            decimal.NewFromInt(15),
	}
}

func Subtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func ItemCount(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// ShippingCost charges express at the flat fee regardless of the cart.
// Standard shipping is free for an empty cart and at or above the threshold.
func (r PricingRules) ShippingCost(method models.ShippingMethod, subtotal decimal.Decimal, itemCount int) decimal.Decimal {
	if method == models.ShippingExpress {
		return r.ExpressFee
	}
	if itemCount == 0 || subtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		return decimal.Zero
	}
	return r.StandardFee
}

// Totals derives every amount from the cart state; the final total never goes below zero.
func (r PricingRules) Totals(items []models.CartItem, method models.ShippingMethod, coupon *models.AppliedCoupon) models.Totals {
	subtotal := Subtotal(items)
	count := ItemCount(items)
	shipping := r.ShippingCost(method, subtotal, count)

	discount := decimal.Zero
	if coupon != nil {
		discount = coupon.Amount
	}

	final := subtotal.Add(shipping).Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return models.Totals{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		DiscountAmount: discount,
		FinalTotal:     final,
		ItemCount:      count,
	}
}
