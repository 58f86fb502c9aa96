package models

import (
	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

// MaxLineQuantity bounds a single line; the storefront API takes 32-bit quantities.
const MaxLineQuantity = 999

// CartItem is one purchasable line. ID matches the remote variant id.
type CartItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Variant  string          `json:"variant"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type AppliedCoupon struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	ItemCount      int             `json:"item_count"`
}

type CartSnapshot struct {
	Items          []CartItem     `json:"items"`
	RemoteCartID   string         `json:"remote_cart_id,omitempty"`
	Coupon         *AppliedCoupon `json:"coupon,omitempty"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	Totals         Totals         `json:"totals"`
}

// PersistedCart is the subset of cart state kept in the key-value store.
type PersistedCart struct {
	Items          []CartItem
	RemoteCartID   string
	Coupon         *AppliedCoupon
	ShippingMethod ShippingMethod
}
