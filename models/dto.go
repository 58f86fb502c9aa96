package models

import "github.com/shopspring/decimal"

type AddItemRequest struct {
	ID       string          `json:"id" binding:"required"`
	Title    string          `json:"title" binding:"required"`
	Variant  string          `json:"variant"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity" binding:"omitempty,min=1,max=999"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type ShippingMethodRequest struct {
	Method ShippingMethod `json:"method" binding:"required,oneof=standard express"`
}

type ProductQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	Sort     string `form:"sort" binding:"omitempty,oneof=price_asc price_desc title newest"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}
