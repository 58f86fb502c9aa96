package handler

import (
	"encoding/json"
	"net/http"

	"crystal-shop/models"
)

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

var storefrontEndpoints = []endpoint{
	{http.MethodGet, "/products"},
	{http.MethodGet, "/categories"},
	{http.MethodGet, "/cart"},
	{http.MethodGet, "/cart/count"},
	{http.MethodPost, "/cart/items"},
	{http.MethodPatch, "/cart/items/{id}"},
	{http.MethodDelete, "/cart/items/{id}"},
	{http.MethodDelete, "/cart"},
	{http.MethodPost, "/cart/coupon"},
	{http.MethodDelete, "/cart/coupon"},
	{http.MethodPut, "/cart/shipping"},
	{http.MethodGet, "/checkout"},
	{http.MethodPost, "/session/logout"},
}

// Handler describes the storefront API for clients hitting the root path.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(models.Response{
		Success: true,
		Message: "Crystal Shop API",
		Data: map[string]interface{}{
			"docs":             "/swagger/index.html",
			"shipping_methods": []models.ShippingMethod{models.ShippingStandard, models.ShippingExpress},
			"endpoints":        storefrontEndpoints,
		},
	})
}
