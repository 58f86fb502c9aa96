package controllers

import (
	"crystal-shop/middleware"
	"crystal-shop/models"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	registry *services.CartRegistry
	checkout *services.CheckoutService
}

func NewCheckoutController(registry *services.CartRegistry, checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{registry: registry, checkout: checkout}
}

// @Summary Get checkout URL
// @Description Resolve the hosted checkout URL for the shopper's remote cart
// @Tags Checkout
// @Produce json
// @Success 200 {object} models.Response{data=models.CheckoutResponse}
// @Failure 409 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /checkout [get]
func (ctrl *CheckoutController) GetCheckoutURL(c *gin.Context) {
	cart := ctrl.registry.Get(c.Request.Context(), middleware.SessionID(c))

	url, err := ctrl.checkout.CheckoutURL(c.Request.Context(), cart)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Checkout ready", models.CheckoutResponse{CheckoutURL: url})
}
