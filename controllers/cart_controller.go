package controllers

import (
	"net/http"

	"crystal-shop/middleware"
	"crystal-shop/models"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	registry *services.CartRegistry
}

func NewCartController(registry *services.CartRegistry) *CartController {
	return &CartController{registry: registry}
}

func (ctrl *CartController) cart(c *gin.Context) *services.CartService {
	return ctrl.registry.Get(c.Request.Context(), middleware.SessionID(c))
}

// @Summary Get cart
// @Description Get the shopper's cart with computed totals
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Router /cart [get]
func (ctrl *CartController) GetCart(c *gin.Context) {
	respondOK(c, "Cart retrieved", ctrl.cart(c).Snapshot())
}

// @Summary Get cart item count
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response
// @Router /cart/count [get]
func (ctrl *CartController) GetItemCount(c *gin.Context) {
	respondOK(c, "Item count retrieved", gin.H{"count": ctrl.cart(c).TotalItemCount()})
}

// @Summary Add item to cart
// @Description Adds a product variant; the same variant is merged into one line
// @Tags Cart
// @Accept json
// @Produce json
// @Param request body models.AddItemRequest true "Item"
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Failure 400 {object} models.ErrorResponse
// @Router /cart/items [post]
func (ctrl *CartController) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cart := ctrl.cart(c)
	item := models.CartItem{
		ID:      req.ID,
		Title:   req.Title,
		Variant: req.Variant,
		Price:   req.Price,
		Image:   req.Image,
	}
	if _, err := cart.AddItem(c.Request.Context(), item, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Item added to cart", cart.Snapshot())
}

// @Summary Update item quantity
// @Tags Cart
// @Accept json
// @Produce json
// @Param id path string true "Variant ID (URL-encoded)"
// @Param request body models.UpdateQuantityRequest true "Quantity"
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/items/{id} [patch]
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	var req models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Quantity < 1 {
		respondError(c, services.NewInvalidArgument(services.ErrMsgQuantityPositive))
		return
	}
	if req.Quantity > models.MaxLineQuantity {
		respondError(c, services.NewInvalidArgument(services.ErrMsgQuantityTooLarge))
		return
	}

	cart := ctrl.cart(c)
	if !cart.UpdateQuantity(c.Request.Context(), c.Param("id"), req.Quantity) {
		respondFail(c, http.StatusNotFound, "Item not found in cart", nil)
		return
	}
	respondOK(c, "Quantity updated", cart.Snapshot())
}

// @Summary Remove item from cart
// @Tags Cart
// @Produce json
// @Param id path string true "Variant ID (URL-encoded)"
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/items/{id} [delete]
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	cart := ctrl.cart(c)
	if !cart.RemoveItem(c.Request.Context(), c.Param("id")) {
		respondFail(c, http.StatusNotFound, "Item not found in cart", nil)
		return
	}
	respondOK(c, "Item removed from cart", cart.Snapshot())
}

// @Summary Clear cart
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Router /cart [delete]
func (ctrl *CartController) ClearCart(c *gin.Context) {
	cart := ctrl.cart(c)
	cart.Clear(c.Request.Context())
	respondOK(c, "Cart cleared", cart.Snapshot())
}

// @Summary Apply coupon
// @Description Validates the code against the commerce backend and freezes the discount
// @Tags Cart
// @Accept json
// @Produce json
// @Param request body models.ApplyCouponRequest true "Coupon"
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /cart/coupon [post]
func (ctrl *CartController) ApplyCoupon(c *gin.Context) {
	var req models.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cart := ctrl.cart(c)
	if _, err := cart.ApplyCoupon(c.Request.Context(), req.Code); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, services.MsgDiscountApplied, cart.Snapshot())
}

// @Summary Remove coupon
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Router /cart/coupon [delete]
func (ctrl *CartController) RemoveCoupon(c *gin.Context) {
	cart := ctrl.cart(c)
	cart.RemoveCoupon(c.Request.Context())
	respondOK(c, "Coupon removed", cart.Snapshot())
}

// @Summary Set shipping method
// @Tags Cart
// @Accept json
// @Produce json
// @Param request body models.ShippingMethodRequest true "Shipping method"
// @Success 200 {object} models.Response{data=models.CartSnapshot}
// @Failure 400 {object} models.ErrorResponse
// @Router /cart/shipping [put]
func (ctrl *CartController) SetShippingMethod(c *gin.Context) {
	var req models.ShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, services.ErrMsgInvalidShipping, err)
		return
	}

	cart := ctrl.cart(c)
	if err := cart.SetShippingMethod(c.Request.Context(), req.Method); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Shipping method updated", cart.Snapshot())
}
