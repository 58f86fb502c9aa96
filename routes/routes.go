package routes

import (
	"net/http"

	"crystal-shop/controllers"
	"crystal-shop/handler"
	"crystal-shop/middleware"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Dependencies struct {
	Registry      *services.CartRegistry
	Products      *services.ProductService
	Checkout      *services.CheckoutService
	Sessions      *middleware.SessionSigner
	SecureCookies bool
	Logger        *zap.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Variant IDs are URL-encoded GIDs with slashes.
	router.UseRawPath = true

	cartCtrl := controllers.NewCartController(deps.Registry)
	productCtrl := controllers.NewProductController(deps.Products)
	checkoutCtrl := controllers.NewCheckoutController(deps.Registry, deps.Checkout)
	sessionCtrl := controllers.NewSessionController(deps.Registry, deps.SecureCookies)

	router.GET("/", gin.WrapF(handler.Handler))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	router.GET("/categories", productCtrl.GetAllCategories)
	router.GET("/products", productCtrl.GetAllProducts)

	shop := router.Group("/")
	shop.Use(middleware.SessionMiddleware(deps.Sessions, deps.SecureCookies, deps.Logger))
	{
		shop.GET("/cart", cartCtrl.GetCart)
		shop.DELETE("/cart", cartCtrl.ClearCart)
		shop.GET("/cart/count", cartCtrl.GetItemCount)
		shop.POST("/cart/items", cartCtrl.AddItem)
		shop.PATCH("/cart/items/:id", cartCtrl.UpdateQuantity)
		shop.DELETE("/cart/items/:id", cartCtrl.RemoveItem)
		shop.POST("/cart/coupon", cartCtrl.ApplyCoupon)
		shop.DELETE("/cart/coupon", cartCtrl.RemoveCoupon)
		shop.PUT("/cart/shipping", cartCtrl.SetShippingMethod)

		shop.GET("/checkout", checkoutCtrl.GetCheckoutURL)
		shop.POST("/session/logout", sessionCtrl.Logout)
	}
}
