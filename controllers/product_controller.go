package controllers

import (
	"net/http"

	"crystal-shop/models"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// @Summary Get all categories
// @Description Get list of catalog categories
// @Tags Categories
// @Produce json
// @Success 200 {object} models.Response{data=[]models.Category}
// @Failure 502 {object} models.ErrorResponse
// @Router /categories [get]
func (ctrl *ProductController) GetAllCategories(c *gin.Context) {
	categories, err := ctrl.products.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Categories retrieved", categories)
}

// @Summary Get all products
// @Description List the catalog with optional filtering and sorting
// @Tags Products
// @Produce json
// @Param category query string false "Category"
// @Param search query string false "Search in title and description"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param sort query string false "Sort order" Enums(price_asc, price_desc, title, newest)
// @Success 200 {object} models.Response{data=[]models.Product}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /products [get]
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	var query models.ProductQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	filter, err := services.ParseProductFilter(query)
	if err != nil {
		respondError(c, err)
		return
	}

	products, err := ctrl.products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Products retrieved", products)
}
