package controllers

import (
	"errors"
	"net/http"

	"crystal-shop/models"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, models.Response{Success: true, Message: message, Data: data})
}

func respondFail(c *gin.Context, status int, message string, err error) {
	resp := models.ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}

func respondError(c *gin.Context, err error) {
	var cartErr *services.CartError
	if !errors.As(err, &cartErr) {
		_ = c.Error(err)
		respondFail(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	if cartErr.Err != nil {
		_ = c.Error(cartErr.Err)
	}
	c.JSON(statusFor(cartErr.Code), models.ErrorResponse{
		Success: false,
		Message: cartErr.Message,
		Error:   cartErr.Code.String(),
	})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.CodeInvalidArgument:
		return http.StatusBadRequest
	case services.CodeFailedPrecondition:
		return http.StatusConflict
	case services.CodeRejected:
		return http.StatusUnprocessableEntity
	case services.CodeUnavailable:
		return http.StatusBadGateway
	case services.CodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
