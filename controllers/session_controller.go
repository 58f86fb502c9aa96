package controllers

import (
	"crystal-shop/middleware"
	"crystal-shop/services"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	registry *services.CartRegistry
	secure   bool
}

func NewSessionController(registry *services.CartRegistry, secure bool) *SessionController {
	return &SessionController{registry: registry, secure: secure}
}

// @Summary Logout
// @Description Clear the shopper's cart and end the session
// @Tags Session
// @Produce json
// @Success 200 {object} models.Response
// @Router /session/logout [post]
func (ctrl *SessionController) Logout(c *gin.Context) {
	ctrl.registry.Release(c.Request.Context(), middleware.SessionID(c))
	middleware.EndSession(c, ctrl.secure)
	respondOK(c, "Logged out", nil)
}
