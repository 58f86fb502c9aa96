package api

import (
	"net/http"
	"sync"

	"crystal-shop/app"
	"crystal-shop/config"
	"crystal-shop/libs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	application *app.App
	initErr     error
	once        sync.Once
)

func initApp() {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		cfg := config.LoadConfig()
		logger, err := libs.NewLogger(cfg.AppEnv)
		if err != nil {
			logger = zap.NewNop()
		}
		application, initErr = app.New(cfg, logger)
		if initErr != nil {
			logger.Error("failed to initialise application", zap.Error(initErr))
		}
	})
}

func Handler(w http.ResponseWriter, r *http.Request) {
	initApp()
	if initErr != nil {
		http.Error(w, `{"success":false,"message":"Service unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	application.Router.ServeHTTP(w, r)
}
