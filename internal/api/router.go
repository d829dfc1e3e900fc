package api

import (
	"github.com/gin-gonic/gin"

	"github.com/setto/setto-payments/internal/logger"
)

// RouterConfig holds the router settings taken from the bridge config.
type RouterConfig struct {
	GinMode        string
	CallbackSecret string
	AllowedOrigins []string
	Logger         logger.Logger
}

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", handler.Health)

	signed := CallbackSignatureMiddleware(cfg.CallbackSecret, log)

	// Deep-link return target for hosts that register an http callback.
	router.GET("/callback", NavigationOnlyMiddleware(), handler.ReturnCallback)

	v1 := router.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("", handler.OpenPayment)
			payments.GET("/current", handler.CurrentPayment)
			payments.GET("/launch", signed, handler.TakeLaunchURL)
			payments.POST("/cancel", handler.CancelPayment)
		}

		v1.GET("/sessions/:session_id", handler.GetSession)

		callbacks := v1.Group("/callbacks")
		{
			callbacks.POST("/deeplink", signed, handler.DeepLinkCallback)
			callbacks.POST("/native", signed, handler.NativeCallback)
		}
	}

	return router
}
