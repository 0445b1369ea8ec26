package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tipjar/config"
	"tipjar/internal/handler"
	"tipjar/internal/middleware"
	"tipjar/internal/service"
	"tipjar/pkg/yoomoney"

	"github.com/gin-gonic/gin"
)

func Setup(cfg *config.Config, donations *service.DonationService, reconciler *service.Reconciler, gateway *yoomoney.Client, tokens *service.TokenStore) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(middleware.NewIPRateLimiter(100, 60*time.Second)))

	paymentHandler := handler.NewPaymentHandler(donations, reconciler, cfg.YooMoney.Receiver)
	oauthHandler := handler.NewOAuthHandler(gateway, tokens)

	oauth := r.Group("/oauth")
	{
		oauth.GET("/authorize", oauthHandler.Authorize)
		oauth.GET("/callback", oauthHandler.Callback)
	}

	api := r.Group("/api")
	{
		api.GET("/auth-status", oauthHandler.AuthStatus)
		api.POST("/revoke-token", oauthHandler.Revoke)
		api.GET("/test-token", oauthHandler.TestToken)
		api.GET("/account-info", oauthHandler.AccountInfo)

		api.POST("/create-payment", paymentHandler.Create)
		api.GET("/payments", paymentHandler.List)
		api.GET("/check-payment", oauthHandler.OperationHistory)
		api.GET("/check-payment/:orderId", paymentHandler.Check)
		api.DELETE("/payment/:orderId", paymentHandler.Delete)
		api.POST("/clear-payments", paymentHandler.Clear)
		api.GET("/stats", paymentHandler.Stats)
		api.GET("/top-donors", paymentHandler.TopDonors)
	}

	// Donor and admin pages are plain static files under ./public.
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		p := filepath.Clean(c.Request.URL.Path)
		if p == "/" || p == "." {
			p = "/index.html"
		}
		full := filepath.Join("public", p)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			c.File(full)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
