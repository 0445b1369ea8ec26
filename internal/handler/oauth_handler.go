package handler

import (
	"errors"
	"net/http"

	"tipjar/internal/service"
	"tipjar/pkg/yoomoney"

	"github.com/gin-gonic/gin"
)

type OAuthHandler struct {
	gateway *yoomoney.Client
	tokens  *service.TokenStore
}

func NewOAuthHandler(gateway *yoomoney.Client, tokens *service.TokenStore) *OAuthHandler {
	return &OAuthHandler{gateway: gateway, tokens: tokens}
}

// Authorize redirects the operator to the gateway consent screen.
func (h *OAuthHandler) Authorize(c *gin.Context) {
	c.Redirect(http.StatusFound, h.gateway.AuthCodeURL())
}

const callbackPage = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Authorized</title></head>
<body>
  <h1>Authorization successful</h1>
  <p>Access token: <code>%s</code></p>
  <p>The token is stored on the server.</p>
  <p><a href="/">Back to the donation page</a></p>
</body>
</html>`

// Callback exchanges the authorization code for a bearer token and stores it.
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "authorization code missing")
		return
	}
	token, err := h.gateway.Exchange(c.Request.Context(), code)
	if err != nil {
		c.String(http.StatusInternalServerError, "token exchange failed: %v", err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, callbackPage, maskToken(token))
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}

// AuthStatus reports whether a token is stored, with only a masked prefix.
func (h *OAuthHandler) AuthStatus(c *gin.Context) {
	token, err := h.tokens.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read token"})
		return
	}
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authorized": false, "token": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorized": true, "token": maskToken(token)})
}

func (h *OAuthHandler) Revoke(c *gin.Context) {
	if err := h.tokens.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OperationHistory passes the raw gateway history through for debugging.
func (h *OAuthHandler) OperationHistory(c *gin.Context) {
	raw, err := h.gateway.OperationHistory(c.Request.Context(), 30)
	if err != nil {
		h.gatewayError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// TestToken is a diagnostic: calls account-info with the stored token.
func (h *OAuthHandler) TestToken(c *gin.Context) {
	info, err := h.gateway.AccountInfo(c.Request.Context())
	if err != nil {
		if errors.Is(err, yoomoney.ErrNoToken) {
			c.JSON(http.StatusOK, gin.H{"error": "token not set, authorize via /oauth/authorize"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token check failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": info})
}

func (h *OAuthHandler) AccountInfo(c *gin.Context) {
	info, err := h.gateway.AccountInfo(c.Request.Context())
	if err != nil {
		h.gatewayError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// gatewayError maps remote ledger failures: missing token to 401, everything
// else to 500 with the upstream payload surfaced.
func (h *OAuthHandler) gatewayError(c *gin.Context, err error) {
	if errors.Is(err, yoomoney.ErrNoToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	var apiErr *yoomoney.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gateway error", "details": apiErr.Body})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "gateway error", "details": err.Error()})
}
