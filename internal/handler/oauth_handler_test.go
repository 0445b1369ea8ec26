package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthStatusUnauthorized(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth-status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, false, resp["authorized"])
	assert.Nil(t, resp["token"])
}

func TestAuthStatusMasksToken(t *testing.T) {
	env := setupEnv(t)
	assert.NoError(t, env.tokens.Set("4100110000000000000000000000000000000000"))

	w := env.do(t, http.MethodGet, "/api/auth-status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["authorized"])
	token := resp["token"].(string)
	assert.True(t, strings.HasSuffix(token, "..."))
	assert.Equal(t, 15, len(token))
}

func TestRevokeThenAccountInfoUnauthorized(t *testing.T) {
	env := setupEnv(t)
	assert.NoError(t, env.tokens.Set("some-valid-token"))

	w := env.do(t, http.MethodPost, "/api/revoke-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = env.do(t, http.MethodGet, "/api/account-info", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountInfo(t *testing.T) {
	env := setupEnv(t)
	assert.NoError(t, env.tokens.Set("some-valid-token"))

	w := env.do(t, http.MethodGet, "/api/account-info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "410011234567890", resp["account"])
	assert.Equal(t, 42.5, resp["balance"])
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "short", maskToken("short"))
	assert.Equal(t, "123456789012...", maskToken("1234567890123456"))
}
