package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/gorder-checkout/internal/security"
)

type TokenHandler struct {
	clients security.Clients
	issuer  security.Issuer
}

func NewTokenHandler(clients security.Clients, issuer security.Issuer) *TokenHandler {
	return &TokenHandler{clients: clients, issuer: issuer}
}

// POST /v1/token (form)
// Accepts: client_id, client_secret
func (h *TokenHandler) IssueToken(c *gin.Context) {
	cl, ok := h.clients.Authenticate(c.PostForm("client_id"), c.PostForm("client_secret"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid client"})
		return
	}

	signed, err := h.issuer.Issue(cl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int64(h.issuer.TTL.Seconds()),
	})
}
