// internal/api/handlers/auth_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yellow444/shelfmetrics/internal/auth"
)

type AuthHandler struct {
	issuer   *auth.TokenIssuer
	identity *auth.IdentityLog
}

func NewAuthHandler(issuer *auth.TokenIssuer, identity *auth.IdentityLog) *AuthHandler {
	return &AuthHandler{issuer: issuer, identity: identity}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userIDRequest struct {
	Token string `json:"token"`
}

// GetToken issues a token for a credential pair. Only subjects present in the
// credential log with the admin ID get a token; everything else is a uniform 403.
func (h *AuthHandler) GetToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid credentials"})
		return
	}

	id, err := h.identity.Lookup(req.Email)
	if err != nil || id != auth.AdminID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.issuer.Issue(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetUserID resolves a token back to the numeric user ID from the credential log.
func (h *AuthHandler) GetUserID(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	subject, err := h.issuer.Verify(req.Token)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
		return
	}

	id, err := h.identity.Lookup(subject)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ID": id})
}
