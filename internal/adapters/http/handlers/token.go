package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/adapters/oauth"
)

// Granter issues access tokens for grant requests.
type Granter interface {
	Grant(ctx context.Context, req oauth.GrantRequest) (*oauth.Token, error)
}

// TokenHandler handles the OAuth token endpoint.
type TokenHandler struct {
	granter Granter
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(granter Granter) *TokenHandler {
	return &TokenHandler{granter: granter}
}

// Token handles POST /oauth/token. The password grant accepts the account
// email as either username or email.
func (h *TokenHandler) Token(c *gin.Context) {
	params := dto.ReadParams(c)

	username := params.String("username")
	if username == "" {
		username = params.String("email")
	}

	token, err := h.granter.Grant(c.Request.Context(), oauth.GrantRequest{
		GrantType: params.String("grant_type"),
		Username:  username,
		Password:  params.String("password"),
		Provider:  params.String("provider"),
		Assertion: params.String("assertion"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, token)
}

// RegisterTokenRoutes registers POST /oauth/token.
func (h *TokenHandler) RegisterTokenRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.Token)
}
