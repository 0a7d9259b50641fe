package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/account-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/account-gateway/internal/adapters/oauth"
	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
)

const (
	// ContextKeySubject is the gin context key for the authenticated account ID.
	ContextKeySubject = "subject"

	// AccessTokenParam is the request parameter accepted in place of the
	// Authorization header.
	AccessTokenParam = "access_token"

	bearerPrefix = "bearer "
)

// TokenVerifier validates a bearer access token and returns its subject.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// BearerToken returns the access token from the Authorization header, or
// from the access_token parameter when the header carries none.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}

	return strings.TrimSpace(dto.ReadParams(c).String(AccessTokenParam))
}

// RequireAccessToken rejects requests without a valid bearer token. Failures
// are recorded on the context for the error classifier to answer.
func RequireAccessToken(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			_ = c.Error(oauth.ErrInvalidToken.WithDescription("The access token is missing."))
			c.Abort()

			return
		}

		subject, err := verifier.Verify(raw)
		if err != nil {
			_ = c.Error(err)
			c.Abort()

			return
		}

		c.Set(ContextKeySubject, subject)
		c.Request = c.Request.WithContext(logging.WithAccountID(c.Request.Context(), subject))
		c.Next()
	}
}

// Subject returns the authenticated account ID set by RequireAccessToken.
func Subject(c *gin.Context) (string, bool) {
	subject := c.GetString(ContextKeySubject)
	return subject, subject != ""
}
