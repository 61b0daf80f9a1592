package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/config"
)

// Context keys set by Auth
const (
	UserIDKey   = "user_id"
	UserNameKey = "user_name"
)

// TokenParser validates a bearer token and returns its claims
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// NewCasdoorParser builds a token parser from the auth configuration
func NewCasdoorParser(cfg config.AuthConfig) TokenParser {
	return casdoorsdk.NewClient(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.OrganizationName, cfg.ApplicationName)
}

// Auth requires a valid Casdoor JWT in the Authorization header.
// A nil parser disables authentication.
func Auth(parser TokenParser, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if parser == nil {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
			return
		}

		claims, err := parser.ParseJwtToken(token)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "Rejected token",
				"path", c.Request.URL.Path,
				"remote_addr", c.ClientIP(),
				"error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.Id)
		c.Set(UserNameKey, claims.Name)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
