package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

// SessionHeader carries the session id in both directions
const SessionHeader = "X-Session-ID"

const sessionKey = "session"

// Session resolves the caller's session, creating one when the header is absent or unknown,
// and echoes its id back in the response header.
func Session(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := manager.Resolve(c.Request.Context(), c.GetHeader(SessionHeader))
		if err != nil {
			utils.GetLoggerFromContext(c).ErrorContext(c.Request.Context(), "Failed to resolve session", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Session store unavailable"})
			return
		}

		c.Set(sessionKey, sess)
		c.Header(SessionHeader, sess.ID)
		c.Next()
	}
}

// CurrentSession returns the session resolved by Session
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*models.Session)
	return sess, ok
}
