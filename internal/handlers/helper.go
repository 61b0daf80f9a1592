package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/middleware"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// requireSession returns the request's session or aborts with 500 when the session middleware did not run
func requireSession(c *gin.Context) (*models.Session, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "Session unavailable"})
		return nil, false
	}
	return sess, true
}

// ParseIntQuery reads an optional integer query parameter. A missing value yields 0.
func ParseIntQuery(c *gin.Context, param string) (int, bool) {
	raw := strings.TrimSpace(c.Query(param))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: param + " must be an integer",
		})
		return 0, false
	}
	return value, true
}

// ParseListQuery reads a query parameter given either repeatedly or comma separated
func ParseListQuery(c *gin.Context, param string) []string {
	var values []string
	for _, raw := range c.QueryArray(param) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}
