package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/middleware"
	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireClaims writes a 401 and returns nil when the request is unauthenticated.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// pageParams reads page and limit. Absent values fall back to the defaults; malformed
// values are rejected rather than silently replaced.
func pageParams(c *gin.Context, defaultLimit int) (int, int, error) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := intQuery(c, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Validation("invalid %s %q", key, raw)
	}
	return value, nil
}

// dateRange parses from/to as calendar days. The upper bound covers the whole day.
func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, appErrors.Validation("invalid from %q, expected YYYY-MM-DD", raw)
		}
		from = &parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, appErrors.Validation("invalid to %q, expected YYYY-MM-DD", raw)
		}
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}

func boolQuery(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}
