package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string, string) {
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderKey, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromGin, fromCtx
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	w, seen, ctxID := serve("abc-123")
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", ctxID)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderKey))
}

func TestMiddlewareReplacesMissingOrMalformedID(t *testing.T) {
	for _, header := range []string{"", strings.Repeat("x", 200), "two words", "badéid"} {
		_, seen, ctxID := serve(header)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err, "header %q", header)
		assert.Equal(t, seen, ctxID)
	}
}

func TestFromContextOutsideRequest(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
}
