package correlation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, FromContext(ctx), "空context中不应有关联ID")

	ctx = WithID(ctx, "req-123")
	assert.Equal(t, "req-123", FromContext(ctx))
	assert.Equal(t, "req-123", EnsureID(ctx), "已有关联ID时EnsureID应返回原值")

	generated := EnsureID(context.Background())
	assert.NotEmpty(t, generated, "无关联ID时EnsureID应生成新ID")
}

func TestMiddlewareGeneratesID(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())

	var seen string
	e.GET("/test", func(c echo.Context) error {
		seen = FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.NotEmpty(t, seen, "中间件应在边缘生成关联ID")
	assert.Equal(t, seen, rec.Header().Get(HeaderCorrelationID), "响应头应回显关联ID")
}

func TestMiddlewarePropagatesInboundID(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())

	var seen string
	e.GET("/test", func(c echo.Context) error {
		seen = FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderCorrelationID, "upstream-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", seen, "调用方携带的关联ID应原样传递")
	assert.Equal(t, "upstream-id", rec.Header().Get(HeaderCorrelationID))
}
