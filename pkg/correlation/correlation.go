// Package correlation 提供请求链路关联ID的生成、传递与回显。
//
// 关联ID在请求入口处生成（调用方未携带时），随每次下游调用传递，
// 并在每个响应头中回显，用于跨服务日志关联。
package correlation

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// 服务间调用约定的请求头
const (
	// HeaderCorrelationID 关联ID请求头
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderServiceName 调用方服务身份请求头
	HeaderServiceName = "X-Service-Name"
)

// contextKey 避免与其他包的context键冲突
type contextKey struct{}

// NewID 生成一个新的关联ID
func NewID() string {
	return uuid.NewString()
}

// WithID 将关联ID写入context
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext 从context中读取关联ID，不存在时返回空字符串
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// EnsureID 返回context中的关联ID，不存在时生成新ID
func EnsureID(ctx context.Context) string {
	if id := FromContext(ctx); id != "" {
		return id
	}
	return NewID()
}

// Middleware 返回echo中间件：接受入站关联ID（缺失时生成），
// 写入请求context供处理器与下游调用使用，并在响应头中回显
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// 调用方未携带关联ID时在边缘生成
			id := req.Header.Get(HeaderCorrelationID)
			if id == "" {
				id = NewID()
			}

			// 写入请求context并回显到响应头
			c.SetRequest(req.WithContext(WithID(req.Context(), id)))
			c.Response().Header().Set(HeaderCorrelationID, id)

			return next(c)
		}
	}
}
