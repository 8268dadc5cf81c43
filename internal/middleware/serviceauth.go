// Package middleware 提供服务进程入站方向的服务间认证中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hewenyu/meshkit/internal/config"
	"github.com/hewenyu/meshkit/pkg/auth"
	"github.com/hewenyu/meshkit/pkg/correlation"
)

// echo context中存放调用方身份的键
const (
	// ContextKeyCallingService 调用方服务名称
	ContextKeyCallingService = "calling_service"
	// ContextKeyServiceClaims 完整的服务令牌声明
	ContextKeyServiceClaims = "service_claims"
)

// publicPaths 无需认证即可访问的路径白名单
var publicPaths = map[string]bool{
	"/":             true,
	"/health":       true,
	"/docs":         true,
	"/openapi.json": true,
}

// ServiceAuthConfig 服务认证中间件配置
type ServiceAuthConfig struct {
	Auth    *auth.ServiceAuth
	Logger  config.Logger
	Enabled bool // 单体模式下显式关闭
}

// ServiceAuth 返回服务间认证中间件。
//
// 处理顺序：白名单路径放行；认证禁用时放行；
// 无令牌但携带X-Service-Name的请求拒绝（自称服务调用必须同时出示令牌，
// 绝不单凭请求头信任）；无令牌且无该头的请求视为终端用户请求放行；
// 有令牌则校验，失败返回401，成功后将调用方身份写入请求上下文。
func ServiceAuth(cfg ServiceAuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 白名单路径直接放行
			if publicPaths[c.Request().URL.Path] {
				return next(c)
			}

			// 认证禁用（中间件关闭或未配置密钥）时放行
			if !cfg.Enabled || cfg.Auth == nil || !cfg.Auth.Enabled() {
				return next(c)
			}

			token := bearerToken(c.Request())
			if token == "" {
				// 自称服务调用却未出示令牌，拒绝
				if caller := c.Request().Header.Get(correlation.HeaderServiceName); caller != "" {
					cfg.Logger.Warn("服务调用缺少令牌",
						zap.String("claimed_service", caller),
						zap.String("path", c.Request().URL.Path),
					)
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "服务认证失败",
					})
				}
				// 终端用户请求，用户认证由其他层处理
				return next(c)
			}

			claims, err := cfg.Auth.VerifyToken(token)
			if err != nil {
				// 过期与伪造对调用方不可区分，仅在服务端日志中区分
				cfg.Logger.Warn("服务令牌校验失败",
					zap.String("path", c.Request().URL.Path),
					zap.Error(err),
				)
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "服务认证失败",
				})
			}

			// 调用方身份写入请求上下文，供处理器与审计日志使用
			c.Set(ContextKeyCallingService, claims.Service)
			c.Set(ContextKeyServiceClaims, claims)

			return next(c)
		}
	}
}

// bearerToken 从Authorization头中提取bearer令牌，不存在时返回空字符串
func bearerToken(req *http.Request) string {
	authorization := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		return authorization[len(prefix):]
	}
	return ""
}
