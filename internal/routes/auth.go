package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hewenyu/meshkit/internal/middleware"
)

// registerAuthRoutes 注册认证路由组
func registerAuthRoutes(g *echo.Group, deps *Deps) {
	// 返回当前请求的调用方身份（经服务认证中间件写入）
	g.GET("/whoami", func(c echo.Context) error {
		caller, _ := c.Get(middleware.ContextKeyCallingService).(string)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"calling_service": caller,
			"authenticated":   caller != "",
			"timestamp":       time.Now(),
		})
	})

	// 令牌校验端点，供其他服务验证持有的服务令牌
	g.POST("/verify", func(c echo.Context) error {
		var req struct {
			Token string `json:"token"`
		}
		if err := c.Bind(&req); err != nil || req.Token == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "缺少token字段"})
		}

		claims, err := deps.Auth.VerifyToken(req.Token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "令牌无效"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"service":        claims.Service,
			"target_service": claims.TargetService,
			"valid":          true,
		})
	})
}

// registerUserRoutes 注册用户路由组
func registerUserRoutes(g *echo.Group, deps *Deps) {
	// 用户资料占位端点，具体CRUD由业务层实现
	g.GET("/profile", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"service": "auth",
			"module":  "users",
		})
	})
}
