package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// onboardingSteps 客户接入向导的步骤定义
var onboardingSteps = []string{
	"company_profile",
	"connect_platforms",
	"import_campaigns",
	"configure_goals",
	"invite_team",
}

// registerOnboardingRoutes 注册客户接入路由组
func registerOnboardingRoutes(g *echo.Group, deps *Deps) {
	// 返回接入向导的步骤列表
	g.GET("/steps", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"steps": onboardingSteps,
			"count": len(onboardingSteps),
		})
	})

	// 完成某个步骤。进度持久化由业务层实现
	g.POST("/steps/:step/complete", func(c echo.Context) error {
		step := c.Param("step")
		for _, s := range onboardingSteps {
			if s == step {
				return c.JSON(http.StatusOK, map[string]interface{}{
					"step":   step,
					"status": "completed",
				})
			}
		}
		return c.JSON(http.StatusNotFound, map[string]string{"error": "未知的接入步骤: " + step})
	})
}
