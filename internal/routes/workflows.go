package routes

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hewenyu/meshkit/internal/registry"
)

// registerWorkflowRoutes 注册工作流路由组
func registerWorkflowRoutes(g *echo.Group, deps *Deps) {
	// 触发一个营销工作流。执行前校验声明的依赖服务是否可达
	g.POST("/trigger", func(c echo.Context) error {
		var req struct {
			WorkflowType string `json:"workflow_type"`
		}
		if err := c.Bind(&req); err != nil || req.WorkflowType == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "缺少workflow_type字段"})
		}

		report := deps.Registry.CheckDependencies(c.Request().Context(), registry.ServiceWorkflows, deps.Client)
		if !report.AllHealthy() {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"error":   "依赖服务不可达",
				"missing": report.Missing,
			})
		}

		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"workflow_id":   uuid.NewString(),
			"workflow_type": req.WorkflowType,
			"status":        "triggered",
		})
	})
}
