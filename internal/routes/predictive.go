package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// registerPredictiveRoutes 注册预测模型路由组
func registerPredictiveRoutes(g *echo.Group, deps *Deps) {
	// 活动表现预测。先通过服务间客户端确认分析服务可达，
	// 模型推理由预测层实现
	g.POST("/campaign-performance", func(c echo.Context) error {
		var req struct {
			CampaignID string `json:"campaign_id"`
		}
		if err := c.Bind(&req); err != nil || req.CampaignID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "缺少campaign_id字段"})
		}

		status := deps.Client.HealthCheck(c.Request().Context(), "analytics")
		if !status.Healthy() {
			deps.Logger.Warn("分析服务不可达，预测请求被拒绝", zap.String("error", status.Error))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "分析服务暂时不可用"})
		}

		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"campaign_id": req.CampaignID,
			"status":      "queued",
		})
	})
}
