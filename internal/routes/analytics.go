package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// registerAnalyticsRoutes 注册数据分析路由组
func registerAnalyticsRoutes(g *echo.Group, deps *Deps) {
	// 概览数据：通过服务间客户端拉取活动数据后汇总
	g.GET("/overview", func(c echo.Context) error {
		ctx := c.Request().Context()

		campaignData, err := deps.Client.CallCampaigns(ctx, http.MethodGet, "/api/v1/campaigns", nil)
		if err != nil {
			deps.Logger.Warn("拉取活动数据失败", zap.Error(err))
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "活动服务暂时不可用"})
		}

		var campaigns struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(campaignData, &campaigns); err != nil {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "活动数据格式异常"})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"campaign_count": campaigns.Count,
			"generated_at":   time.Now(),
		})
	})
}

// registerReportRoutes 注册报表路由组
func registerReportRoutes(g *echo.Group, deps *Deps) {
	// 报表生成占位端点，图表渲染由报表层实现
	g.POST("", func(c echo.Context) error {
		var req struct {
			Type string `json:"type"`
		}
		if err := c.Bind(&req); err != nil || req.Type == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "缺少type字段"})
		}
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"report_type": req.Type,
			"status":      "queued",
		})
	})
}
