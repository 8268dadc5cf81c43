package routes

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CampaignRequest 创建广告活动请求
type CampaignRequest struct {
	Name     string  `json:"name"`
	Platform string  `json:"platform"`
	Budget   float64 `json:"budget"`
}

// registerCampaignRoutes 注册广告活动路由组
func registerCampaignRoutes(g *echo.Group, deps *Deps) {
	// 受理活动创建请求，持久化由业务层完成
	g.POST("", func(c echo.Context) error {
		var req CampaignRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "无法解析请求体"})
		}
		if req.Name == "" || req.Platform == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "name和platform为必填字段"})
		}
		if !platformSupported(req.Platform) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "不支持的平台: " + req.Platform})
		}

		return c.JSON(http.StatusCreated, map[string]interface{}{
			"campaign_id": uuid.NewString(),
			"name":        req.Name,
			"platform":    req.Platform,
			"budget":      req.Budget,
			"created_at":  time.Now(),
		})
	})

	// 活动列表占位端点
	g.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"campaigns": []interface{}{},
			"count":     0,
		})
	})
}
