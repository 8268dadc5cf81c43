package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hewenyu/meshkit/pkg/correlation"
)

// supportedPlatforms 平台支持的广告与营销渠道
var supportedPlatforms = []map[string]string{
	{"id": "google_ads", "name": "Google Ads", "category": "advertising"},
	{"id": "meta_ads", "name": "Meta Ads", "category": "advertising"},
	{"id": "linkedin_ads", "name": "LinkedIn Ads", "category": "advertising"},
	{"id": "tiktok_ads", "name": "TikTok Ads", "category": "advertising"},
	{"id": "youtube_ads", "name": "YouTube Ads", "category": "advertising"},
	{"id": "shopify", "name": "Shopify", "category": "commerce"},
	{"id": "stripe", "name": "Stripe", "category": "payments"},
	{"id": "hubspot", "name": "HubSpot", "category": "crm"},
	{"id": "klaviyo", "name": "Klaviyo", "category": "email"},
	{"id": "gohighlevel", "name": "GoHighLevel", "category": "crm"},
}

// registerIntegrationRoutes 注册集成路由组
func registerIntegrationRoutes(g *echo.Group, deps *Deps) {
	// 触发一次平台数据同步。具体同步由平台适配器执行，这里只受理请求
	g.POST("/:platform/sync", func(c echo.Context) error {
		platform := c.Param("platform")
		if !platformSupported(platform) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "不支持的平台: " + platform})
		}
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"platform":       platform,
			"status":         "accepted",
			"correlation_id": correlation.FromContext(c.Request().Context()),
		})
	})
}

// registerPlatformRoutes 注册平台目录路由组
func registerPlatformRoutes(g *echo.Group, deps *Deps) {
	// 列出支持的平台
	g.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"platforms": supportedPlatforms,
			"count":     len(supportedPlatforms),
		})
	})
}

// platformSupported 判断平台是否受支持
func platformSupported(id string) bool {
	for _, p := range supportedPlatforms {
		if p["id"] == id {
			return true
		}
	}
	return false
}
