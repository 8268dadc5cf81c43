package routes

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hewenyu/meshkit/internal/registry"
)

// 应用启动时间
var startTime = time.Now()

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string                 `json:"status"`
	Services  []registry.ServiceType `json:"services"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler 健康检查处理器，services为本进程承载的逻辑服务
func HealthHandler(services []registry.ServiceType) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Services:  services,
			Timestamp: time.Now(),
			Details: map[string]interface{}{
				"uptime":     time.Since(startTime).String(),
				"resources":  getResourceUsage(),
				"goroutines": runtime.NumGoroutine(),
			},
		})
	}
}

// getResourceUsage 获取资源使用情况
func getResourceUsage() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"memory_alloc": formatBytes(memStats.Alloc),
		"memory_sys":   formatBytes(memStats.Sys),
		"memory_heap":  formatBytes(memStats.HeapAlloc),
		"num_gc":       memStats.NumGC,
	}
}

// formatBytes 将字节数格式化为可读形式
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
