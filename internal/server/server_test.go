package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hewenyu/meshkit/internal/client"
	"github.com/hewenyu/meshkit/internal/config"
	"github.com/hewenyu/meshkit/internal/registry"
	"github.com/hewenyu/meshkit/internal/routes"
	"github.com/hewenyu/meshkit/pkg/auth"
)

// newMonolith 组装一个带全部逻辑服务与进程内传输的单体进程
func newMonolith(t *testing.T) (*Server, *client.Client) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Deployment.Mode = config.DeploymentMonolith
	cfg.Deployment.ServiceName = "monolith"
	cfg.Deployment.MonolithPort = 8000
	cfg.Client.Timeout = 2 * time.Second
	cfg.Client.MaxAttempts = 2
	cfg.Client.InitialDelay = time.Millisecond
	cfg.Breaker.FailureThreshold = 5
	cfg.Breaker.SuccessThreshold = 2
	cfg.Breaker.Timeout = time.Minute

	logger := config.NewNopLogger()
	reg := registry.New()
	require.NoError(t, reg.ValidateGraph())

	serviceAuth := auth.New("", "HS256", time.Hour) // 单体模式下认证禁用

	srv, err := New(cfg, logger, reg, serviceAuth, reg.AllServices()...)
	require.NoError(t, err)

	// 单体模式：服务间调用经进程内传输直接分发回本进程
	serviceClient := client.New(cfg, logger, reg, serviceAuth, client.NewInProcessTransport(srv.Handler()))
	require.NoError(t, srv.MountRoutes(&routes.Deps{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Client:   serviceClient,
		Auth:     serviceAuth,
	}))

	return srv, serviceClient
}

func TestMonolithHealthEndpoint(t *testing.T) {
	srv, _ := newMonolith(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "健康检查应无需认证即可访问")

	var payload routes.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload.Status)
	assert.Len(t, payload.Services, 7, "单体进程应承载全部逻辑服务")
}

func TestMonolithMountsAllRouteGroups(t *testing.T) {
	srv, _ := newMonolith(t)

	// 各逻辑服务的路由组都应挂载在同一进程中
	for _, path := range []string{
		"/api/v1/auth/whoami",
		"/api/v1/users/profile",
		"/api/v1/platforms",
		"/api/v1/campaigns",
		"/api/v1/onboarding/steps",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "路由组应可达: "+path)
	}
}

func TestMonolithInProcessServiceCall(t *testing.T) {
	// 单体模式下跨服务调用不经过网络：分析服务拉取活动数据
	srv, _ := newMonolith(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/overview", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload, "campaign_count", "概览应包含经服务间调用汇总的活动数据")
}

func TestMonolithInProcessHealthCheck(t *testing.T) {
	_, serviceClient := newMonolith(t)

	// 进程内传输下所有逻辑服务都由本进程应答
	status := serviceClient.HealthCheck(context.Background(), registry.ServiceAnalytics)
	assert.True(t, status.Healthy(), "单体模式下健康检查应命中本进程")
}

func TestObservabilityEndpoints(t *testing.T) {
	srv, _ := newMonolith(t)

	// 已挂载服务列表
	req := httptest.NewRequest(http.MethodGet, "/services", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "campaigns")

	// 依赖可达性报告
	req = httptest.NewRequest(http.MethodGet, "/services/campaigns/dependencies", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report registry.DependencyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.AllHealthy(), "单体模式下所有依赖都在本进程内，应全部可达")

	// 未注册的服务名
	req = httptest.NewRequest(http.MethodGet, "/services/billing/dependencies", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 熔断器快照
	req = httptest.NewRequest(http.MethodGet, "/breakers", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsEmptyServiceList(t *testing.T) {
	cfg := &config.Config{}
	cfg.Deployment.Mode = config.DeploymentMonolith

	_, err := New(cfg, config.NewNopLogger(), registry.New(), auth.New("", "HS256", time.Hour))
	require.Error(t, err, "不承载任何逻辑服务的进程应被拒绝")
}

func TestMicroserviceUsesRegistryPort(t *testing.T) {
	cfg := &config.Config{}
	cfg.Deployment.Mode = config.DeploymentMicroservices
	cfg.Deployment.ListenAddress = "0.0.0.0"

	reg := registry.New()
	srv, err := New(cfg, config.NewNopLogger(), reg, auth.New("", "HS256", time.Hour), registry.ServiceCampaigns)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8003", srv.Addr(), "微服务模式应使用注册表中该服务的端口")
}
