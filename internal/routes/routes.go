// Package routes 定义各逻辑服务拥有的路由组。
//
// 每个路由组通过标识注册到本包的注册函数表中，
// 部署组合层按服务注册表的声明把路由组挂载到进程的echo实例上，
// 同一份路由代码既可以组合成单体也可以拆分为独立微服务。
package routes

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/hewenyu/meshkit/internal/client"
	"github.com/hewenyu/meshkit/internal/config"
	"github.com/hewenyu/meshkit/internal/registry"
	"github.com/hewenyu/meshkit/pkg/auth"
)

// Deps 路由组共享的依赖
type Deps struct {
	Config   *config.Config
	Logger   config.Logger
	Registry *registry.Registry
	Client   *client.Client
	Auth     *auth.ServiceAuth
}

// Registrar 单个路由组的注册函数
type Registrar func(g *echo.Group, deps *Deps)

// registrars 路由组标识到注册函数的映射
var registrars = map[string]Registrar{
	"auth":         registerAuthRoutes,
	"users":        registerUserRoutes,
	"integrations": registerIntegrationRoutes,
	"platforms":    registerPlatformRoutes,
	"campaigns":    registerCampaignRoutes,
	"analytics":    registerAnalyticsRoutes,
	"reports":      registerReportRoutes,
	"onboarding":   registerOnboardingRoutes,
	"predictive":   registerPredictiveRoutes,
	"workflows":    registerWorkflowRoutes,
}

// Register 按注册表声明把指定服务的路由组挂载到echo实例。
// 路由组统一挂载在 /api/v1/<模块标识> 前缀下
func Register(e *echo.Echo, deps *Deps, services ...registry.ServiceType) error {
	for _, svc := range services {
		for _, module := range deps.Registry.RoutesFor(svc) {
			registrar, ok := registrars[module]
			if !ok {
				return fmt.Errorf("服务 %s 声明了未知的路由组: %s", svc, module)
			}
			registrar(e.Group("/api/v1/"+module), deps)
		}
	}
	return nil
}
