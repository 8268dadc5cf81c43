// Package server 是部署组合层：把CORS、服务认证中间件和一组路由组
// 按服务注册表的声明组装进一个进程。
// 单体模式下所有逻辑服务共用一个进程，微服务模式下每个进程承载一个逻辑服务。
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hewenyu/meshkit/internal/config"
	"github.com/hewenyu/meshkit/internal/middleware"
	"github.com/hewenyu/meshkit/internal/registry"
	"github.com/hewenyu/meshkit/internal/routes"
	"github.com/hewenyu/meshkit/pkg/auth"
	"github.com/hewenyu/meshkit/pkg/correlation"
)

// Server 一个服务进程：echo实例加其承载的逻辑服务集合
type Server struct {
	e        *echo.Echo
	cfg      *config.Config
	logger   config.Logger
	reg      *registry.Registry
	services []registry.ServiceType
	host     string
	port     int
}

// New 组装一个服务进程的中间件链与基础端点。
// 路由组在MountRoutes中挂载（客户端依赖本进程的处理器，需要二段式组装）
func New(cfg *config.Config, logger config.Logger, reg *registry.Registry, serviceAuth *auth.ServiceAuth, services ...registry.ServiceType) (*Server, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("服务进程必须至少承载一个逻辑服务")
	}
	for _, svc := range services {
		if !reg.Contains(svc) {
			return nil, fmt.Errorf("未注册的服务: %s", svc)
		}
	}

	// 创建Echo实例
	e := echo.New()
	e.HideBanner = true

	// 添加中间件
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, correlation.HeaderCorrelationID, correlation.HeaderServiceName},
	}))
	e.Use(correlation.Middleware())

	// 服务间认证仅在微服务模式下启用，与认证器的降级模式一致
	e.Use(middleware.ServiceAuth(middleware.ServiceAuthConfig{
		Auth:    serviceAuth,
		Logger:  logger,
		Enabled: !cfg.IsMonolith(),
	}))

	// 根路径与健康检查（白名单内，无需认证）
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"name":     "meshkit",
			"mode":     cfg.Deployment.Mode,
			"services": services,
		})
	})
	e.GET("/health", routes.HealthHandler(services))

	// 监听端口：单体模式用统一端口，微服务模式用注册表中该服务的端口
	port := cfg.Deployment.MonolithPort
	if !cfg.IsMonolith() {
		port = reg.PortOf(services[0])
	}

	return &Server{
		e:        e,
		cfg:      cfg,
		logger:   logger,
		reg:      reg,
		services: services,
		host:     cfg.Deployment.ListenAddress,
		port:     port,
	}, nil
}

// MountRoutes 挂载路由组与观测端点
func (s *Server) MountRoutes(deps *routes.Deps) error {
	if err := routes.Register(s.e, deps, s.services...); err != nil {
		return err
	}

	// 观测端点：已挂载的服务、依赖可达性、熔断器状态
	s.e.GET("/services", func(c echo.Context) error {
		infos := make([]map[string]interface{}, 0, len(s.services))
		for _, svc := range s.services {
			infos = append(infos, map[string]interface{}{
				"service":      svc,
				"description":  s.reg.DescriptionOf(svc),
				"routes":       s.reg.RoutesFor(svc),
				"dependencies": s.reg.DependenciesOf(svc),
				"port":         s.reg.PortOf(svc),
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"services": infos})
	})

	s.e.GET("/services/:name/dependencies", func(c echo.Context) error {
		svc, ok := s.reg.ByName(c.Param("name"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "未注册的服务: " + c.Param("name")})
		}
		report := s.reg.CheckDependencies(c.Request().Context(), svc, deps.Client)
		return c.JSON(http.StatusOK, report)
	})

	s.e.GET("/breakers", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"breakers": deps.Client.BreakerSnapshots(),
		})
	})

	return nil
}

// Handler 返回本进程的HTTP处理器，供单体模式的进程内传输使用
func (s *Server) Handler() http.Handler {
	return s.e
}

// Addr 返回监听地址
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Start 以非阻塞方式启动服务
func (s *Server) Start() {
	go func() {
		addr := s.Addr()
		s.logger.Info("服务进程启动",
			zap.String("address", addr),
			zap.String("mode", s.cfg.Deployment.Mode),
			zap.Any("services", s.services),
		)
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Error("服务进程启动失败", zap.Error(err))
		}
	}()
}

// Shutdown 优雅关闭服务
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("服务进程正在关闭")
	if err := s.e.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭服务进程失败: %w", err)
	}
	return nil
}
