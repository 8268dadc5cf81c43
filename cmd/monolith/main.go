package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/meshkit/internal/client"
	"github.com/hewenyu/meshkit/internal/config"
	"github.com/hewenyu/meshkit/internal/registry"
	"github.com/hewenyu/meshkit/internal/routes"
	"github.com/hewenyu/meshkit/internal/server"
	"github.com/hewenyu/meshkit/pkg/auth"
)

var configFile string

func init() {
	// 解析命令行参数
	flag.StringVar(&configFile, "config", "", "配置文件路径")
}

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 本入口固定为单体模式
	requestedMode := cfg.Deployment.Mode
	cfg.Deployment.Mode = config.DeploymentMonolith
	if cfg.Deployment.ServiceName == "" {
		cfg.Deployment.ServiceName = "monolith"
	}

	// 初始化日志
	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// DEPLOYMENT_MODE与入口不一致时提示，避免配置被静默忽略
	if os.Getenv("DEPLOYMENT_MODE") != "" && requestedMode != config.DeploymentMonolith {
		logger.Warn("DEPLOYMENT_MODE与入口程序不一致，已按单体模式运行",
			zap.String("requested_mode", requestedMode))
	}

	// 初始化服务注册表并在启动时校验依赖图
	reg := registry.New()
	if err := reg.ValidateGraph(); err != nil {
		logger.Fatal("服务依赖图校验失败", zap.Error(err))
	}

	// 初始化服务间认证
	serviceAuth := auth.New(cfg.Auth.Secret, cfg.Auth.Algorithm, cfg.Auth.TokenTTL)
	if !serviceAuth.Enabled() {
		logger.Warn("未配置SERVICE_JWT_SECRET，服务间认证已禁用")
	}

	// 打印启动信息
	logger.Info("营销平台单体进程启动中...",
		zap.Int("port", cfg.Deployment.MonolithPort),
		zap.Int("service_count", len(reg.AllServices())),
		zap.Bool("service_auth", serviceAuth.Enabled()),
	)

	// 组装单体进程：所有逻辑服务挂载到同一个echo实例
	srv, err := server.New(cfg, logger, reg, serviceAuth, reg.AllServices()...)
	if err != nil {
		logger.Fatal("组装服务进程失败", zap.Error(err))
	}

	// 单体模式下服务间调用使用进程内传输，不经过网络栈
	transport := client.NewInProcessTransport(srv.Handler())
	serviceClient := client.New(cfg, logger, reg, serviceAuth, transport)

	if err := srv.MountRoutes(&routes.Deps{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Client:   serviceClient,
		Auth:     serviceAuth,
	}); err != nil {
		logger.Fatal("挂载路由失败", zap.Error(err))
	}

	srv.Start()

	// 等待信号以优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("接收到关闭信号，正在优雅关闭...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("优雅关闭失败", zap.Error(err))
	}
}
