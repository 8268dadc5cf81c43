package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
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

var (
	configFile  string
	serviceName string
)

func init() {
	// 解析命令行参数
	flag.StringVar(&configFile, "config", "", "配置文件路径")
	flag.StringVar(&serviceName, "service", "", "本进程承载的逻辑服务名称（默认取SERVICE_NAME环境变量）")
}

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 本入口固定为微服务模式
	requestedMode := cfg.Deployment.Mode
	cfg.Deployment.Mode = config.DeploymentMicroservices

	// 初始化日志
	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// DEPLOYMENT_MODE与入口不一致时提示，避免配置被静默忽略
	if os.Getenv("DEPLOYMENT_MODE") != "" && requestedMode != config.DeploymentMicroservices {
		logger.Warn("DEPLOYMENT_MODE与入口程序不一致，已按微服务模式运行",
			zap.String("requested_mode", requestedMode))
	}

	// 初始化服务注册表并在启动时校验依赖图
	reg := registry.New()
	if err := reg.ValidateGraph(); err != nil {
		logger.Fatal("服务依赖图校验失败", zap.Error(err))
	}

	// 确定本进程的逻辑服务身份：命令行参数优先，其次SERVICE_NAME
	name := serviceName
	if name == "" {
		name = cfg.Deployment.ServiceName
	}
	svc, ok := reg.ByName(name)
	if !ok {
		valid := make([]string, 0, len(reg.AllServices()))
		for _, s := range reg.AllServices() {
			valid = append(valid, string(s))
		}
		logger.Fatal("未知的服务名称",
			zap.String("service", name),
			zap.String("valid", strings.Join(valid, ", ")),
		)
	}
	cfg.Deployment.ServiceName = string(svc)

	// 初始化服务间认证
	serviceAuth := auth.New(cfg.Auth.Secret, cfg.Auth.Algorithm, cfg.Auth.TokenTTL)
	if !serviceAuth.Enabled() {
		logger.Warn("未配置SERVICE_JWT_SECRET，服务间认证已禁用")
	}

	// 打印启动信息
	logger.Info("服务进程启动中...",
		zap.String("service", string(svc)),
		zap.String("description", reg.DescriptionOf(svc)),
		zap.Int("port", reg.PortOf(svc)),
		zap.Bool("service_auth", serviceAuth.Enabled()),
	)

	// 组装本逻辑服务的进程
	srv, err := server.New(cfg, logger, reg, serviceAuth, svc)
	if err != nil {
		logger.Fatal("组装服务进程失败", zap.Error(err))
	}

	// 微服务模式下服务间调用走真实HTTP
	transport := client.NewRemoteTransport(cfg.Client.Timeout)
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

	// 启动后探测声明的依赖，仅告警不阻断启动
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		report := reg.CheckDependencies(ctx, svc, serviceClient)
		if !report.AllHealthy() {
			logger.Warn("部分依赖服务不可达",
				zap.Any("missing", report.Missing),
			)
		}
	}()

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
