package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 部署模式常量。入口程序（cmd/monolith、cmd/service）会以自身模式
// 覆盖该配置，DEPLOYMENT_MODE仅用于校验与告警
const (
	// DeploymentMonolith 单体模式：所有逻辑服务运行在同一进程中
	DeploymentMonolith = "monolith"
	// DeploymentMicroservices 微服务模式：每个逻辑服务独立部署
	DeploymentMicroservices = "microservices"
)

// Config 应用程序配置结构
type Config struct {
	// 部署配置
	Deployment struct {
		Mode          string `mapstructure:"mode"`           // "monolith" 或 "microservices"
		ServiceName   string `mapstructure:"service_name"`   // 本进程的逻辑服务身份
		ListenAddress string `mapstructure:"listen_address"` // 监听地址
		MonolithPort  int    `mapstructure:"monolith_port"`  // 单体模式监听端口
	} `mapstructure:"deployment"`

	// 服务间认证配置
	Auth struct {
		Secret    string        `mapstructure:"secret"`    // 签名密钥，为空则禁用服务间认证
		Algorithm string        `mapstructure:"algorithm"` // 签名算法
		TokenTTL  time.Duration `mapstructure:"token_ttl"` // 令牌有效期
	} `mapstructure:"auth"`

	// 服务间调用客户端配置
	Client struct {
		Timeout      time.Duration `mapstructure:"timeout"`       // 单次调用超时时间
		MaxAttempts  int           `mapstructure:"max_attempts"`  // 最大尝试次数（含首次）
		InitialDelay time.Duration `mapstructure:"initial_delay"` // 重试初始退避时间
		MaxDelay     time.Duration `mapstructure:"max_delay"`     // 重试最大退避时间
	} `mapstructure:"client"`

	// 熔断器配置
	Breaker struct {
		FailureThreshold int           `mapstructure:"failure_threshold"` // 连续失败阈值
		SuccessThreshold int           `mapstructure:"success_threshold"` // 半开状态恢复所需成功次数
		Timeout          time.Duration `mapstructure:"timeout"`           // 打开状态冷却时间
	} `mapstructure:"breaker"`

	// 日志配置
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// IsMonolith 判断是否为单体部署模式
func (c *Config) IsMonolith() bool {
	return c.Deployment.Mode == DeploymentMonolith
}

// LoadConfig 从文件和环境变量加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果指定了配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 设置配置文件名和路径
		v.SetConfigName("config")       // 配置文件名（无扩展名）
		v.AddConfigPath(".")            // 当前目录
		v.AddConfigPath("./configs")    // configs目录
		v.AddConfigPath("/etc/meshkit") // 系统目录
	}

	// 配置文件格式
	v.SetConfigType("yaml")

	// 尝试从配置文件加载
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，仅记录警告；其他错误则返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件错误: %w", err)
		}
	}

	// 绑定环境变量
	v.SetEnvPrefix("MESHKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 从环境变量覆盖
	bindEnvVariables(v)

	// SERVICE_CLIENT_TIMEOUT 约定为秒数，允许裸数字（如 "30"）；
	// 带单位的写法（如 "10s"）原样保留
	if raw := strings.TrimSpace(os.Getenv("SERVICE_CLIENT_TIMEOUT")); raw != "" {
		if _, err := strconv.Atoi(raw); err == nil {
			v.Set("client.timeout", raw+"s")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置错误: %w", err)
	}

	// SERVICE_JWT_SECRET 未设置时回退到通用的 JWT_SECRET
	if config.Auth.Secret == "" {
		config.Auth.Secret = os.Getenv("JWT_SECRET")
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 部署默认配置
	v.SetDefault("deployment.mode", DeploymentMonolith)
	v.SetDefault("deployment.service_name", "")
	v.SetDefault("deployment.listen_address", "0.0.0.0")
	v.SetDefault("deployment.monolith_port", 8000)

	// 认证默认配置：无密钥即禁用服务间认证
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.token_ttl", time.Hour)

	// 客户端默认配置
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.max_attempts", 3)
	v.SetDefault("client.initial_delay", 100*time.Millisecond)
	v.SetDefault("client.max_delay", 5*time.Second)

	// 熔断器默认配置
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.success_threshold", 2)
	v.SetDefault("breaker.timeout", 30*time.Second)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", true)
}

// bindEnvVariables 绑定对外约定的环境变量名
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("deployment.mode", "DEPLOYMENT_MODE")
	v.BindEnv("deployment.service_name", "SERVICE_NAME")
	v.BindEnv("auth.secret", "SERVICE_JWT_SECRET")
	v.BindEnv("auth.algorithm", "SERVICE_JWT_ALGORITHM")
	v.BindEnv("client.timeout", "SERVICE_CLIENT_TIMEOUT")
}

// validate 检查配置的合法性
func validate(c *Config) error {
	if c.Deployment.Mode != DeploymentMonolith && c.Deployment.Mode != DeploymentMicroservices {
		return fmt.Errorf("无效的部署模式: %s（应为 %s 或 %s）",
			c.Deployment.Mode, DeploymentMonolith, DeploymentMicroservices)
	}
	if c.Client.MaxAttempts < 1 {
		return fmt.Errorf("client.max_attempts 必须至少为1，当前值: %d", c.Client.MaxAttempts)
	}
	if c.Breaker.FailureThreshold < 1 || c.Breaker.SuccessThreshold < 1 {
		return fmt.Errorf("熔断器阈值必须为正数")
	}
	return nil
}

// GetDefaultConfigPath 返回默认配置文件路径
func GetDefaultConfigPath() string {
	// 按顺序检查不同位置的配置文件
	paths := []string{
		"./config.yaml",
		"./configs/config.yaml",
		"/etc/meshkit/config.yaml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
