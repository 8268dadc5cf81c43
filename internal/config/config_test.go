package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// 从默认位置加载配置
	config, err := LoadConfig("")
	require.NoError(t, err, "无法加载默认配置")
	require.NotNil(t, config, "配置不应为nil")

	// 验证默认值
	assert.Equal(t, DeploymentMonolith, config.Deployment.Mode, "默认部署模式应为单体")
	assert.Equal(t, 8000, config.Deployment.MonolithPort, "单体模式默认端口应为8000")
	assert.Equal(t, 30*time.Second, config.Client.Timeout, "客户端默认超时应为30秒")
	assert.Equal(t, 3, config.Client.MaxAttempts, "默认最大尝试次数应为3")
	assert.Equal(t, 5, config.Breaker.FailureThreshold, "默认失败阈值应为5")
	assert.Equal(t, 2, config.Breaker.SuccessThreshold, "默认恢复阈值应为2")
	assert.Equal(t, "HS256", config.Auth.Algorithm, "默认签名算法应为HS256")
	assert.Equal(t, time.Hour, config.Auth.TokenTTL, "默认令牌有效期应为1小时")
	assert.Empty(t, config.Auth.Secret, "默认无签名密钥（认证禁用）")
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	// 设置对外约定的环境变量
	t.Setenv("DEPLOYMENT_MODE", "microservices")
	t.Setenv("SERVICE_NAME", "campaigns")
	t.Setenv("SERVICE_JWT_SECRET", "env-secret")
	t.Setenv("SERVICE_JWT_ALGORITHM", "HS512")
	t.Setenv("SERVICE_CLIENT_TIMEOUT", "10s")

	// 加载配置
	config, err := LoadConfig("")
	require.NoError(t, err, "无法加载配置")
	require.NotNil(t, config, "配置不应为nil")

	// 验证环境变量覆盖
	assert.Equal(t, DeploymentMicroservices, config.Deployment.Mode, "DEPLOYMENT_MODE应覆盖部署模式")
	assert.Equal(t, "campaigns", config.Deployment.ServiceName, "SERVICE_NAME应覆盖服务身份")
	assert.Equal(t, "env-secret", config.Auth.Secret, "SERVICE_JWT_SECRET应覆盖签名密钥")
	assert.Equal(t, "HS512", config.Auth.Algorithm, "SERVICE_JWT_ALGORITHM应覆盖签名算法")
	assert.Equal(t, 10*time.Second, config.Client.Timeout, "SERVICE_CLIENT_TIMEOUT应覆盖客户端超时")

	// 确认其他值不受影响
	assert.Equal(t, 3, config.Client.MaxAttempts, "未覆盖的配置应保持默认值")
}

func TestLoadConfigClientTimeoutBareSeconds(t *testing.T) {
	// 对外约定SERVICE_CLIENT_TIMEOUT为秒数，裸数字应按秒解析
	t.Setenv("SERVICE_CLIENT_TIMEOUT", "30")

	config, err := LoadConfig("")
	require.NoError(t, err, "裸秒数不应导致配置加载失败")
	assert.Equal(t, 30*time.Second, config.Client.Timeout, "裸数字应按秒数解析")
}

func TestLoadConfigClientTimeoutWithUnit(t *testing.T) {
	// 带单位的写法原样保留
	t.Setenv("SERVICE_CLIENT_TIMEOUT", "500ms")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, config.Client.Timeout, "带单位的超时应按duration解析")
}

func TestLoadConfigJWTSecretFallback(t *testing.T) {
	// SERVICE_JWT_SECRET未设置时回退到通用的JWT_SECRET
	t.Setenv("JWT_SECRET", "general-secret")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "general-secret", config.Auth.Secret, "应回退到JWT_SECRET")
}

func TestLoadConfigRejectsInvalidMode(t *testing.T) {
	t.Setenv("DEPLOYMENT_MODE", "serverless")

	config, err := LoadConfig("")
	require.Error(t, err, "无效的部署模式应报错")
	assert.Nil(t, config)
}

func TestLoadConfigWithMissingFile(t *testing.T) {
	// 尝试从不存在的文件加载配置
	config, err := LoadConfig("non_existent_file.yaml")

	// 应该返回错误
	assert.Error(t, err, "从不存在的文件加载配置应该失败")

	// 不应该返回配置对象
	assert.Nil(t, config, "加载不存在的配置文件应该返回nil配置")
}

func TestIsMonolith(t *testing.T) {
	config := &Config{}
	config.Deployment.Mode = DeploymentMonolith
	assert.True(t, config.IsMonolith())

	config.Deployment.Mode = DeploymentMicroservices
	assert.False(t, config.IsMonolith())
}
