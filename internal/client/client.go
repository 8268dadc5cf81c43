// Package client 实现服务间调用客户端：
// 按逻辑服务名解析地址，自动附加服务身份令牌与关联ID，
// 每次调用经过该服务的熔断器，暂时性失败在重试预算内自动重试。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/meshkit/internal/config"
	"github.com/hewenyu/meshkit/internal/registry"
	"github.com/hewenyu/meshkit/pkg/auth"
	"github.com/hewenyu/meshkit/pkg/breaker"
	"github.com/hewenyu/meshkit/pkg/correlation"
	"github.com/hewenyu/meshkit/pkg/retry"
)

// Client 服务间调用客户端
type Client struct {
	serviceName string // 本进程的逻辑服务身份
	reg         *registry.Registry
	auth        *auth.ServiceAuth
	breakers    *breaker.Registry
	transport   Transport
	timeout     time.Duration
	retryCfg    retry.Config
	logger      config.Logger
}

// New 创建服务间调用客户端。
// 每个目标服务对应一个熔断器，按服务名在内部注册表中惰性创建
func New(cfg *config.Config, logger config.Logger, reg *registry.Registry, serviceAuth *auth.ServiceAuth, transport Transport) *Client {
	breakerConfig := breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		Timeout:          cfg.Breaker.Timeout,
		IsFailure:        isDownstreamFailure,
	}

	return &Client{
		serviceName: cfg.Deployment.ServiceName,
		reg:         reg,
		auth:        serviceAuth,
		breakers:    breaker.NewRegistry(breakerConfig),
		transport:   transport,
		timeout:     cfg.Client.Timeout,
		retryCfg: retry.Config{
			MaxAttempts:  cfg.Client.MaxAttempts,
			InitialDelay: cfg.Client.InitialDelay,
			MaxDelay:     cfg.Client.MaxDelay,
			Multiplier:   2.0,
			AddJitter:    true,
		},
		logger: logger,
	}
}

// isDownstreamFailure 熔断器的失败分类：
// 网络错误与5xx计入失败，4xx说明下游本身健康，不计入
func isDownstreamFailure(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

// callOptions 单次调用的可选参数
type callOptions struct {
	headers map[string]string
	query   url.Values
}

// CallOption 调用选项
type CallOption func(*callOptions)

// WithHeader 附加自定义请求头，与强制头冲突时以强制头为准
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithQuery 附加查询参数
func WithQuery(key, value string) CallOption {
	return func(o *callOptions) {
		if o.query == nil {
			o.query = make(url.Values)
		}
		o.query.Add(key, value)
	}
}

// CallService 调用指定逻辑服务的端点。
//
// 未注册的服务立即失败且不发起网络调用；2xx响应按JSON原样返回；
// 4xx只尝试一次，网络错误与5xx在重试预算内重试；
// 同一次逻辑调用的所有重试尝试携带相同的关联ID。
func (c *Client) CallService(ctx context.Context, svc registry.ServiceType, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	// 未注册的服务属于编程错误，不触达网络
	if !c.reg.Contains(svc) {
		return nil, &UnknownServiceError{Service: svc}
	}

	baseURL, err := c.reg.ResolveURL(svc)
	if err != nil {
		return nil, &UnknownServiceError{Service: svc}
	}

	options := callOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	// 构建完整URL
	fullURL := baseURL + path
	if len(options.query) > 0 {
		fullURL += "?" + options.query.Encode()
	}

	// 序列化请求体（一次逻辑调用只序列化一次）
	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
	}

	// 关联ID在一次逻辑调用中只生成一次，所有重试尝试共用
	correlationID := correlation.EnsureID(ctx)

	br := c.breakers.Get(string(svc))

	var result json.RawMessage
	err = retry.Do(ctx, c.retryCfg, func() error {
		attemptErr := br.Do(ctx, func(ctx context.Context) error {
			resp, err := c.attempt(ctx, svc, method, fullURL, bodyBytes, correlationID, options)
			if err != nil {
				return err
			}
			result = resp
			return nil
		})
		if attemptErr == nil {
			return nil
		}

		// 熔断器打开时终止整个重试序列
		if errors.Is(attemptErr, breaker.ErrCircuitOpen) {
			return retry.NonRetryable(attemptErr)
		}

		// 4xx是请求本身的问题，重试不可能成功
		var httpErr *HTTPError
		if errors.As(attemptErr, &httpErr) && !httpErr.Retryable() {
			return retry.NonRetryable(attemptErr)
		}

		c.logger.Warn("服务调用失败，准备重试",
			zap.String("service", string(svc)),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("correlation_id", correlationID),
			zap.Error(attemptErr),
		)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// attempt 执行单次HTTP尝试
func (c *Client) attempt(ctx context.Context, svc registry.ServiceType, method, fullURL string, body []byte, correlationID string, options callOptions) (json.RawMessage, error) {
	// 每次尝试有独立的超时时间
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	// 自定义请求头先设置，强制头随后覆盖
	req.Header.Set("Content-Type", "application/json")
	for key, value := range options.headers {
		req.Header.Set(key, value)
	}

	// 附加服务身份令牌（认证禁用时令牌为空，不附加）
	token, err := c.auth.GenerateToken(c.serviceName, string(svc))
	if err != nil {
		return nil, fmt.Errorf("签发服务令牌失败: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(correlation.HeaderCorrelationID, correlationID)
	req.Header.Set(correlation.HeaderServiceName, c.serviceName)

	// 执行请求
	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, &TransportError{Service: svc, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Service: svc, URL: fullURL, Err: err}
	}

	// 非2xx状态码
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Service: svc, StatusCode: resp.StatusCode, Body: respBody}
	}

	// 2xx响应按JSON原样返回，不假设下游的具体结构
	if len(respBody) == 0 {
		return nil, nil
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("服务 %s 返回了非法JSON响应", svc)
	}
	return json.RawMessage(respBody), nil
}

// HealthCheck 探测指定服务的健康状态。
//
// 该方法保证不返回错误：任何失败（未注册、不可达、非200、响应不可解析）
// 都归一化为unhealthy状态，可以安全地投机调用
func (c *Client) HealthCheck(ctx context.Context, svc registry.ServiceType) registry.HealthStatus {
	unhealthy := func(reason string) registry.HealthStatus {
		return registry.HealthStatus{Service: svc, Status: "unhealthy", Error: reason}
	}

	if !c.reg.Contains(svc) {
		return unhealthy(fmt.Sprintf("未注册的服务: %s", svc))
	}

	baseURL, err := c.reg.ResolveURL(svc)
	if err != nil {
		return unhealthy(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return unhealthy(err.Error())
	}
	req.Header.Set(correlation.HeaderCorrelationID, correlation.EnsureID(ctx))
	req.Header.Set(correlation.HeaderServiceName, c.serviceName)

	// 健康探测不经过熔断器也不重试，单次尝试直接归一化结果
	resp, err := c.transport.Do(req)
	if err != nil {
		return unhealthy(err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return unhealthy(err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return unhealthy(fmt.Sprintf("健康检查返回状态码 %d", resp.StatusCode))
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return unhealthy(fmt.Sprintf("解析健康检查响应失败: %v", err))
	}
	if payload.Status != "healthy" {
		return unhealthy(fmt.Sprintf("下游报告状态: %s", payload.Status))
	}

	return registry.HealthStatus{Service: svc, Status: "healthy"}
}

// BreakerSnapshots 返回所有熔断器的状态快照，供观测端点使用
func (c *Client) BreakerSnapshots() []breaker.Snapshot {
	return c.breakers.Snapshots()
}
