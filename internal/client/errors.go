package client

import (
	"fmt"

	"github.com/hewenyu/meshkit/internal/registry"
)

// UnknownServiceError 请求了未注册的服务类型。
// 属于编程错误：立即失败，不发起任何网络调用，也不重试
type UnknownServiceError struct {
	Service registry.ServiceType
}

// Error 实现error接口
func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("未注册的服务: %s", e.Service)
}

// TransportError 网络层失败：下游不可达或调用超时。
// 属于暂时性失败，客户端会在重试预算内自动重试
type TransportError struct {
	Service registry.ServiceType
	URL     string
	Err     error
}

// Error 实现error接口
func (e *TransportError) Error() string {
	return fmt.Sprintf("调用服务 %s 网络失败 (%s): %v", e.Service, e.URL, e.Err)
}

// Unwrap 返回底层网络错误
func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError 下游可达但返回了非2xx状态码。
// 5xx视为暂时性失败会被重试；4xx是请求本身的问题，重试不可能成功
type HTTPError struct {
	Service    registry.ServiceType
	StatusCode int
	Body       []byte
}

// Error 实现error接口
func (e *HTTPError) Error() string {
	return fmt.Sprintf("服务 %s 返回状态码 %d: %s", e.Service, e.StatusCode, string(e.Body))
}

// Retryable 判断该状态码是否值得重试
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500
}
