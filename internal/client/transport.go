package client

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// Transport 服务间调用的传输策略。
// 部署模式在进程启动时决定使用哪个实现，热路径上不再判断模式字符串
type Transport interface {
	// Do 执行一次HTTP请求
	Do(req *http.Request) (*http.Response, error)
}

// RemoteTransport 通过真实HTTP调用远端服务（微服务模式）
type RemoteTransport struct {
	client *http.Client
}

// NewRemoteTransport 创建远程传输，timeout为单次请求超时时间
func NewRemoteTransport(timeout time.Duration) *RemoteTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// Do 执行HTTP请求
func (t *RemoteTransport) Do(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

// InProcessTransport 在单体模式下直接分发到本进程的路由表，
// 不经过网络栈，请求头与路径语义和远程调用完全一致
type InProcessTransport struct {
	handler http.Handler
}

// NewInProcessTransport 创建进程内传输，handler为单体进程的路由入口
func NewInProcessTransport(handler http.Handler) *InProcessTransport {
	return &InProcessTransport{handler: handler}
}

// Do 将请求直接交给本进程的处理器执行
func (t *InProcessTransport) Do(req *http.Request) (*http.Response, error) {
	rec := newResponseRecorder()
	t.handler.ServeHTTP(rec, req)

	resp := &http.Response{
		StatusCode: rec.statusCode,
		Status:     http.StatusText(rec.statusCode),
		Header:     rec.header,
		Body:       io.NopCloser(bytes.NewReader(rec.body.Bytes())),
		Request:    req,
	}
	return resp, nil
}

// responseRecorder 进程内分发使用的内存响应写入器
type responseRecorder struct {
	statusCode int
	header     http.Header
	body       *bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		statusCode: http.StatusOK,
		header:     make(http.Header),
		body:       &bytes.Buffer{},
	}
}

// Header 实现http.ResponseWriter
func (r *responseRecorder) Header() http.Header {
	return r.header
}

// Write 实现http.ResponseWriter
func (r *responseRecorder) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

// WriteHeader 实现http.ResponseWriter
func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}
