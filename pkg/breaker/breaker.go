// Package breaker 提供按下游服务命名的熔断器。
//
// 熔断器在连续失败达到阈值后打开，冷却时间过后进入半开状态进行探测，
// 探测期间连续成功达到阈值后恢复关闭；探测期间任何一次失败立即重新打开。
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen 表示熔断器处于打开状态，调用被直接拒绝，未触达下游
var ErrCircuitOpen = errors.New("熔断器已打开")

// State 熔断器状态
type State int

const (
	// StateClosed 关闭状态：正常放行调用
	StateClosed State = iota
	// StateOpen 打开状态：直接拒绝调用
	StateOpen
	// StateHalfOpen 半开状态：放行探测调用
	StateHalfOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	FailureThreshold int                  // 关闭状态下触发熔断的连续失败次数
	SuccessThreshold int                  // 半开状态下恢复关闭所需的连续成功次数
	Timeout          time.Duration        // 打开状态的冷却时间
	IsFailure        func(err error) bool // 失败分类函数，nil表示所有错误都计入失败
}

// DefaultConfig 返回默认熔断器配置
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// Breaker 单个下游服务的熔断器
type Breaker struct {
	name   string
	config Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	// now 可在测试中替换以控制时间
	now func() time.Time
}

// Snapshot 熔断器状态的只读快照
type Snapshot struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailureTime time.Time `json:"last_failure_time,omitempty"`
}

// New 创建一个熔断器
func New(name string, config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Do 在熔断器保护下执行操作。
//
// 打开状态下直接返回包装了ErrCircuitOpen的错误，不会触达下游；
// 其余状态放行操作并记录结果。锁仅覆盖状态检查与结果记录，
// 操作本身在锁外执行，避免并发调用方在网络往返上串行化。
func (b *Breaker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	// 状态检查（持锁）
	if err := b.beforeCall(); err != nil {
		return err
	}

	// 执行操作（不持锁）
	err := op(ctx)

	// 记录结果（持锁）
	b.afterCall(err)

	// 原始错误始终透传给调用方
	return err
}

// beforeCall 检查并推进状态，决定本次调用是否放行
func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		// 冷却时间未到，直接拒绝
		if b.now().Sub(b.lastFailureTime) < b.config.Timeout {
			return fmt.Errorf("服务 %s 暂时不可用: %w", b.name, ErrCircuitOpen)
		}
		// 冷却时间已过，进入半开状态放行探测
		b.state = StateHalfOpen
		b.successCount = 0
	}

	return nil
}

// afterCall 记录调用结果并推进状态
func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || (b.config.IsFailure != nil && !b.config.IsFailure(err)) {
		b.onSuccess()
		return
	}
	b.onFailure()
}

// onSuccess 处理一次成功调用（调用方需持锁）
func (b *Breaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			// 探测通过，恢复关闭
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
		}
	case StateClosed:
		// 只统计连续失败，一次成功即清零
		b.failureCount = 0
	}
}

// onFailure 处理一次失败调用（调用方需持锁）
func (b *Breaker) onFailure() {
	b.failureCount++
	b.lastFailureTime = b.now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold {
			b.state = StateOpen
		}
	case StateHalfOpen:
		// 探测期间任何一次失败立即重新打开，成功次数不提供保护
		b.state = StateOpen
		b.successCount = 0
	}
}

// Name 返回熔断器名称
func (b *Breaker) Name() string {
	return b.name
}

// State 返回当前状态
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// GetSnapshot 返回状态快照，无副作用
func (b *Breaker) GetSnapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:            b.name,
		State:           b.state.String(),
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
	}
}
