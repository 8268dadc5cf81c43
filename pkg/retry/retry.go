// Package retry 提供带抖动的指数退避重试。
//
// 重试尝试严格串行，每次失败后按乘数增长退避时间并叠加抖动；
// 被NonRetryable包装的错误立即终止重试。所有等待都响应context取消。
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// 抖动使用的线程安全随机源
var (
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NonRetryableError 包装不应重试的错误
type NonRetryableError struct {
	Err error
}

// Error 实现error接口
func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("不可重试: %v", e.Err)
}

// Unwrap 返回被包装的原始错误
func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable 将错误标记为不可重试
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable 判断错误是否被标记为不可重试
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Config 重试配置
type Config struct {
	MaxAttempts  int           // 最大尝试次数（含首次）
	InitialDelay time.Duration // 初始退避时间
	MaxDelay     time.Duration // 最大退避时间
	Multiplier   float64       // 退避乘数
	AddJitter    bool          // 是否叠加抖动
}

// DefaultConfig 返回默认重试配置
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Do 按配置重试执行操作，返回最后一次的错误。
// 操作返回nil、返回不可重试错误或context被取消时立即结束。
func Do(ctx context.Context, cfg Config, op func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 1.0 {
		cfg.Multiplier = 2.0
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		// context已取消则不再尝试
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		// 不可重试错误立即返回原始错误
		var nre *NonRetryableError
		if errors.As(lastErr, &nre) {
			return nre.Err
		}

		// 最后一次尝试失败后不再等待
		if attempt == cfg.MaxAttempts {
			break
		}

		// 退避等待，响应context取消
		select {
		case <-time.After(withJitter(delay, cfg.AddJitter)):
		case <-ctx.Done():
			return lastErr
		}

		// 指数增长，封顶于MaxDelay
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}

// withJitter 在退避时间上叠加最多25%的随机抖动
func withJitter(delay time.Duration, enabled bool) time.Duration {
	if !enabled || delay <= 0 {
		return delay
	}

	randMu.Lock()
	factor := randSource.Float64()
	randMu.Unlock()

	return delay + time.Duration(float64(delay)*0.25*factor)
}
