package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig 测试用的快速重试配置
func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "首次成功后不应再尝试")
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("暂时失败")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "应重试到成功为止")
}

func TestDoExhaustsRetryBudget(t *testing.T) {
	lastErr := errors.New("持续失败")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return lastErr
	})

	require.ErrorIs(t, err, lastErr, "预算耗尽后应返回最后一次的错误")
	assert.Equal(t, 3, calls, "尝试次数应等于预算")
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	original := errors.New("请求本身有问题")
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		return NonRetryable(original)
	})

	require.ErrorIs(t, err, original, "应返回未包装的原始错误")
	assert.Equal(t, 1, calls, "不可重试错误只应尝试一次")
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, Config{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, Multiplier: 2.0}, func() error {
		calls++
		cancel() // 首次失败后取消context
		return errors.New("失败")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "context取消后不应继续重试")
}

func TestIsNonRetryable(t *testing.T) {
	err := errors.New("普通错误")
	assert.False(t, IsNonRetryable(err))
	assert.True(t, IsNonRetryable(NonRetryable(err)))
	assert.Nil(t, NonRetryable(nil), "nil错误包装后仍应为nil")
}
