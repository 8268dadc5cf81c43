package breaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDownstream = errors.New("下游调用失败")

// failingOp 返回固定失败的操作
func failingOp(ctx context.Context) error {
	return errDownstream
}

// successOp 返回固定成功的操作
func successOp(ctx context.Context) error {
	return nil
}

func TestBreakerOpensAtFailureThreshold(t *testing.T) {
	b := New("campaigns", Config{FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	// 阈值减一次失败后仍保持关闭
	for i := 0; i < 2; i++ {
		err := b.Do(ctx, failingOp)
		require.ErrorIs(t, err, errDownstream, "原始错误应透传给调用方")
		assert.Equal(t, StateClosed, b.State(), "未达到阈值前应保持关闭")
	}

	// 第N次连续失败触发熔断
	err := b.Do(ctx, failingOp)
	require.ErrorIs(t, err, errDownstream)
	assert.Equal(t, StateOpen, b.State(), "达到失败阈值后应打开")
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("analytics", Config{FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	// 累计两次失败后一次成功，失败计数应清零
	require.Error(t, b.Do(ctx, failingOp))
	require.Error(t, b.Do(ctx, failingOp))
	require.NoError(t, b.Do(ctx, successOp))

	snapshot := b.GetSnapshot()
	assert.Equal(t, 0, snapshot.FailureCount, "关闭状态下一次成功应清零失败计数")

	// 再失败两次也不应打开（只统计连续失败）
	require.Error(t, b.Do(ctx, failingOp))
	require.Error(t, b.Do(ctx, failingOp))
	assert.Equal(t, StateClosed, b.State(), "成功后重新累计的失败未达阈值，不应打开")
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b := New("integrations", Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	require.Error(t, b.Do(ctx, failingOp))
	require.Equal(t, StateOpen, b.State())

	// 打开状态下操作不应被执行
	invoked := false
	err := b.Do(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen, "打开状态应返回熔断错误")
	assert.False(t, invoked, "打开状态下不应触达下游")
}

func TestBreakerTimeoutTransition(t *testing.T) {
	b := New("auth", Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Second})
	ctx := context.Background()

	// 用可控时钟验证冷却边界
	now := time.Now()
	b.now = func() time.Time { return now }

	require.Error(t, b.Do(ctx, failingOp))
	require.Equal(t, StateOpen, b.State())

	// 冷却时间尚未到达，仍应拒绝
	now = now.Add(time.Second - time.Millisecond)
	err := b.Do(ctx, successOp)
	require.ErrorIs(t, err, ErrCircuitOpen, "冷却时间未到应继续拒绝")

	// 冷却时间已到，放行探测并进入半开
	now = now.Add(time.Millisecond)
	require.NoError(t, b.Do(ctx, successOp))
	assert.Equal(t, StateHalfOpen, b.State(), "冷却时间过后首个成功探测应处于半开状态")
}

func TestBreakerHalfOpenSingleFailureReopens(t *testing.T) {
	b := New("workflows", Config{FailureThreshold: 1, SuccessThreshold: 3, Timeout: time.Second})
	ctx := context.Background()

	now := time.Now()
	b.now = func() time.Time { return now }

	require.Error(t, b.Do(ctx, failingOp))
	now = now.Add(2 * time.Second)

	// 半开状态下累计两次成功（未达恢复阈值）
	require.NoError(t, b.Do(ctx, successOp))
	require.NoError(t, b.Do(ctx, successOp))
	require.Equal(t, StateHalfOpen, b.State())

	// 无论之前累计多少成功，一次失败立即重新打开
	require.Error(t, b.Do(ctx, failingOp))
	assert.Equal(t, StateOpen, b.State(), "半开状态下单次失败应立即重新打开")
}

func TestBreakerLifecycleScenario(t *testing.T) {
	// 场景：failure_threshold=2, success_threshold=2, timeout=1s
	b := New("predictive", Config{FailureThreshold: 2, SuccessThreshold: 2, Timeout: time.Second})
	ctx := context.Background()

	now := time.Now()
	b.now = func() time.Time { return now }

	// 两次连续失败后打开
	require.Error(t, b.Do(ctx, failingOp))
	require.Error(t, b.Do(ctx, failingOp))
	require.Equal(t, StateOpen, b.State())

	// 立即的第三次调用被拒绝，不触达下游
	invoked := false
	err := b.Do(ctx, func(ctx context.Context) error {
		invoked = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.False(t, invoked)

	// 等待超过1秒后放行探测，连续两次成功恢复关闭
	now = now.Add(time.Second + 10*time.Millisecond)
	require.NoError(t, b.Do(ctx, successOp))
	require.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Do(ctx, successOp))
	assert.Equal(t, StateClosed, b.State(), "探测通过后应恢复关闭")
}

func TestBreakerFailureClassification(t *testing.T) {
	classified := errors.New("应计入的失败")
	b := New("campaigns", Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		IsFailure:        func(err error) bool { return errors.Is(err, classified) },
	})
	ctx := context.Background()

	// 不在分类内的错误透传但不计入失败
	err := b.Do(ctx, func(ctx context.Context) error { return errDownstream })
	require.ErrorIs(t, err, errDownstream)
	assert.Equal(t, StateClosed, b.State(), "未被分类为失败的错误不应触发熔断")

	// 分类内的错误正常计入
	require.Error(t, b.Do(ctx, func(ctx context.Context) error { return classified }))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerConcurrentCalls(t *testing.T) {
	b := New("analytics", Config{FailureThreshold: 100, SuccessThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	// 并发调用不应死锁，操作在锁外执行
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Do(ctx, func(ctx context.Context) error {
				time.Sleep(time.Millisecond)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, StateClosed, b.State())
}

func TestRegistryReusesBreakers(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	b1 := r.Get("auth")
	b2 := r.Get("auth")
	b3 := r.Get("campaigns")

	assert.Same(t, b1, b2, "同名服务应复用同一个熔断器实例")
	assert.NotSame(t, b1, b3, "不同服务应使用独立的熔断器")
	assert.Len(t, r.Snapshots(), 2, "快照应覆盖所有已注册的熔断器")
}
