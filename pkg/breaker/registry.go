package breaker

import "sync"

// Registry 进程级熔断器注册表，按下游服务名称惰性创建并复用熔断器实例。
//
// 插入锁只保护新名称的首次创建；每次调用的状态更新由熔断器自身的锁保护。
type Registry struct {
	mu       sync.Mutex
	config   Config
	breakers map[string]*Breaker
}

// NewRegistry 创建熔断器注册表，config作为所有新建熔断器的配置
func NewRegistry(config Config) *Registry {
	return &Registry{
		config:   config,
		breakers: make(map[string]*Breaker),
	}
}

// Get 返回指定名称的熔断器，不存在则创建
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[name]
	if !ok {
		b = New(name, r.config)
		r.breakers[name] = b
	}
	return b
}

// Snapshots 返回所有已注册熔断器的状态快照，供观测使用
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		snapshots = append(snapshots, b.GetSnapshot())
	}
	return snapshots
}
