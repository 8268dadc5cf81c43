package registry

import "context"

// HealthStatus 一次健康探测的结果
type HealthStatus struct {
	Service ServiceType `json:"service"`
	Status  string      `json:"status"` // "healthy" 或 "unhealthy"
	Error   string      `json:"error,omitempty"`
}

// Healthy 判断探测结果是否健康
func (s HealthStatus) Healthy() bool {
	return s.Status == "healthy"
}

// HealthChecker 依赖健康探测接口，由服务间调用客户端实现。
// 实现必须保证不返回错误：任何失败都归一化为unhealthy状态
type HealthChecker interface {
	HealthCheck(ctx context.Context, svc ServiceType) HealthStatus
}

// DependencyReport 依赖可达性校验结果
type DependencyReport struct {
	Service      ServiceType   `json:"service"`
	Dependencies []ServiceType `json:"dependencies"`
	Missing      []ServiceType `json:"missing,omitempty"`
}

// AllHealthy 判断所有声明的依赖是否都可达
func (r DependencyReport) AllHealthy() bool {
	return len(r.Missing) == 0
}

// CheckDependencies 逐个探测服务声明的依赖的健康状态。
// 依赖逐个串行探测，不可达的依赖记入Missing
func (r *Registry) CheckDependencies(ctx context.Context, svc ServiceType, checker HealthChecker) DependencyReport {
	deps := r.DependenciesOf(svc)
	report := DependencyReport{
		Service:      svc,
		Dependencies: deps,
	}

	for _, dep := range deps {
		if status := checker.HealthCheck(ctx, dep); !status.Healthy() {
			report.Missing = append(report.Missing, dep)
		}
	}

	return report
}
