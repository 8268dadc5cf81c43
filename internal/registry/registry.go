// Package registry 维护逻辑服务的静态注册表：
// 每个逻辑服务拥有的路由组、依赖的其他服务、网络端口与描述。
// 注册表在进程启动时加载一次，之后只读。
package registry

import (
	"fmt"
	"os"
	"strings"
)

// ServiceType 逻辑服务类型
type ServiceType string

// 平台的全部逻辑服务
const (
	ServiceAuth         ServiceType = "auth"
	ServiceIntegrations ServiceType = "integrations"
	ServiceCampaigns    ServiceType = "campaigns"
	ServiceAnalytics    ServiceType = "analytics"
	ServiceOnboarding   ServiceType = "onboarding"
	ServicePredictive   ServiceType = "predictive"
	ServiceWorkflows    ServiceType = "workflows"
)

// Entry 单个逻辑服务的注册信息
type Entry struct {
	RouteModules []string      // 该服务拥有的路由组（有序）
	Dependencies []ServiceType // 该服务调用的其他服务
	Port         int           // 独立部署时的监听端口
	Description  string        // 服务描述
}

// Registry 逻辑服务注册表
type Registry struct {
	entries map[ServiceType]Entry
	order   []ServiceType // 保持稳定的遍历顺序
}

// New 创建平台默认的服务注册表
func New() *Registry {
	r := &Registry{entries: make(map[ServiceType]Entry)}

	r.add(ServiceAuth, Entry{
		RouteModules: []string{"auth", "users"},
		Dependencies: []ServiceType{},
		Port:         8001,
		Description:  "认证与用户管理服务",
	})
	r.add(ServiceIntegrations, Entry{
		RouteModules: []string{"integrations", "platforms"},
		Dependencies: []ServiceType{ServiceAuth},
		Port:         8002,
		Description:  "广告平台集成服务（Google/Meta/LinkedIn/TikTok等）",
	})
	r.add(ServiceCampaigns, Entry{
		RouteModules: []string{"campaigns"},
		Dependencies: []ServiceType{ServiceAuth, ServiceIntegrations},
		Port:         8003,
		Description:  "广告活动管理服务",
	})
	r.add(ServiceAnalytics, Entry{
		RouteModules: []string{"analytics", "reports"},
		Dependencies: []ServiceType{ServiceAuth, ServiceIntegrations, ServiceCampaigns},
		Port:         8004,
		Description:  "数据分析与报表服务",
	})
	r.add(ServiceOnboarding, Entry{
		RouteModules: []string{"onboarding"},
		Dependencies: []ServiceType{ServiceAuth, ServiceIntegrations},
		Port:         8005,
		Description:  "客户接入引导服务",
	})
	r.add(ServicePredictive, Entry{
		RouteModules: []string{"predictive"},
		Dependencies: []ServiceType{ServiceAuth, ServiceAnalytics},
		Port:         8006,
		Description:  "预测模型服务",
	})
	r.add(ServiceWorkflows, Entry{
		RouteModules: []string{"workflows"},
		Dependencies: []ServiceType{ServiceAuth, ServiceCampaigns, ServiceIntegrations},
		Port:         8007,
		Description:  "营销工作流编排服务",
	})

	return r
}

// add 注册一个服务条目
func (r *Registry) add(svc ServiceType, entry Entry) {
	r.entries[svc] = entry
	r.order = append(r.order, svc)
}

// RoutesFor 返回服务拥有的路由组，返回副本以保护内部表
func (r *Registry) RoutesFor(svc ServiceType) []string {
	modules := make([]string, len(r.entries[svc].RouteModules))
	copy(modules, r.entries[svc].RouteModules)
	return modules
}

// DependenciesOf 返回服务声明的依赖，返回副本以保护内部表
func (r *Registry) DependenciesOf(svc ServiceType) []ServiceType {
	deps := make([]ServiceType, len(r.entries[svc].Dependencies))
	copy(deps, r.entries[svc].Dependencies)
	return deps
}

// PortOf 返回服务独立部署时的端口
func (r *Registry) PortOf(svc ServiceType) int {
	return r.entries[svc].Port
}

// DescriptionOf 返回服务描述
func (r *Registry) DescriptionOf(svc ServiceType) string {
	return r.entries[svc].Description
}

// AllServices 返回全部已注册的服务，顺序稳定
func (r *Registry) AllServices() []ServiceType {
	services := make([]ServiceType, len(r.order))
	copy(services, r.order)
	return services
}

// Contains 判断服务是否已注册
func (r *Registry) Contains(svc ServiceType) bool {
	_, ok := r.entries[svc]
	return ok
}

// ByName 按名称解析服务类型，大小写不敏感。
// 该输入通常来自命令行或环境变量，未命中时返回false而非错误
func (r *Registry) ByName(raw string) (ServiceType, bool) {
	svc := ServiceType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := r.entries[svc]; ok {
		return svc, true
	}
	return "", false
}

// ResolveURL 解析服务的基础URL。
// 优先使用 <SERVICE>_SERVICE_URL 环境变量（如 AUTH_SERVICE_URL），
// 未设置时使用Kubernetes风格的DNS名称加注册表端口
func (r *Registry) ResolveURL(svc ServiceType) (string, error) {
	entry, ok := r.entries[svc]
	if !ok {
		return "", fmt.Errorf("未注册的服务: %s", svc)
	}

	envKey := strings.ToUpper(string(svc)) + "_SERVICE_URL"
	if url := os.Getenv(envKey); url != "" {
		return strings.TrimRight(url, "/"), nil
	}

	return fmt.Sprintf("http://%s-service:%d", svc, entry.Port), nil
}

// ValidateGraph 校验依赖图：所有依赖必须已注册，且不允许出现环。
// 在进程启动时调用，发现问题立即失败
func (r *Registry) ValidateGraph() error {
	// 依赖必须指向已注册的服务
	for _, svc := range r.order {
		for _, dep := range r.entries[svc].Dependencies {
			if _, ok := r.entries[dep]; !ok {
				return fmt.Errorf("服务 %s 声明了未注册的依赖: %s", svc, dep)
			}
			if dep == svc {
				return fmt.Errorf("服务 %s 不能依赖自身", svc)
			}
		}
	}

	// DFS检测依赖环
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[ServiceType]int)

	var visit func(svc ServiceType, path []ServiceType) error
	visit = func(svc ServiceType, path []ServiceType) error {
		switch state[svc] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("依赖图存在环: %s", formatCycle(append(path, svc)))
		}

		state[svc] = visiting
		for _, dep := range r.entries[svc].Dependencies {
			if err := visit(dep, append(path, svc)); err != nil {
				return err
			}
		}
		state[svc] = done
		return nil
	}

	for _, svc := range r.order {
		if err := visit(svc, nil); err != nil {
			return err
		}
	}
	return nil
}

// formatCycle 将依赖环格式化为 a -> b -> a 的形式
func formatCycle(path []ServiceType) string {
	names := make([]string, len(path))
	for i, svc := range path {
		names[i] = string(svc)
	}
	return strings.Join(names, " -> ")
}
