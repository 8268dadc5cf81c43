package client

import (
	"context"
	"encoding/json"

	"github.com/hewenyu/meshkit/internal/registry"
)

// 各逻辑服务的便捷调用方法，均为CallService固定服务类型的语法糖

// CallAuth 调用认证服务
func (c *Client) CallAuth(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServiceAuth, method, path, body, opts...)
}

// CallIntegrations 调用广告平台集成服务
func (c *Client) CallIntegrations(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServiceIntegrations, method, path, body, opts...)
}

// CallCampaigns 调用广告活动服务
func (c *Client) CallCampaigns(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServiceCampaigns, method, path, body, opts...)
}

// CallAnalytics 调用数据分析服务
func (c *Client) CallAnalytics(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServiceAnalytics, method, path, body, opts...)
}

// CallOnboarding 调用客户接入服务
func (c *Client) CallOnboarding(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServiceOnboarding, method, path, body, opts...)
}

// CallPredictive 调用预测模型服务
func (c *Client) CallPredictive(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServicePredictive, method, path, body, opts...)
}

// CallWorkflows 调用工作流服务
func (c *Client) CallWorkflows(ctx context.Context, method, path string, body interface{}, opts ...CallOption) (json.RawMessage, error) {
	return c.CallService(ctx, registry.ServiceWorkflows, method, path, body, opts...)
}
