package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征服务的客户端接口。
//
// 只保留在线读取：相似推荐只需要按商品 ID 读取少量数值信号。
// GrpcClient 基于官方 SDK 实现；测试中可以替换为内存实现。
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	// 参数：
	//   - Features: 特征引用列表，例如 ["item_stats:sales_count", "item_stats:reviews_avg"]
	//   - EntityRows: 实体行，例如 [{"item_id": 1001}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	Features   []string
	EntityRows []map[string]any

	// Project 为空时使用客户端默认项目
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应，FeatureVectors 与 EntityRows 一一对应。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值（数值统一转为 float64）。
type FeatureVector struct {
	Values    map[string]float64
	EntityRow map[string]any
}

// ClientConfig 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置，目前只支持静态 Token
type AuthConfig struct {
	Type  string // "static"
	Token string
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// WithTimeout 设置单次调用超时
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
