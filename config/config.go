// Package config 负责加载与校验 itemsim 的运行配置。
//
// 加载顺序：Default() -> YAML 文件 -> .env -> ITEMSIM_* 环境变量，最后整体校验。
// 配置是显式传入各构造函数的值对象，包内没有全局配置。
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/itemsim/filter"
	"github.com/rushteam/itemsim/rank"
)

// Config 顶层配置
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Weights rank.Weights  `yaml:"weights"`
	Filter  FilterConfig  `yaml:"filter"`
	Cache   CacheConfig   `yaml:"cache"`
	Redis   RedisConfig   `yaml:"redis"`
	Catalog CatalogConfig `yaml:"catalog"`
	Feast   FeastConfig   `yaml:"feast"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig 编排层参数
type EngineConfig struct {
	DefaultLimit        int           `yaml:"default_limit" validate:"gte=1"`
	MinLimit            int           `yaml:"min_limit" validate:"gte=1"`
	MaxLimit            int           `yaml:"max_limit" validate:"gtefield=MinLimit"`
	EligibleTypes       []string      `yaml:"eligible_types" validate:"min=1,dive,required"`
	PublishStatus       string        `yaml:"publish_status" validate:"required"`
	CandidateMultiplier int           `yaml:"candidate_multiplier" validate:"gte=1"`
	MaxConcurrent       int           `yaml:"max_concurrent" validate:"gte=1"`
	Timeout             time.Duration `yaml:"timeout" validate:"gte=0"`
}

// FilterConfig 业务过滤规则
type FilterConfig struct {
	MinScore           float64      `yaml:"min_score" validate:"gte=0"`
	DuplicateThreshold float64      `yaml:"duplicate_threshold" validate:"gt=0,lte=1"`
	Rules              []RuleConfig `yaml:"rules" validate:"dive"`
}

// RuleConfig 一条可配置过滤规则，Type 对应 RegisterRule 注册的构建器。
//
//	rules:
//	  - type: expr
//	    name: price_cap
//	    expr: candidate.price <= base.price * 3.0
//	  - type: blacklist
//	    item_ids: [13, 42]
type RuleConfig struct {
	Type    string  `yaml:"type" validate:"required"`
	Name    string  `yaml:"name"`
	Expr    string  `yaml:"expr" validate:"required_if=Type expr"`
	ItemIDs []int64 `yaml:"item_ids"`
}

// CacheConfig 结果缓存
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Backend   string        `yaml:"backend" validate:"oneof=memory redis"`
	TTL       time.Duration `yaml:"ttl" validate:"gt=0"`
	KeyPrefix string        `yaml:"key_prefix" validate:"required"`
	Coalesce  bool          `yaml:"coalesce"`
}

// RedisConfig Redis 连接参数（cache.backend=redis 时使用）
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// CatalogConfig 商品目录来源
type CatalogConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=memory postgres"`
	DSN          string `yaml:"dsn"`
	Fixtures     string `yaml:"fixtures"`
	MaxOpenConns int    `yaml:"max_open_conns" validate:"gte=0"`
}

// FeastConfig Feast 在线特征（销量/评分信号）
type FeastConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"gte=0,lte=65535"`
	Project        string        `yaml:"project"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	EntityKey      string        `yaml:"entity_key"`
	SalesFeature   string        `yaml:"sales_feature"`
	ReviewsFeature string        `yaml:"reviews_feature"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DefaultLimit:        4,
			MinLimit:            1,
			MaxLimit:            20,
			EligibleTypes:       []string{"simple", "variable"},
			PublishStatus:       "publish",
			CandidateMultiplier: 3,
			MaxConcurrent:       8,
		},
		Weights: rank.DefaultWeights(),
		Filter: FilterConfig{
			MinScore:           filter.DefaultMinScore,
			DuplicateThreshold: filter.DefaultDuplicateThreshold,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "memory",
			TTL:       time.Hour,
			KeyPrefix: "similar",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Catalog: CatalogConfig{
			Backend:      "memory",
			MaxOpenConns: 10,
		},
		Feast: FeastConfig{
			Port:           6565,
			Timeout:        time.Second,
			EntityKey:      "item_id",
			SalesFeature:   "item_stats:sales_count",
			ReviewsFeature: "item_stats:reviews_avg",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load 加载配置文件（path 为空时只用默认值与环境变量），并完成校验。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	// .env 不存在不是错误
	_ = godotenv.Load()
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse 把 YAML 覆盖到 cfg 上，未出现的字段保留原值。
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
