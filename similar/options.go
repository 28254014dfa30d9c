package similar

import (
	"fmt"
	"slices"
	"time"

	"github.com/rushteam/itemsim/feature"
	"github.com/rushteam/itemsim/filter"
	"github.com/rushteam/itemsim/rank"
	"github.com/rushteam/itemsim/recall"
)

// 默认参数
const (
	DefaultLimit         = 4
	DefaultMinLimit      = 1
	DefaultMaxLimit      = 20
	DefaultPublishStatus = "publish"
)

// DefaultEligibleTypes 可作为基准商品/候选的商品类型
var DefaultEligibleTypes = []string{"simple", "variable"}

// Options 是 Engine 的静态参数，构造后不再修改。
type Options struct {
	DefaultLimit int
	MinLimit     int
	MaxLimit     int

	EligibleTypes []string
	PublishStatus string

	// CandidateMultiplier 候选数 = limit * CandidateMultiplier
	CandidateMultiplier int

	// MaxConcurrent 候选特征并发加载上限
	MaxConcurrent int

	// Timeout 单次请求的上下文超时，0 表示不设置
	Timeout time.Duration

	Weights rank.Weights
	Rules   filter.Rules

	// Filters 在内置规则之后执行（CEL 规则、黑名单等）
	Filters []filter.Filter

	// Predicates 外部业务规则，全部通过才保留
	Predicates []filter.Predicate

	// StopWords 为空时使用 feature.DefaultStopWords
	StopWords []string

	// CacheTTL 结果缓存时间，0 使用缓存自身的默认值
	CacheTTL time.Duration

	// Coalesce 同 key 的并发未命中只计算一次
	Coalesce bool
}

// DefaultOptions 返回默认参数。
func DefaultOptions() Options {
	return Options{
		DefaultLimit:        DefaultLimit,
		MinLimit:            DefaultMinLimit,
		MaxLimit:            DefaultMaxLimit,
		EligibleTypes:       slices.Clone(DefaultEligibleTypes),
		PublishStatus:       DefaultPublishStatus,
		CandidateMultiplier: recall.DefaultCandidateMultiplier,
		MaxConcurrent:       feature.DefaultMaxConcurrent,
		Weights:             rank.DefaultWeights(),
		Rules:               filter.DefaultRules(),
	}
}

// normalize 补齐零值并校验。
func (o Options) normalize() (Options, error) {
	if o.MinLimit <= 0 {
		o.MinLimit = DefaultMinLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = DefaultMaxLimit
	}
	if o.MaxLimit < o.MinLimit {
		return o, fmt.Errorf("similar: max limit %d < min limit %d", o.MaxLimit, o.MinLimit)
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultLimit
	}
	o.DefaultLimit = min(max(o.DefaultLimit, o.MinLimit), o.MaxLimit)
	if len(o.EligibleTypes) == 0 {
		o.EligibleTypes = slices.Clone(DefaultEligibleTypes)
	}
	if o.PublishStatus == "" {
		o.PublishStatus = DefaultPublishStatus
	}
	if o.CandidateMultiplier <= 0 {
		o.CandidateMultiplier = recall.DefaultCandidateMultiplier
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = feature.DefaultMaxConcurrent
	}
	if o.Weights == (rank.Weights{}) {
		o.Weights = rank.DefaultWeights()
	}
	if err := o.Weights.Validate(); err != nil {
		return o, fmt.Errorf("similar: %w", err)
	}
	if o.Rules == (filter.Rules{}) {
		o.Rules = filter.DefaultRules()
	}
	if o.Rules.DuplicateThreshold <= 0 {
		o.Rules.DuplicateThreshold = filter.DefaultDuplicateThreshold
	}
	if o.Timeout < 0 {
		o.Timeout = 0
	}
	return o, nil
}

// ClampLimit 把请求的 limit 裁剪到 [MinLimit, MaxLimit]；0 取 DefaultLimit。
func (o Options) ClampLimit(limit int) int {
	if limit == 0 {
		return o.DefaultLimit
	}
	return min(max(limit, o.MinLimit), o.MaxLimit)
}
