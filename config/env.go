package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "ITEMSIM_"

// LookupFunc 与 os.LookupEnv 签名一致，便于测试注入。
type LookupFunc func(key string) (string, bool)

// ApplyEnv 用 ITEMSIM_* 环境变量覆盖配置，主要用于部署时注入连接串与密钥。
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("CATALOG_BACKEND", &cfg.Catalog.Backend)
	e.str("CATALOG_DSN", &cfg.Catalog.DSN)
	e.str("CATALOG_FIXTURES", &cfg.Catalog.Fixtures)

	e.bool("CACHE_ENABLED", &cfg.Cache.Enabled)
	e.str("CACHE_BACKEND", &cfg.Cache.Backend)
	e.duration("CACHE_TTL", &cfg.Cache.TTL)

	e.str("REDIS_ADDR", &cfg.Redis.Addr)
	e.str("REDIS_PASSWORD", &cfg.Redis.Password)
	e.int("REDIS_DB", &cfg.Redis.DB)

	e.bool("FEAST_ENABLED", &cfg.Feast.Enabled)
	e.str("FEAST_HOST", &cfg.Feast.Host)
	e.int("FEAST_PORT", &cfg.Feast.Port)
	e.str("FEAST_PROJECT", &cfg.Feast.Project)
	e.str("FEAST_TOKEN", &cfg.Feast.Token)

	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	e.bool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	e.str("METRICS_ADDR", &cfg.Metrics.Addr)

	e.duration("ENGINE_TIMEOUT", &cfg.Engine.Timeout)

	return e.err
}

type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil || e.lookup == nil {
		return "", false
	}
	v, ok := e.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(name, value string, err error) {
	e.err = fmt.Errorf("env %s%s=%q: %w", EnvPrefix, name, value, err)
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = n
}

func (e *envReader) bool(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = d
}
