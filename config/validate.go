package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// 错误信息使用 yaml 字段名
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate 校验字段约束以及字段之间的依赖关系。
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	e := c.Engine
	if e.DefaultLimit < e.MinLimit || e.DefaultLimit > e.MaxLimit {
		return fmt.Errorf("invalid config: engine.default_limit %d outside [%d, %d]", e.DefaultLimit, e.MinLimit, e.MaxLimit)
	}
	if c.Cache.Enabled && c.Cache.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: redis.addr is required when cache.backend is redis")
	}
	if c.Catalog.Backend == "postgres" && c.Catalog.DSN == "" {
		return fmt.Errorf("invalid config: catalog.dsn is required when catalog.backend is postgres")
	}
	if c.Feast.Enabled && (c.Feast.Host == "" || c.Feast.Project == "") {
		return fmt.Errorf("invalid config: feast.host and feast.project are required when feast is enabled")
	}
	for i, r := range c.Filter.Rules {
		if _, ok := lookupRule(r.Type); !ok {
			return fmt.Errorf("invalid config: filter.rules[%d]: unsupported rule type %q (supported: %v)", i, r.Type, SupportedRuleTypes())
		}
	}
	return nil
}
