// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

var envPlaceholder = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 加载配置文件
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFrom("configs")
}

// LoadFrom 从指定目录加载配置
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置（缺失时完全依赖默认值与环境变量）
	if err := loadConfigFile(v, dir+"/config.yaml", true); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := loadConfigFile(v, fmt.Sprintf("%s/config.%s.yaml", dir, env), true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，后续文件走 Merge
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符
// 未设置且无默认值的变量保留原样，便于排查
func expandEnv(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPlaceholder.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		return match
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 启动前的基本校验
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}
	if c.Security.JWT.Secret == "" {
		return fmt.Errorf("security.jwt.secret is required")
	}
	return nil
}

// ResolveProvider 返回生成流水线使用的提供商名称与配置
func (c *Config) ResolveProvider() (string, ProviderConfig, error) {
	name := c.Generation.Provider
	if name == "" {
		name = c.LLM.DefaultProvider
	}
	p, ok := c.LLM.Providers[name]
	if !ok {
		return "", ProviderConfig{}, fmt.Errorf("llm provider %q not configured", name)
	}
	if p.Type == "" {
		p.Type = ProviderTypeOpenAI
	}
	if c.Generation.Model != "" {
		p.Model = c.Generation.Model
	}
	return name, p, nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "edu-lesson-ai-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值（生成接口可能持续数十秒）
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "180s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.shutdown_timeout", "30s")

	// 数据库默认值
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "edu_lesson_ai")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")
	v.SetDefault("database.sqlite.path", "edu_lesson_ai.db")

	// Redis 默认值
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 50)
	v.SetDefault("cache.redis.min_idle_conns", 5)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.artifact_ttl", "10m")

	// LLM 默认值
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("generation.timeout", "120s")
	v.SetDefault("generation.content_prompt_id", "content_v1")
	v.SetDefault("generation.lesson_prompt_id", "lesson_v1")

	// 事件流默认值
	v.SetDefault("messaging.redis_stream.enabled", false)
	v.SetDefault("messaging.redis_stream.stream", "edu:artifacts")
	v.SetDefault("messaging.redis_stream.max_len", 10000)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.jwt.issuer", "edu-lesson-ai")
	v.SetDefault("security.jwt.expiration", "24h")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_window", 10)
	v.SetDefault("security.rate_limit.window", "1m")
	v.SetDefault("security.rate_limit.burst", 5)
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Request-ID"})
}
