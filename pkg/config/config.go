// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wyfcoding/cashflow/pkg/logger"
)

// Config 服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	// 预测引擎配置
	Forecast ForecastConfig `mapstructure:"forecast"`
	// 对账引擎配置
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
	// 是否启用 SQL 日志
	LogEnabled bool `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// 是否启用（禁用时预测缓存与限流自动退化）
	Enabled bool `mapstructure:"enabled"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	// 会计系统同步流水 topic
	LedgerTopic string `mapstructure:"ledger_topic"`
	// 对账完成事件 topic
	ReconcileTopic string `mapstructure:"reconcile_topic"`
	// 消费组
	GroupID string `mapstructure:"group_id"`
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// ForecastConfig 预测引擎配置
type ForecastConfig struct {
	// 默认粒度：month 或 week
	DefaultGranularity string `mapstructure:"default_granularity"`
	// 预测结果缓存 TTL（秒），0 表示不缓存
	CacheTTL int `mapstructure:"cache_ttl"`
}

// ReconcileConfig 对账引擎配置
type ReconcileConfig struct {
	// 候选窗口（天）
	WindowDays int `mapstructure:"window_days"`
	// 金额得分权重
	AmountWeight float64 `mapstructure:"amount_weight"`
	// 时间得分权重
	TimingWeight float64 `mapstructure:"timing_weight"`
	// 最低置信度阈值，低于该值报告为未匹配
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// Load 从 TOML 文件加载配置，应用默认值并支持 APP_ 前缀的环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.Reconcile.WindowDays <= 0 {
		return fmt.Errorf("reconcile window_days must be positive")
	}
	if c.Reconcile.AmountWeight < 0 || c.Reconcile.TimingWeight < 0 {
		return fmt.Errorf("reconcile weights must be non-negative")
	}
	if c.Reconcile.AmountWeight+c.Reconcile.TimingWeight == 0 {
		return fmt.Errorf("at least one reconcile weight must be positive")
	}
	switch c.Forecast.DefaultGranularity {
	case "", "month", "week":
	default:
		return fmt.Errorf("invalid forecast granularity: %s", c.Forecast.DefaultGranularity)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.ledger_topic", "ledger.transactions")
	v.SetDefault("kafka.reconcile_topic", "reconciliation.completed")
	v.SetDefault("kafka.group_id", "cashflow")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.qps", 50)
	v.SetDefault("ratelimit.burst", 100)

	v.SetDefault("forecast.default_granularity", "month")
	v.SetDefault("forecast.cache_ttl", 60)

	v.SetDefault("reconcile.window_days", 30)
	v.SetDefault("reconcile.amount_weight", 0.6)
	v.SetDefault("reconcile.timing_weight", 0.4)
	v.SetDefault("reconcile.min_confidence", 0.3)
}
