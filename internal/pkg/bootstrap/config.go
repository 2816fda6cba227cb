// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 是所有环境变量覆盖项的前缀，例如 TEASHOP_INFRA_MYSQL_HOST。
const EnvPrefix = "TEASHOP"

type Config struct {
	App   AppConfig   `yaml:"app"`
	Log   LogConfig   `yaml:"log"`
	Infra InfraConfig `yaml:"infra"`
	Shop  ShopConfig  `yaml:"shop"`
}

type AppConfig struct {
	Name            string        `yaml:"name"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type InfraConfig struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Jaeger JaegerConfig `yaml:"jaeger"`
	Nacos  NacosConfig  `yaml:"nacos"`
}

type MySQLConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	MaxOpenConns int    `yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns int    `yaml:"max_idle_conns" split_words:"true"`
}

type RedisConfig struct {
	Addrs    []string      `yaml:"addrs"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl" split_words:"true"`
}

type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	OrderEventsTopic string   `yaml:"order_events_topic" split_words:"true"`
	FulfillmentTopic string   `yaml:"fulfillment_topic" split_words:"true"`
	ConsumerGroup    string   `yaml:"consumer_group" split_words:"true"`
	DeadLetterTopic  string   `yaml:"dead_letter_topic" split_words:"true"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio" split_words:"true"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"server_addrs" split_words:"true"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

// ShopConfig 是店铺业务相关的配置。
type ShopConfig struct {
	Currency          string        `yaml:"currency"`
	ShippingFee       float64       `yaml:"shipping_fee" split_words:"true"`
	SessionTTL        time.Duration `yaml:"session_ttl" split_words:"true"`
	PaymentBaseURL    string        `yaml:"payment_base_url" split_words:"true"`
	PaymentAPIKey     string        `yaml:"payment_api_key" split_words:"true"`
	PaymentTimeout    time.Duration `yaml:"payment_timeout" split_words:"true"`
	CancelReasonLimit int           `yaml:"cancel_reason_limit" split_words:"true"`
	// PaymentWindow 为 0 时不自动取消未支付订单
	PaymentWindow       time.Duration `yaml:"payment_window" split_words:"true"`
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval" split_words:"true"`
}

// Default 返回本地开发可直接使用的默认配置。
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:            "storefront-service",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Infra: InfraConfig{
			MySQL: MySQLConfig{
				Host:         "localhost",
				Port:         3306,
				User:         "teashop",
				Database:     "teashop",
				MaxOpenConns: 20,
				MaxIdleConns: 5,
			},
			Redis: RedisConfig{
				Addrs:    []string{"localhost:6379"},
				CacheTTL: 5 * time.Minute,
			},
			Kafka: KafkaConfig{
				Brokers:          []string{"localhost:9092"},
				OrderEventsTopic: "order-events",
				FulfillmentTopic: "fulfillment-events",
				ConsumerGroup:    "storefront-fulfillment-group",
				DeadLetterTopic:  "fulfillment-events-dlt",
			},
			Jaeger: JaegerConfig{
				Endpoint:    "http://localhost:14268/api/traces",
				SampleRatio: 1,
			},
			Nacos: NacosConfig{Group: "DEFAULT_GROUP"},
		},
		Shop: ShopConfig{
			Currency:            "INR",
			ShippingFee:         50,
			SessionTTL:          24 * time.Hour,
			PaymentBaseURL:      "http://localhost:8090",
			PaymentTimeout:      5 * time.Second,
			CancelReasonLimit:   500,
			PaymentWindow:       30 * time.Minute,
			ExpirySweepInterval: time.Minute,
		},
	}
}

// 取消原因最多 500 个字符，配置只能收紧
const maxCancelReasonLimit = 500

// Load 依次叠加默认值、YAML 文件（path 为空或文件不存在时跳过）与环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config file %s", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "apply environment overrides")
	}
	if cfg.Shop.CancelReasonLimit <= 0 || cfg.Shop.CancelReasonLimit > maxCancelReasonLimit {
		cfg.Shop.CancelReasonLimit = maxCancelReasonLimit
	}
	return cfg, nil
}

var current atomic.Pointer[Config]

// Init 加载配置并设为当前配置。
func Init(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	current.Store(cfg)
	return cfg, nil
}

// GetCurrentConfig 返回当前生效的配置，未初始化时返回默认配置。
func GetCurrentConfig() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return Default()
}
