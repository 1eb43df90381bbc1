package daemonconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"modelmarket/go-backend/internal/platform/amount"
	"modelmarket/go-backend/internal/waku"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFeePercentage = 5
	DefaultRPCRateRPS    = 20
	DefaultRPCRateBurst  = 40
)

var DefaultFeedbackPrice = amount.New(1)

// Config is the resolved daemon configuration. Secrets are never read from
// the file; they come from the environment at composition time.
type Config struct {
	Marketplace   MarketplaceConfig
	Storage       StorageConfig
	Notifications waku.Config
	RPC           RPCConfig
	Logging       LoggingConfig
}

type MarketplaceConfig struct {
	AdminAddress  string
	FeePercentage uint64
	FeedbackPrice amount.Amount
}

type StorageConfig struct {
	DataDir string
}

type RPCConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
}

type LoggingConfig struct {
	Level string
	JSON  bool
}

type FileConfig struct {
	Marketplace   FileMarketplaceConfig   `yaml:"marketplace"`
	Storage       FileStorageConfig       `yaml:"storage"`
	Notifications FileNotificationsConfig `yaml:"notifications"`
	RPC           FileRPCConfig           `yaml:"rpc"`
	Logging       FileLoggingConfig       `yaml:"logging"`
}

type FileMarketplaceConfig struct {
	AdminAddress  string  `yaml:"adminAddress"`
	FeePercentage *uint64 `yaml:"feePercentage"`
	FeedbackPrice string  `yaml:"feedbackPrice"`
}

type FileStorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

type FileNotificationsConfig struct {
	Transport           string        `yaml:"transport"`
	Port                int           `yaml:"port"`
	EnableRelay         *bool         `yaml:"enableRelay"`
	EnableLightPush     *bool         `yaml:"enableLightPush"`
	BootstrapNodes      []string      `yaml:"bootstrapNodes"`
	MinPeers            int           `yaml:"minPeers"`
	PubsubTopic         string        `yaml:"pubsubTopic"`
	ContentTopic        string        `yaml:"contentTopic"`
	ReconnectInterval   time.Duration `yaml:"reconnectInterval"`
	ReconnectBackoffMax time.Duration `yaml:"reconnectBackoffMax"`
	PublishTimeout      time.Duration `yaml:"publishTimeout"`
	QueueSize           int           `yaml:"queueSize"`
}

type FileRPCConfig struct {
	RateLimitRPS   *float64 `yaml:"rateLimitRps"`
	RateLimitBurst *int     `yaml:"rateLimitBurst"`
	MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
}

type FileLoggingConfig struct {
	Level string `yaml:"level"`
	JSON  *bool  `yaml:"json"`
}

func Default() Config {
	return Config{
		Marketplace: MarketplaceConfig{
			FeePercentage: DefaultFeePercentage,
			FeedbackPrice: DefaultFeedbackPrice,
		},
		Notifications: waku.DefaultConfig(),
		RPC: RPCConfig{
			RateLimitRPS:   DefaultRPCRateRPS,
			RateLimitBurst: DefaultRPCRateBurst,
			MaxBodyBytes:   1 << 20,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadFromPath reads the first readable candidate. An explicit path must
// exist and parse; the implicit candidates are optional.
func LoadFromPath(configPath string) (Config, error) {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-backend/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath != "" {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}

		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := Merge(&cfg, parsed); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		break
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Merge(dst *Config, src FileConfig) error {
	if v := strings.TrimSpace(src.Marketplace.AdminAddress); v != "" {
		dst.Marketplace.AdminAddress = v
	}
	if src.Marketplace.FeePercentage != nil {
		dst.Marketplace.FeePercentage = *src.Marketplace.FeePercentage
	}
	if v := strings.TrimSpace(src.Marketplace.FeedbackPrice); v != "" {
		price, err := amount.Parse(v)
		if err != nil {
			return fmt.Errorf("marketplace.feedbackPrice: %w", err)
		}
		dst.Marketplace.FeedbackPrice = price
	}
	if v := strings.TrimSpace(src.Storage.DataDir); v != "" {
		dst.Storage.DataDir = v
	}
	mergeNotifications(&dst.Notifications, src.Notifications)
	if src.RPC.RateLimitRPS != nil {
		dst.RPC.RateLimitRPS = *src.RPC.RateLimitRPS
	}
	if src.RPC.RateLimitBurst != nil {
		dst.RPC.RateLimitBurst = *src.RPC.RateLimitBurst
	}
	if src.RPC.MaxBodyBytes > 0 {
		dst.RPC.MaxBodyBytes = src.RPC.MaxBodyBytes
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = v
	}
	if src.Logging.JSON != nil {
		dst.Logging.JSON = *src.Logging.JSON
	}
	return nil
}

func mergeNotifications(dst *waku.Config, src FileNotificationsConfig) {
	if src.Transport != "" {
		dst.Transport = src.Transport
	}
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.EnableRelay != nil {
		dst.EnableRelay = *src.EnableRelay
	}
	if src.EnableLightPush != nil {
		dst.EnableLightPush = *src.EnableLightPush
	}
	if src.BootstrapNodes != nil {
		dst.BootstrapNodes = src.BootstrapNodes
	}
	if src.MinPeers != 0 {
		dst.MinPeers = src.MinPeers
	}
	if src.PubsubTopic != "" {
		dst.PubsubTopic = src.PubsubTopic
	}
	if src.ContentTopic != "" {
		dst.ContentTopic = src.ContentTopic
	}
	if src.ReconnectInterval != 0 {
		dst.ReconnectInterval = src.ReconnectInterval
	}
	if src.ReconnectBackoffMax != 0 {
		dst.ReconnectBackoffMax = src.ReconnectBackoffMax
	}
	if src.PublishTimeout != 0 {
		dst.PublishTimeout = src.PublishTimeout
	}
	if src.QueueSize != 0 {
		dst.QueueSize = src.QueueSize
	}
}

var errInvalidEnv = errors.New("invalid environment override")

// ApplyEnvOverrides applies MKT_* variables on top of the file values.
func ApplyEnvOverrides(cfg *Config) error {
	if v := envString("MKT_ADMIN_ADDRESS"); v != "" {
		cfg.Marketplace.AdminAddress = v
	}
	if v := envString("MKT_FEE_PERCENTAGE"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: MKT_FEE_PERCENTAGE=%q", errInvalidEnv, v)
		}
		cfg.Marketplace.FeePercentage = parsed
	}
	if v := envString("MKT_FEEDBACK_PRICE"); v != "" {
		price, err := amount.Parse(v)
		if err != nil {
			return fmt.Errorf("%w: MKT_FEEDBACK_PRICE=%q", errInvalidEnv, v)
		}
		cfg.Marketplace.FeedbackPrice = price
	}
	if v := envString("MKT_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := envString("MKT_NOTIFY_TRANSPORT"); v != "" {
		cfg.Notifications.Transport = v
	}
	if v := envString("MKT_NOTIFY_BOOTSTRAP_NODES"); v != "" {
		nodes := make([]string, 0)
		for _, node := range strings.Split(v, ",") {
			if node = strings.TrimSpace(node); node != "" {
				nodes = append(nodes, node)
			}
		}
		cfg.Notifications.BootstrapNodes = nodes
	}
	if v := envString("MKT_RPC_RATE_LIMIT_RPS"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return fmt.Errorf("%w: MKT_RPC_RATE_LIMIT_RPS=%q", errInvalidEnv, v)
		}
		cfg.RPC.RateLimitRPS = parsed
	}
	if v := envString("MKT_RPC_RATE_LIMIT_BURST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return fmt.Errorf("%w: MKT_RPC_RATE_LIMIT_BURST=%q", errInvalidEnv, v)
		}
		cfg.RPC.RateLimitBurst = parsed
	}
	if v := envString("MKT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.ToLower(envString("MKT_LOG_FORMAT")); v != "" {
		cfg.Logging.JSON = v == "json"
	}
	return nil
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
