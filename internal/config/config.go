package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// FeedConfig drives the poller and the exchange connector.
type FeedConfig struct {
	Exchange     string        `yaml:"exchange" json:"exchange"`
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Symbol       string        `yaml:"symbol" json:"symbol"`
	Depth        int           `yaml:"depth" json:"depth"`
	TopK         int           `yaml:"top_k" json:"top_k"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay" json:"retry_delay"`
	HTTPTimeout  time.Duration `yaml:"http_timeout" json:"http_timeout"`
}

// HubConfig bounds the delta stream fan-out.
type HubConfig struct {
	MaxSubscribers int `yaml:"max_subscribers" json:"max_subscribers"`
}

// PubSubConfig selects the delta fan-out transport. Backend is one of
// "inproc", "redis" or "kafka"; deltas are published on Channel.
type PubSubConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	Channel string `yaml:"channel" json:"channel"`
}

// Config is the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Log    struct {
		Level string `yaml:"level" json:"level"`
	} `yaml:"log" json:"log"`
	Feed   FeedConfig   `yaml:"feed" json:"feed"`
	Hub    HubConfig    `yaml:"hub" json:"hub"`
	PubSub PubSubConfig `yaml:"pubsub" json:"pubsub"`
	Redis  struct {
		Address  string `yaml:"address" json:"address"`
		Password string `yaml:"password" json:"password"`
		DB       int    `yaml:"db" json:"db"`
	} `yaml:"redis" json:"redis"`
	Kafka struct {
		Brokers []string `yaml:"brokers" json:"brokers"`
	} `yaml:"kafka" json:"kafka"`
}

// LoadConfig builds the configuration from defaults, then environment
// variables, then an optional config.yaml found next to the binary or under
// ./config or /etc/bookfeed.
func LoadConfig() (*Config, error) {
	config := &Config{}

	config.Server = ServerConfig{Host: "0.0.0.0", Port: 8080}
	config.Log.Level = "info"
	config.Feed = FeedConfig{
		Exchange:     "binance",
		Symbol:       "BTCUSDT",
		Depth:        50,
		TopK:         10,
		PollInterval: 2 * time.Second,
		MaxAttempts:  3,
		RetryDelay:   200 * time.Millisecond,
		HTTPTimeout:  5 * time.Second,
	}
	config.Hub = HubConfig{MaxSubscribers: 100}
	config.PubSub = PubSubConfig{Backend: "inproc", Channel: "orderbook.deltas"}
	config.Redis.Address = "localhost:6379"
	config.Kafka.Brokers = []string{"localhost:9092"}

	// Environment overrides
	if port, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil {
		config.Server.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if exchange := os.Getenv("FEED_EXCHANGE"); exchange != "" {
		config.Feed.Exchange = exchange
	}
	if baseURL := os.Getenv("FEED_BASE_URL"); baseURL != "" {
		config.Feed.BaseURL = baseURL
	}
	if symbol := os.Getenv("FEED_SYMBOL"); symbol != "" {
		config.Feed.Symbol = symbol
	}
	if depth, err := strconv.Atoi(os.Getenv("FEED_DEPTH")); err == nil {
		config.Feed.Depth = depth
	}
	if topK, err := strconv.Atoi(os.Getenv("FEED_TOP_K")); err == nil {
		config.Feed.TopK = topK
	}
	if interval, err := time.ParseDuration(os.Getenv("FEED_POLL_INTERVAL")); err == nil {
		config.Feed.PollInterval = interval
	}
	if attempts, err := strconv.Atoi(os.Getenv("FEED_MAX_ATTEMPTS")); err == nil {
		config.Feed.MaxAttempts = attempts
	}
	if maxSubs, err := strconv.Atoi(os.Getenv("HUB_MAX_SUBSCRIBERS")); err == nil {
		config.Hub.MaxSubscribers = maxSubs
	}
	if backend := os.Getenv("PUBSUB_BACKEND"); backend != "" {
		config.PubSub.Backend = backend
	}
	if channel := os.Getenv("PUBSUB_CHANNEL"); channel != "" {
		config.PubSub.Channel = channel
	}
	if redisAddr := os.Getenv("REDIS_ADDRESS"); redisAddr != "" {
		config.Redis.Address = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if redisDB, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		config.Redis.DB = redisDB
	}
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		config.Kafka.Brokers = strings.Split(kafkaBrokers, ",")
	}

	// Config file overrides
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/bookfeed")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if viper.IsSet("server.port") {
			config.Server.Port = viper.GetInt("server.port")
		}
		if viper.IsSet("log.level") {
			config.Log.Level = viper.GetString("log.level")
		}
		if viper.IsSet("feed.exchange") {
			config.Feed.Exchange = viper.GetString("feed.exchange")
		}
		if viper.IsSet("feed.base_url") {
			config.Feed.BaseURL = viper.GetString("feed.base_url")
		}
		if viper.IsSet("feed.symbol") {
			config.Feed.Symbol = viper.GetString("feed.symbol")
		}
		if viper.IsSet("feed.depth") {
			config.Feed.Depth = viper.GetInt("feed.depth")
		}
		if viper.IsSet("feed.top_k") {
			config.Feed.TopK = viper.GetInt("feed.top_k")
		}
		if viper.IsSet("feed.poll_interval") {
			config.Feed.PollInterval = viper.GetDuration("feed.poll_interval")
		}
		if viper.IsSet("feed.max_attempts") {
			config.Feed.MaxAttempts = viper.GetInt("feed.max_attempts")
		}
		if viper.IsSet("feed.retry_delay") {
			config.Feed.RetryDelay = viper.GetDuration("feed.retry_delay")
		}
		if viper.IsSet("hub.max_subscribers") {
			config.Hub.MaxSubscribers = viper.GetInt("hub.max_subscribers")
		}
		if viper.IsSet("pubsub.backend") {
			config.PubSub.Backend = viper.GetString("pubsub.backend")
		}
		if viper.IsSet("pubsub.channel") {
			config.PubSub.Channel = viper.GetString("pubsub.channel")
		}
		if viper.IsSet("redis.address") {
			config.Redis.Address = viper.GetString("redis.address")
		}
		if viper.IsSet("kafka.brokers") {
			config.Kafka.Brokers = viper.GetStringSlice("kafka.brokers")
		}
	}

	return config, nil
}
