package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Inference InferenceConfig
	Wake      WakeConfig
	LLM       LLMConfig
	Semantic  SemanticConfig
	Milvus    MilvusConfig
	Guardrail GuardrailConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Session   SessionConfig
	Tenants   TenantsConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type InferenceConfig struct {
	HealthURL      string
	HealthTimeout  time.Duration
	CacheTTL       time.Duration
	RequestTimeout time.Duration
}

type WakeConfig struct {
	Strategy     string
	MaxAttempts  int
	PollInterval time.Duration
	JobURL       string
	JobTimeout   time.Duration
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	EmbeddingDim   int
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
}

type SemanticConfig struct {
	Backend    string
	ChunkSize  int
	ChunkSlack int
	TopK       int
}

type MilvusConfig struct {
	Endpoint       string
	CollectionName string
}

type GuardrailConfig struct {
	GroundingThreshold float64
}

type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	BurstWindow time.Duration
	BurstMax    int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

type SQLiteConfig struct {
	Path string
}

type SessionConfig struct {
	MaxSessions int
	IdleTimeout time.Duration
}

type TenantsConfig struct {
	Path string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/smartflow")

	viper.SetEnvPrefix("SMARTFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("inference.healthURL", "http://localhost:8998/health")
	viper.SetDefault("inference.healthTimeout", "5s")
	viper.SetDefault("inference.cacheTTL", "10s")
	viper.SetDefault("inference.requestTimeout", "30s")

	viper.SetDefault("wake.strategy", "poll")
	viper.SetDefault("wake.maxAttempts", 12)
	viper.SetDefault("wake.pollInterval", "10s")
	viper.SetDefault("wake.jobTimeout", "15s")

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.embeddingDim", 1536)
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 512)
	viper.SetDefault("llm.timeoutSec", 30)

	viper.SetDefault("semantic.backend", "memory")
	viper.SetDefault("semantic.chunkSize", 800)
	viper.SetDefault("semantic.chunkSlack", 200)
	viper.SetDefault("semantic.topK", 5)

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "tenant_knowledge")

	viper.SetDefault("guardrail.groundingThreshold", 0.75)

	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("ratelimit.maxRequests", 60)
	viper.SetDefault("ratelimit.burstWindow", "1s")
	viper.SetDefault("ratelimit.burstMax", 5)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.cacheTTL", "24h")

	viper.SetDefault("sqlite.path", "./data/voicecore.db")

	viper.SetDefault("session.maxSessions", 32)
	viper.SetDefault("session.idleTimeout", "5m")

	viper.SetDefault("tenants.path", "./config/tenants.yaml")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
