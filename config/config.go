package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabasePlaceholder is the stand-in endpoint shipped in example env
// files; credentials pointing at it do not count as a real remote
// backend.
const DatabasePlaceholder = "postgres://placeholder"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	URL       string
	AccessKey string
	LocalPath string
}

// UseRemote reports whether real remote credentials are configured. The
// check runs once at boot; its outcome holds for the process lifetime.
func (d DatabaseConfig) UseRemote() bool {
	return d.URL != "" && d.AccessKey != "" && d.URL != DatabasePlaceholder
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicOrder    string
	ConsumerGroup string
}

// Enabled reports whether an event stream is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Brokers[0] != ""
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type AdminConfig struct {
	Passphrase string
	SessionTTL time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sessionTTL, _ := strconv.Atoi(getEnv("ADMIN_SESSION_TTL_MINUTES", "720"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:       getEnv("DATABASE_URL", DatabasePlaceholder),
			AccessKey: getEnv("DATABASE_ACCESS_KEY", ""),
			LocalPath: getEnv("LOCAL_DB_PATH", "pos.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", ""), ","),
			TopicOrder:    getEnv("KAFKA_TOPIC_ORDER_EVENTS", "pos-order-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "pos-service-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
		Admin: AdminConfig{
			Passphrase: getEnv("ADMIN_PASSPHRASE", "newlife"),
			SessionTTL: time.Duration(sessionTTL) * time.Minute,
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, remote=%v", cfg.Server.Env, cfg.Server.Port, cfg.Database.UseRemote())
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
