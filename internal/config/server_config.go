package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Server  ServerConfig
	DB      PostgresConfig
	Kafka   KafkaConfig
	Shopify ShopifyConfig
	Sync    SyncConfig
}

type AppConfig struct {
	Name string
	Env  string
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type KafkaConfig struct {
	Brokers         []string
	OrderEventTopic string
	TrackingTopic   string
	ConsumerGroup   string
}

type ShopifyConfig struct {
	StoreName  string
	APIVersion string
	// Client Credentials grant (khuyến nghị); nếu trống thì dùng AccessToken tĩnh.
	ClientID     string
	ClientSecret string
	AccessToken  string
	TimeoutSec   int
}

type SyncConfig struct {
	Limit          int
	Status         string
	LockTimeoutMS  int
	SplitPolicy    string // "single" | "region"
	RegionMap      map[string]string
	RegionFallback string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "zenheart-erp"),
			Env:  getEnv("APP_ENV", "local"),
		},
		Server: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 8030),
		},
		DB: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Kafka: KafkaConfig{
			Brokers:         splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")),
			OrderEventTopic: getEnv("KAFKA_ORDER_EVENT_TOPIC", "shopify_synced_orders"),
			TrackingTopic:   getEnv("KAFKA_TRACKING_TOPIC", "order_tracking_events"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "zenheart-erp"),
		},
		Shopify: ShopifyConfig{
			StoreName:    getEnv("SHOPIFY_STORE_NAME", ""),
			APIVersion:   getEnv("SHOPIFY_API_VERSION", "2026-01"),
			ClientID:     getEnv("SHOPIFY_CLIENT_ID", ""),
			ClientSecret: getEnv("SHOPIFY_CLIENT_SECRET", ""),
			AccessToken:  getEnv("SHOPIFY_ACCESS_TOKEN", ""),
			TimeoutSec:   getEnvAsInt("SHOPIFY_TIMEOUT_SEC", 30),
		},
		Sync: SyncConfig{
			Limit:          getEnvAsInt("SYNC_LIMIT", 50),
			Status:         getEnv("SYNC_STATUS", "any"),
			LockTimeoutMS:  getEnvAsInt("SYNC_LOCK_TIMEOUT_MS", 3000),
			SplitPolicy:    getEnv("SPLIT_POLICY", "single"),
			RegionMap:      parseKeyValues(getEnv("SPLIT_REGION_MAP", "")),
			RegionFallback: getEnv("SPLIT_REGION_FALLBACK", "other"),
		},
	}

	return cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// ShopID is the shop identifier stored with every order row.
func (s ShopifyConfig) ShopID() string {
	return fmt.Sprintf("%s.myshopify.com", s.StoreName)
}

func (s ShopifyConfig) GraphQLURL() string {
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", s.StoreName, s.APIVersion)
}

func (s ShopifyConfig) OAuthTokenURL() string {
	return fmt.Sprintf("https://%s.myshopify.com/admin/oauth/access_token", s.StoreName)
}

func (s ShopifyConfig) UseClientCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

/* ================= helpers ================= */

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("HTTP_PORT is invalid")
	}
	if c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "" {
		return fmt.Errorf("database config is incomplete")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers is empty")
	}
	switch c.Sync.SplitPolicy {
	case "single", "region":
	default:
		return fmt.Errorf("SPLIT_POLICY must be single or region, got %q", c.Sync.SplitPolicy)
	}
	if c.Sync.SplitPolicy == "region" && len(c.Sync.RegionMap) == 0 {
		return fmt.Errorf("SPLIT_REGION_MAP is required when SPLIT_POLICY=region")
	}
	// Shopify auth được validate lúc tạo client, ở đây cho phép trống (tests).
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if val := strings.TrimSpace(p); val != "" {
			out = append(out, val)
		}
	}
	return out
}

// parseKeyValues parses "key:value,key:value" pairs, e.g. the variant-title
// to region mapping for the region split policy.
func parseKeyValues(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitAndTrim(raw) {
		k, v, ok := strings.Cut(pair, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if ok && k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
