package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DBShard is one MySQL database holding a slice of the orders.
type DBShard struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

func (s DBShard) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", s.User, s.Pass, s.Host, s.Port, s.Name)
}

type Config struct {
	HTTPAddr      string
	PublicBaseURL string

	DBShards     []DBShard
	RedisAddr    string
	KafkaBrokers []string
	MongoURI     string
	MongoDB      string
	NatsURL      string
	ImageBucket  string

	JWTSecret string
	JWTTTL    time.Duration
	// AdminEmails get the admin role when they sign up.
	AdminEmails []string

	RazorpayKeyID     string
	RazorpayKeySecret string

	CartTTL     time.Duration
	CartMaxIdle time.Duration

	RateLimit float64
	RateBurst int
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPAddr:          get("HTTP_ADDR", ":8082"),
		PublicBaseURL:     strings.TrimRight(get("PUBLIC_BASE_URL", "http://localhost:8082"), "/"),
		RedisAddr:         get("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:      strings.Split(get("KAFKA_BROKERS", "localhost:9092,localhost:9093,localhost:9094"), ","),
		MongoURI:          get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           get("MONGO_DB", "storefront"),
		NatsURL:           get("NATS_URL", "nats://localhost:4222"),
		ImageBucket:       get("IMAGE_BUCKET", "product-images"),
		JWTSecret:         getenv("JWT_SECRET"),
		RazorpayKeyID:     getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: getenv("RAZORPAY_KEY_SECRET"),
	}

	for _, email := range strings.Split(getenv("ADMIN_EMAILS"), ",") {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, email)
		}
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(get("JWT_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	if cfg.CartTTL, err = time.ParseDuration(get("CART_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("CART_TTL: %w", err)
	}
	if cfg.CartMaxIdle, err = time.ParseDuration(get("CART_MAX_IDLE", "30m")); err != nil {
		return nil, fmt.Errorf("CART_MAX_IDLE: %w", err)
	}
	if cfg.RateLimit, err = strconv.ParseFloat(get("RATE_LIMIT", "10"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(get("RATE_BURST", "30")); err != nil {
		return nil, fmt.Errorf("RATE_BURST: %w", err)
	}

	shards, err := strconv.Atoi(get("DB_SHARDS", "1"))
	if err != nil || shards < 1 {
		return nil, fmt.Errorf("DB_SHARDS must be a positive integer")
	}
	for i := 1; i <= shards; i++ {
		prefix := fmt.Sprintf("DB%d_", i)
		cfg.DBShards = append(cfg.DBShards, DBShard{
			Host: get(prefix+"HOST", "127.0.0.1"),
			Port: get(prefix+"PORT", "3306"),
			User: get(prefix+"USER", "root"),
			Pass: getenv(prefix + "PASS"),
			Name: get(prefix+"NAME", fmt.Sprintf("storefront_%d", i)),
		})
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
