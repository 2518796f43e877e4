package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
		Algorithm string
		Expire    int
	}
	CORS struct {
		AllowDomains string
		GlobalDomain string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Minio struct {
		Endpoint     string
		RootUser     string
		RootPassword string
	}
	Upload struct {
		StagingBucket  string        // bucket staged files land in before StartUpload
		PublicBaseURL  string        // base of the URLs returned in file results
		SessionTTL     time.Duration // staged sessions past this are swept
		RouteCacheTTL  time.Duration // Redis TTL for route configs
		DefaultMaxSize int64         // fallback max file size for seeded routes
	}
	ExternalService struct {
		RelayServiceURL string // external processor for relay routes
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	PrivateKey string // webhook signing secret

	Environment struct {
		Mode  string
		Group string
	}
	DomainName string
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = os.Getenv("PGPOOL_PORT")

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	config.JWT.Algorithm = os.Getenv("JWT_ALGORITHM")
	if val := os.Getenv("JWT_EXPIRE"); val != "" {
		config.JWT.Expire, _ = strconv.Atoi(val)
	} else {
		config.JWT.Expire = 3600 * 24 * 7
	}

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")
	config.CORS.GlobalDomain = os.Getenv("GLOBAL_DOMAIN")

	// Redis
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = os.Getenv("REDIS_HOST")
	config.Redis.Port = os.Getenv("REDIS_PORT")

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	config.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
	config.Minio.RootUser = os.Getenv("MINIO_ROOT_USER")
	config.Minio.RootPassword = os.Getenv("MINIO_ROOT_PASSWORD")

	// Upload gateway
	config.Upload.StagingBucket = os.Getenv("UPLOAD_STAGING_BUCKET")
	if config.Upload.StagingBucket == "" {
		config.Upload.StagingBucket = "staging-uploads"
	}
	config.Upload.PublicBaseURL = os.Getenv("UPLOAD_PUBLIC_BASE_URL")
	if config.Upload.PublicBaseURL == "" {
		config.Upload.PublicBaseURL = "http://localhost:9000"
	}
	config.Upload.SessionTTL = parseDuration(os.Getenv("UPLOAD_SESSION_TTL"), 24*time.Hour)
	config.Upload.RouteCacheTTL = parseDuration(os.Getenv("UPLOAD_ROUTE_CACHE_TTL"), 5*time.Minute)
	if val := os.Getenv("UPLOAD_DEFAULT_MAX_SIZE"); val != "" {
		config.Upload.DefaultMaxSize, _ = strconv.ParseInt(val, 10, 64)
	}
	if config.Upload.DefaultMaxSize == 0 {
		config.Upload.DefaultMaxSize = 4194304 // 4MB
	}

	config.PrivateKey = os.Getenv("PRIVATE_KEY")

	config.ExternalService.RelayServiceURL = os.Getenv("RELAY_SERVICE_URL")

	// Grafana/OpenTelemetry
	otlpEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	// Strip the protocol so the OTLP client does not end up with a duplicate
	if strings.HasPrefix(otlpEndpoint, "https://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(otlpEndpoint, "https://")
	} else if strings.HasPrefix(otlpEndpoint, "http://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(otlpEndpoint, "http://")
	} else {
		config.Grafana.OTLPEndpoint = otlpEndpoint
	}
	config.Grafana.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "upload-gateway"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}
	config.Environment.Group = os.Getenv("GROUP_NAME")
	if config.Environment.Group == "" {
		config.Environment.Group = "local"
	}

	config.DomainName = os.Getenv("DOMAIN_NAME")
	if config.DomainName == "" {
		config.DomainName = "localhost:8080"
	}

	return &config
}

func parseDuration(val string, fallback time.Duration) time.Duration {
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
