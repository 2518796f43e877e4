package infra

import (
	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/infra/produce"
	"github.com/uploadkit/upload-gateway/session"
)

type Infra struct {
	Redis     *RedisClient
	Postgres  *PostgresClient
	Logger    *LoggerClient
	RabbitMQ  *RabbitMQClient
	Minio     *MinioClient
	Relay     *RelayClient
	Produce   *produce.Produce
	Transport session.Transport
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	minio := InitMinioClient(cfg.EnvConfig)
	if minio == nil {
		panic("Failed to initialize MinIO service")
	}

	produceService := produce.InitProduce(rabbitMQ.Channel)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	// Relay is optional; routes flagged for relay fail upload when absent.
	relay := InitRelayClient(cfg.EnvConfig)

	storage := &StorageTransport{
		Minio:         minio,
		StagingBucket: cfg.EnvConfig.Upload.StagingBucket,
		PublicBaseURL: cfg.EnvConfig.Upload.PublicBaseURL,
	}

	transport := session.Transport(storage)
	if relay != nil {
		transport = &routingTransport{
			storage: storage,
			relay: &RelayTransport{
				Relay:         relay,
				Minio:         minio,
				StagingBucket: cfg.EnvConfig.Upload.StagingBucket,
			},
		}
	}

	infraInstance = &Infra{
		Redis:     redis,
		Postgres:  postgres,
		Logger:    logger,
		RabbitMQ:  rabbitMQ,
		Minio:     minio,
		Relay:     relay,
		Produce:   produceService,
		Transport: transport,
	}

	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
