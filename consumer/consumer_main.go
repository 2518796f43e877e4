package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/consumer/worker"
	infraPkg "github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/repository"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Session Consumer
	sessionConsumer := worker.NewSessionConsumer(infra.RabbitMQ.Channel, infra, repo, cfg)
	if err := sessionConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Session consumer: %v", err)
		log.Fatalf("Failed to start Session consumer: %v", err)
	}

	// Start Expiry Sweeper
	sweeper := worker.NewExpirySweeper(infra, repo, cfg)
	sweeper.Start(ctx)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel() // Cancel context to stop consumers

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
