package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/http/controller"
	routes "github.com/uploadkit/upload-gateway/http/route"
	"github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/repository"
	"github.com/uploadkit/upload-gateway/session"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infra.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	ctrl := controller.NewController(cfg, infra, repo)

	if err := seedDefaultRoutes(ctrl, cfg); err != nil {
		log.Fatalf("Failed to seed default routes: %v", err)
	}

	router := routes.SetupRouter(ctrl)
	router.Run(":8080")
}

// seedDefaultRoutes makes sure a fresh deployment has at least one usable
// route. Operators add real routes through the file_routes table.
func seedDefaultRoutes(ctrl *controller.Controller, cfg *config.Config) error {
	return ctrl.Routes.Seed(context.Background(), []session.RouteConfig{
		{
			RouteID:       "imageUploader",
			MaxFileSize:   cfg.EnvConfig.Upload.DefaultMaxSize,
			MaxFileCount:  1,
			AcceptedTypes: []string{"image"},
			Bucket:        "uploads",
		},
	})
}
