package controller

import (
	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/repository"
	"github.com/uploadkit/upload-gateway/session"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Sessions   *session.Manager
	Routes     *repository.RouteConfigSource
}

func NewController(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	return &Controller{
		Config:     cfg,
		Infra:      infra,
		Repository: repo,
		Sessions:   session.NewManager(infra.Transport),
		Routes:     repository.NewRouteConfigSource(repo.RouteRepo, infra.Redis, cfg.EnvConfig.Upload.RouteCacheTTL),
	}
}
