package repository

import (
	"github.com/uploadkit/upload-gateway/infra"
)

type Repository struct {
	SessionRepo *UploadSessionRepository
	RouteRepo   *FileRouteRepository
	ObjectRepo  *StoredObjectRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		SessionRepo: NewUploadSessionRepository(infra.Postgres.DB),
		RouteRepo:   NewFileRouteRepository(infra.Postgres.DB),
		ObjectRepo:  NewStoredObjectRepository(infra.Postgres.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}
