package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/uploadkit/upload-gateway/entity"
	"github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/session"
)

const routeCachePrefix = "route_config:"

// RouteConfigSource resolves route identifiers for the session core, reading
// through a Redis cache to the file_routes table. It implements
// session.ConfigSource.
type RouteConfigSource struct {
	routes *FileRouteRepository
	cache  *infra.RedisClient
	ttl    time.Duration
}

func NewRouteConfigSource(routes *FileRouteRepository, cache *infra.RedisClient, ttl time.Duration) *RouteConfigSource {
	return &RouteConfigSource{routes: routes, cache: cache, ttl: ttl}
}

func (s *RouteConfigSource) RouteConfig(ctx context.Context, routeID string) (*session.RouteConfig, error) {
	key := routeCachePrefix + routeID

	if s.cache != nil {
		var cfg session.RouteConfig
		if err := s.cache.Get(ctx, key, &cfg); err == nil {
			return &cfg, nil
		}
	}

	row, err := s.routes.FindByRouteID(routeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("route %q not found", routeID)
		}
		return nil, err
	}

	cfg, err := row.Config()
	if err != nil {
		return nil, fmt.Errorf("route %q has a malformed configuration: %w", routeID, err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, cfg, s.ttl)
	}
	return cfg, nil
}

// Invalidate drops the cached configuration for routeID.
func (s *RouteConfigSource) Invalidate(ctx context.Context, routeID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, routeCachePrefix+routeID)
	}
}

// Seed upserts the given route configurations and drops their cache entries.
func (s *RouteConfigSource) Seed(ctx context.Context, configs []session.RouteConfig) error {
	for _, cfg := range configs {
		row, err := entity.NewFileRoute(cfg)
		if err != nil {
			return err
		}
		if err := s.routes.Upsert(row); err != nil {
			return fmt.Errorf("failed to seed route %q: %w", cfg.RouteID, err)
		}
		s.Invalidate(ctx, cfg.RouteID)
	}
	return nil
}
