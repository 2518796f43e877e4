package worker

import (
	"context"
	"time"

	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/entity"
	"github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/repository"
)

const (
	sweepInterval = 5 * time.Minute

	// purgeGrace keeps expired mirrors queryable for a while before rows
	// are removed for good.
	purgeGrace = 24 * time.Hour
)

// ExpirySweeper marks sessions past their TTL as expired, removes their
// staged objects, and eventually purges the mirror rows.
type ExpirySweeper struct {
	infra      *infra.Infra
	repository *repository.Repository
	config     *config.Config
}

func NewExpirySweeper(infra *infra.Infra, repo *repository.Repository, cfg *config.Config) *ExpirySweeper {
	return &ExpirySweeper{
		infra:      infra,
		repository: repo,
		config:     cfg,
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		s.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				s.infra.Logger.InfoWithContextf(ctx, "[Expiry Sweeper] Shutting down...")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	rows, err := s.repository.SessionRepo.FindExpired()
	if err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Expiry Sweeper] Failed to list expired sessions")
		return
	}

	stagingBucket := s.config.EnvConfig.Upload.StagingBucket
	for _, row := range rows {
		if err := s.infra.Minio.RemovePrefix(ctx, stagingBucket, row.ID.String()+"/"); err != nil {
			s.infra.Logger.WarningWithContextf(ctx, "[Expiry Sweeper] Failed to remove staged objects for session %s: %v", row.ID, err)
			continue
		}
		if err := s.repository.SessionRepo.UpdateStatus(row.ID, entity.SessionStatusExpired); err != nil {
			s.infra.Logger.ErrorWithContextf(ctx, err, "[Expiry Sweeper] Failed to mark session %s expired", row.ID)
			continue
		}
		s.infra.Logger.InfoWithContextf(ctx, "[Expiry Sweeper] Expired session %s (route %s)", row.ID, row.RouteID)
	}

	purged, err := s.repository.SessionRepo.PurgeExpired(time.Now().Add(-purgeGrace))
	if err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Expiry Sweeper] Failed to purge expired mirrors")
		return
	}
	if purged > 0 {
		s.infra.Logger.InfoWithContextf(ctx, "[Expiry Sweeper] Purged %d expired session mirrors", purged)
	}
}
