package infra

import (
	"context"
	"fmt"
	"path"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/uploadkit/upload-gateway/session"
)

// StorageTransport moves a session's staged files from the staging bucket to
// the route's durable bucket, reporting byte-level progress across the whole
// set. It implements session.Transport.
type StorageTransport struct {
	Minio         *MinioClient
	StagingBucket string
	PublicBaseURL string
}

func (t *StorageTransport) Upload(ctx context.Context, route session.RouteConfig, files []session.FileRef, metadata map[string]string, progress session.ProgressFunc) ([]session.FileResult, error) {
	ctx, span := otel.Tracer("upload-gateway").Start(ctx, "storage.upload",
		trace.WithAttributes(
			attribute.String("route_id", route.RouteID),
			attribute.String("session_id", metadata["session_id"]),
			attribute.Int("file_count", len(files)),
		))
	defer span.End()

	if err := t.Minio.EnsureBucket(ctx, route.Bucket); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}

	sessionID := metadata["session_id"]
	results := make([]session.FileResult, 0, len(files))
	var moved int64

	for _, f := range files {
		if f.Key == "" {
			err := fmt.Errorf("file %q has no staged bytes", f.Name)
			span.RecordError(err)
			return nil, err
		}

		dstKey := path.Join(route.RouteID, sessionID, f.Name)
		n, err := t.Minio.TransferObject(ctx, t.StagingBucket, f.Key, route.Bucket, dstKey, f.ContentType, func(bytes int64) {
			if total > 0 {
				progress(float64(moved+bytes) * 100 / float64(total))
			}
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		moved += n

		results = append(results, session.FileResult{
			Name:        f.Name,
			Key:         dstKey,
			Bucket:      route.Bucket,
			Size:        f.Size,
			ContentType: f.ContentType,
			URL:         fmt.Sprintf("%s/%s/%s", t.PublicBaseURL, route.Bucket, dstKey),
		})
	}

	progress(100)

	// Staged copies are no longer needed; cleanup failure is not an upload
	// failure.
	_ = t.Minio.RemovePrefix(ctx, t.StagingBucket, sessionID+"/")

	return results, nil
}
