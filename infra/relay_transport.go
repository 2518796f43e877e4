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

// RelayTransport streams a session's staged files to the external relay
// service instead of durable storage. Progress is reported per completed file
// since the relay gives no byte-level feedback.
type RelayTransport struct {
	Relay         *RelayClient
	Minio         *MinioClient
	StagingBucket string
}

func (t *RelayTransport) Upload(ctx context.Context, route session.RouteConfig, files []session.FileRef, metadata map[string]string, progress session.ProgressFunc) ([]session.FileResult, error) {
	ctx, span := otel.Tracer("upload-gateway").Start(ctx, "relay.upload",
		trace.WithAttributes(
			attribute.String("route_id", route.RouteID),
			attribute.String("session_id", metadata["session_id"]),
			attribute.Int("file_count", len(files)),
		))
	defer span.End()

	sessionID := metadata["session_id"]
	results := make([]session.FileResult, 0, len(files))

	for i, f := range files {
		if f.Key == "" {
			err := fmt.Errorf("file %q has no staged bytes", f.Name)
			span.RecordError(err)
			return nil, err
		}

		src, _, err := t.Minio.GetObjectStream(ctx, t.StagingBucket, f.Key)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		dstKey := path.Join(route.RouteID, sessionID, f.Name)
		resp, err := t.Relay.UploadStream(src, f.Name, f.ContentType, route.RouteID, dstKey)
		src.Close()
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		contentType := resp.ContentType
		if contentType == "" {
			contentType = f.ContentType
		}
		results = append(results, session.FileResult{
			Name:        f.Name,
			Key:         resp.Key,
			Bucket:      resp.Bucket,
			Size:        f.Size,
			ContentType: contentType,
			URL:         resp.URL,
		})

		progress(float64(i+1) * 100 / float64(len(files)))
	}

	_ = t.Minio.RemovePrefix(ctx, t.StagingBucket, sessionID+"/")

	return results, nil
}
