package infra

import (
	"context"
	"fmt"

	"github.com/uploadkit/upload-gateway/session"
)

// routingTransport picks the storage or relay transport per route.
type routingTransport struct {
	storage session.Transport
	relay   session.Transport
}

func (t *routingTransport) Upload(ctx context.Context, route session.RouteConfig, files []session.FileRef, metadata map[string]string, progress session.ProgressFunc) ([]session.FileResult, error) {
	if route.Relay {
		if t.relay == nil {
			return nil, fmt.Errorf("route %q requires a relay service but none is configured", route.RouteID)
		}
		return t.relay.Upload(ctx, route, files, metadata, progress)
	}
	return t.storage.Upload(ctx, route, files, metadata, progress)
}
