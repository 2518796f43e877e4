package session

import "context"

// FileRef identifies one staged file within a session. Key is the staging
// object key once bytes have been received; metadata-only selections leave it
// empty until staging happens.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Key         string `json:"key,omitempty"`
}

// FileResult is the per-file outcome of a completed upload attempt, ordered
// parallel to the selected files.
type FileResult struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	Bucket      string `json:"bucket,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// RouteConfig holds the constraints and targets for a named upload route.
type RouteConfig struct {
	RouteID       string   `json:"route_id"`
	MaxFileSize   int64    `json:"max_file_size"`
	MaxFileCount  int      `json:"max_file_count"`
	AcceptedTypes []string `json:"accepted_types"`
	Bucket        string   `json:"bucket,omitempty"`
	WebhookURL    string   `json:"webhook_url,omitempty"`
	Relay         bool     `json:"relay,omitempty"`
}

// Accepts reports whether contentType is allowed by the route. Accepted types
// may be full MIME types ("image/png"), MIME families ("image") or the
// wildcards "blob" / "*" which allow anything. An empty set allows anything.
func (rc RouteConfig) Accepts(contentType string) bool {
	if len(rc.AcceptedTypes) == 0 {
		return true
	}
	family := contentType
	for i := 0; i < len(contentType); i++ {
		if contentType[i] == '/' {
			family = contentType[:i]
			break
		}
	}
	for _, t := range rc.AcceptedTypes {
		if t == "*" || t == "blob" || t == contentType || t == family {
			return true
		}
	}
	return false
}

// ProgressFunc receives upload progress as a percentage in [0, 100]. Transports
// may call it zero or more times before returning.
type ProgressFunc func(percent float64)

// Transport moves the selected files to durable storage for one upload
// attempt. Upload blocks until the attempt finishes and returns results
// ordered parallel to files. The session invokes it on its own goroutine.
type Transport interface {
	Upload(ctx context.Context, route RouteConfig, files []FileRef, metadata map[string]string, progress ProgressFunc) ([]FileResult, error)
}

// ConfigSource resolves a route identifier to its configuration. Queried once
// during Initialize.
type ConfigSource interface {
	RouteConfig(ctx context.Context, routeID string) (*RouteConfig, error)
}
