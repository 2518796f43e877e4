package dto

import (
	"encoding/json"

	"github.com/uploadkit/upload-gateway/entity"
	"github.com/uploadkit/upload-gateway/session"
)

// CreateSessionRequest opens an upload session against a named route
type CreateSessionRequest struct {
	RouteID string `json:"route_id" binding:"required"`
}

// RouteConstraints is the route configuration exposed to widgets
type RouteConstraints struct {
	MaxFileSize   int64    `json:"max_file_size"`
	MaxFileCount  int      `json:"max_file_count"`
	AcceptedTypes []string `json:"accepted_types"`
}

// SessionResponse is the wire form of a session snapshot plus the derived
// presentation state widgets style themselves with.
type SessionResponse struct {
	ID          string               `json:"id"`
	RouteID     string               `json:"route_id"`
	Status      string               `json:"status"`
	Progress    float64              `json:"progress"`
	Files       []session.FileRef    `json:"files,omitempty"`
	Results     []session.FileResult `json:"results,omitempty"`
	Error       string               `json:"error,omitempty"`
	Ready       bool                 `json:"ready"`
	IsUploading bool                 `json:"is_uploading"`
	FileTypes   []string             `json:"file_types"`
	Variant     string               `json:"variant"`
	Constraints RouteConstraints     `json:"constraints"`
}

// SessionResponseFromSnapshot converts a core snapshot into its wire form.
func SessionResponseFromSnapshot(snap session.Snapshot) SessionResponse {
	p := snap.Presentation()
	return SessionResponse{
		ID:          snap.ID.String(),
		RouteID:     snap.RouteID,
		Status:      string(snap.Status),
		Progress:    snap.Progress,
		Files:       snap.Files,
		Results:     snap.Results,
		Error:       snap.Error,
		Ready:       p.Ready,
		IsUploading: p.IsUploading,
		FileTypes:   p.FileTypes,
		Variant:     snap.Variant(),
		Constraints: RouteConstraints{
			MaxFileSize:   snap.Route.MaxFileSize,
			MaxFileCount:  snap.Route.MaxFileCount,
			AcceptedTypes: snap.Route.AcceptedTypes,
		},
	}
}

// SessionResponseFromMirror converts a persisted session mirror into the same
// wire form a live snapshot produces, so widgets see one shape regardless of
// which gateway instance answers. The route configuration is optional; without
// it the constraints stay zero.
func SessionResponseFromMirror(row *entity.UploadSession, route *session.RouteConfig) (SessionResponse, error) {
	var files []session.FileRef
	if len(row.Files) > 0 {
		if err := json.Unmarshal(row.Files, &files); err != nil {
			return SessionResponse{}, err
		}
	}
	results, err := row.FileResults()
	if err != nil {
		return SessionResponse{}, err
	}

	resp := SessionResponse{
		ID:       row.ID.String(),
		RouteID:  row.RouteID,
		Status:   string(row.Status),
		Progress: row.Progress,
		Files:    files,
		Results:  results,
		Error:    row.LastError,
		Ready: row.Status == entity.SessionStatusReady ||
			row.Status == entity.SessionStatusComplete ||
			row.Status == entity.SessionStatusErrored,
		IsUploading: row.Status == entity.SessionStatusUploading,
		Variant:     mirrorVariant(row.Status),
	}
	if route != nil {
		resp.FileTypes = route.AcceptedTypes
		resp.Constraints = RouteConstraints{
			MaxFileSize:   route.MaxFileSize,
			MaxFileCount:  route.MaxFileCount,
			AcceptedTypes: route.AcceptedTypes,
		}
	}
	return resp, nil
}

func mirrorVariant(status entity.SessionStatus) string {
	switch status {
	case entity.SessionStatusReadying:
		return "readying"
	case entity.SessionStatusUploading:
		return "uploading"
	default:
		return "ready"
	}
}

// RouteResponse is the wire form of a file route
type RouteResponse struct {
	RouteID       string   `json:"route_id"`
	MaxFileSize   int64    `json:"max_file_size"`
	MaxFileCount  int      `json:"max_file_count"`
	AcceptedTypes []string `json:"accepted_types"`
	Relay         bool     `json:"relay"`
}
