package controller

import (
	"context"
	"errors"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uploadkit/upload-gateway/entity"
	"github.com/uploadkit/upload-gateway/http/controller/dto"
	"github.com/uploadkit/upload-gateway/infra/produce"
	"github.com/uploadkit/upload-gateway/session"
	"github.com/uploadkit/upload-gateway/utils"
)

func (ctrl *Controller) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to bind CreateSession request: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	sess, err := ctrl.Sessions.Create(ctx, req.RouteID, userID, ctrl.Routes)
	if err != nil {
		var cfgErr *session.ConfigurationError
		if errors.As(err, &cfgErr) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Session] Unknown route %q requested by user %s", req.RouteID, userID)
			utils.JSON404(c, "Unknown route: "+req.RouteID)
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to create session: %v", err)
		utils.JSON500(c, "Failed to create session")
		return
	}

	// Every transition from here on is mirrored to Postgres and, on terminal
	// states, published for the webhook consumers.
	sess.Subscribe(ctrl.mirrorSnapshot)
	ctrl.mirrorSnapshot(sess.Snapshot())

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Session] Created session %s on route %q for user %s", sess.ID(), req.RouteID, userID)
	utils.JSON201(c, dto.SessionResponseFromSnapshot(sess.Snapshot()))
}

func (ctrl *Controller) StageFiles(c *gin.Context) {
	ctx := c.Request.Context()

	sess, ok := ctrl.sessionFromRequest(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to parse multipart form")
		utils.JSON400(c, "Failed to parse multipart form: "+err.Error())
		return
	}

	headers := form.File["files"]
	refs := make([]session.FileRef, 0, len(headers))
	for _, h := range headers {
		contentType := h.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		refs = append(refs, session.FileRef{
			Name:        h.Filename,
			Size:        h.Size,
			ContentType: contentType,
		})
	}

	// Validate against the route constraints before any byte is moved.
	if err := sess.SelectFiles(refs); err != nil {
		var valErr *session.ValidationError
		if errors.As(err, &valErr) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Session] Selection rejected for session %s: %v", sess.ID(), err)
			utils.JSON422(c, err.Error())
			return
		}
		var stateErr *session.InvalidStateError
		if errors.As(err, &stateErr) {
			utils.JSON409(c, err.Error())
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to select files for session %s", sess.ID())
		utils.JSON500(c, "Failed to select files")
		return
	}

	stagingBucket := ctrl.Config.EnvConfig.Upload.StagingBucket
	if err := ctrl.Infra.Minio.EnsureBucket(ctx, stagingBucket); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to ensure staging bucket")
		utils.JSON500(c, "Failed to stage files")
		return
	}

	for _, h := range headers {
		file, err := h.Open()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to open staged file %q", h.Filename)
			utils.JSON500(c, "Failed to stage file: "+h.Filename)
			return
		}

		key := path.Join(sess.ID().String(), h.Filename)
		contentType := h.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		err = ctrl.Infra.Minio.PutObjectStream(ctx, stagingBucket, key, file, h.Size, contentType, map[string]string{
			"session_id": sess.ID().String(),
		})
		file.Close()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to stage file %q", h.Filename)
			utils.JSON500(c, "Failed to stage file: "+h.Filename)
			return
		}
		sess.StageFile(h.Filename, key)
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Session] Staged %d files for session %s", len(headers), sess.ID())
	utils.JSON200(c, dto.SessionResponseFromSnapshot(sess.Snapshot()))
}

func (ctrl *Controller) StartSession(c *gin.Context) {
	ctx := c.Request.Context()

	sess, ok := ctrl.sessionFromRequest(c)
	if !ok {
		return
	}

	// The transfer outlives this request; the request context would cancel it.
	if err := sess.StartUpload(context.Background()); err != nil {
		var stateErr *session.InvalidStateError
		if errors.As(err, &stateErr) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Session] StartUpload rejected for session %s: %v", sess.ID(), err)
			utils.JSON409(c, err.Error())
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to start upload for session %s", sess.ID())
		utils.JSON500(c, "Failed to start upload")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Session] Upload started for session %s", sess.ID())
	utils.JSON202(c, dto.SessionResponseFromSnapshot(sess.Snapshot()))
}

func (ctrl *Controller) GetSession(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid session id")
		return
	}

	if sess, ok := ctrl.Sessions.Get(id); ok {
		snap := sess.Snapshot()
		if snap.UserID != userID {
			utils.JSON403(c, "Forbidden: you don't own this session")
			return
		}
		utils.JSON200(c, dto.SessionResponseFromSnapshot(snap))
		return
	}

	// Not live on this instance; fall back to the mirror.
	row, err := ctrl.Repository.SessionRepo.FindByID(id)
	if err != nil {
		utils.JSON404(c, "Session not found")
		return
	}
	if row.UserID != userID {
		utils.JSON403(c, "Forbidden: you don't own this session")
		return
	}

	// Constraints come from the route config; a missing route only costs the
	// constraint fields, not the whole response.
	route, err := ctrl.Routes.RouteConfig(ctx, row.RouteID)
	if err != nil {
		route = nil
	}

	resp, err := dto.SessionResponseFromMirror(row, route)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to decode mirror for %s", id)
		utils.JSON500(c, "Failed to load session")
		return
	}
	utils.JSON200(c, resp)
}

// ListSessions returns the caller's session mirrors, newest first. Served from
// the persistence mirror so sessions created on other instances appear too.
func (ctrl *Controller) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	rows, err := ctrl.Repository.SessionRepo.FindByUserID(userID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to list sessions for user %s", userID)
		utils.JSON500(c, "Failed to list sessions")
		return
	}

	sessions := make([]dto.SessionResponse, 0, len(rows))
	for i := range rows {
		route, err := ctrl.Routes.RouteConfig(ctx, rows[i].RouteID)
		if err != nil {
			route = nil
		}
		resp, err := dto.SessionResponseFromMirror(&rows[i], route)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Skipping malformed mirror %s", rows[i].ID)
			continue
		}
		sessions = append(sessions, resp)
	}
	utils.JSON200(c, sessions)
}

func (ctrl *Controller) ResetSession(c *gin.Context) {
	ctx := c.Request.Context()

	sess, ok := ctrl.sessionFromRequest(c)
	if !ok {
		return
	}

	if err := sess.Reset(); err != nil {
		var stateErr *session.InvalidStateError
		if errors.As(err, &stateErr) {
			utils.JSON409(c, err.Error())
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to reset session %s", sess.ID())
		utils.JSON500(c, "Failed to reset session")
		return
	}

	// Staged objects belong to the cleared selection.
	_ = ctrl.Infra.Minio.RemovePrefix(ctx, ctrl.Config.EnvConfig.Upload.StagingBucket, sess.ID().String()+"/")

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Session] Session %s reset", sess.ID())
	utils.JSON200(c, dto.SessionResponseFromSnapshot(sess.Snapshot()))
}

func (ctrl *Controller) DisposeSession(c *gin.Context) {
	ctx := c.Request.Context()

	sess, ok := ctrl.sessionFromRequest(c)
	if !ok {
		return
	}

	id := sess.ID()
	ctrl.Sessions.Dispose(id)
	_ = ctrl.Infra.Minio.RemovePrefix(ctx, ctrl.Config.EnvConfig.Upload.StagingBucket, id.String()+"/")
	if err := ctrl.Repository.SessionRepo.Delete(id); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to delete mirror for session %s", id)
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Session] Session %s disposed", id)
	utils.JSON200(c, gin.H{"message": "session disposed"})
}

// sessionFromRequest resolves the live session from the :id parameter and
// checks ownership, writing the error response itself when it fails.
func (ctrl *Controller) sessionFromRequest(c *gin.Context) (*session.Session, bool) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid session id")
		return nil, false
	}

	sess, ok := ctrl.Sessions.Get(id)
	if !ok {
		utils.JSON404(c, "Session not found")
		return nil, false
	}

	if sess.Snapshot().UserID != userID {
		utils.JSON403(c, "Forbidden: you don't own this session")
		return nil, false
	}
	return sess, true
}

// mirrorSnapshot persists the snapshot and publishes terminal transitions.
// Runs on the session's notification path, so it must not block on the
// request lifecycle.
func (ctrl *Controller) mirrorSnapshot(snap session.Snapshot) {
	ctx := context.Background()

	row, err := entity.SessionFromSnapshot(snap, ctrl.Config.EnvConfig.Upload.SessionTTL)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to build mirror for session %s", snap.ID)
		return
	}
	if err := ctrl.Repository.SessionRepo.Upsert(row); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to mirror session %s", snap.ID)
	}

	switch snap.Status {
	case session.StatusComplete:
		msg := produce.SessionEventMessage{
			SessionID:  snap.ID.String(),
			RouteID:    snap.RouteID,
			UserID:     snap.UserID.String(),
			Status:     string(snap.Status),
			Results:    snap.Results,
			WebhookURL: snap.Route.WebhookURL,
		}
		if err := ctrl.Infra.Produce.SessionEvents.PublishSessionCompleted(ctx, msg); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to publish completion for session %s", snap.ID)
		}
	case session.StatusErrored:
		msg := produce.SessionEventMessage{
			SessionID:  snap.ID.String(),
			RouteID:    snap.RouteID,
			UserID:     snap.UserID.String(),
			Status:     string(snap.Status),
			Error:      snap.Error,
			WebhookURL: snap.Route.WebhookURL,
		}
		if err := ctrl.Infra.Produce.SessionEvents.PublishSessionErrored(ctx, msg); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Session] Failed to publish error for session %s", snap.ID)
		}
	}
}
