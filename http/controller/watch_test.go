package controller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/upload-gateway/config"
	"github.com/uploadkit/upload-gateway/infra"
	"github.com/uploadkit/upload-gateway/session"
)

type staticSource struct{}

func (staticSource) RouteConfig(_ context.Context, routeID string) (*session.RouteConfig, error) {
	if routeID != "imageUploader" {
		return nil, fmt.Errorf("route %q not found", routeID)
	}
	return &session.RouteConfig{
		RouteID:      "imageUploader",
		MaxFileSize:  4_000_000,
		MaxFileCount: 1,
		Bucket:       "uploads",
	}, nil
}

type noopTransport struct{}

func (noopTransport) Upload(_ context.Context, _ session.RouteConfig, files []session.FileRef, _ map[string]string, progress session.ProgressFunc) ([]session.FileResult, error) {
	progress(100)
	return make([]session.FileResult, len(files)), nil
}

// A plain GET without upgrade headers makes the upgrader write its own error
// response; the handler must not write a second one on top of it.
func TestWatchSessionUpgradeFailureWritesSingleResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	mgr := session.NewManager(noopTransport{})
	sess, err := mgr.Create(context.Background(), "imageUploader", userID, staticSource{})
	require.NoError(t, err)

	ctrl := &Controller{
		Infra:    &infra.Infra{Logger: infra.InitLoggerClient(&config.EnvConfig{})},
		Sessions: mgr,
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/upload/sessions/"+sess.ID().String()+"/watch", nil)
	c.Params = gin.Params{{Key: "id", Value: sess.ID().String()}}
	c.Set("user_id", userID.String())

	ctrl.WatchSession(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), `"status"`, "only the upgrader's error response must be written")
}
