package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/uploadkit/upload-gateway/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are already filtered by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WatchSession upgrades the request to a websocket and streams session
// snapshots until either side disconnects.
func (ctrl *Controller) WatchSession(c *gin.Context) {
	sess, ok := ctrl.sessionFromRequest(c)
	if !ok {
		return
	}

	// Upgrade writes its own error response on failure; adding another would
	// double-write the reply.
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Watch] Websocket upgrade failed for session %s", sess.ID())
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(c.Request.Context(), "[Watch] Watching session %s", sess.ID())
	ws.Serve(conn, sess)
}
