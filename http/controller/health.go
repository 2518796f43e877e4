package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uploadkit/upload-gateway/utils"
)

func (ctrl *Controller) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	checks := gin.H{
		"storage":  "ok",
		"database": "ok",
	}
	healthy := true

	if err := ctrl.Infra.Minio.Healthy(ctx); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Health] Storage backend unreachable")
		checks["storage"] = "unreachable"
		healthy = false
	}

	if db, err := ctrl.Infra.Postgres.DB.DB(); err != nil || db.PingContext(ctx) != nil {
		checks["database"] = "unreachable"
		healthy = false
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": http.StatusServiceUnavailable, "data": checks})
		return
	}
	utils.JSON200(c, checks)
}
