package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/uploadkit/upload-gateway/http/controller/dto"
	"github.com/uploadkit/upload-gateway/utils"
)

func (ctrl *Controller) ListRoutes(c *gin.Context) {
	rows, err := ctrl.Repository.RouteRepo.List()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Route] Failed to list routes")
		utils.JSON500(c, "Failed to list routes")
		return
	}

	routes := make([]dto.RouteResponse, 0, len(rows))
	for _, row := range rows {
		cfg, err := row.Config()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Route] Skipping malformed route %q", row.RouteID)
			continue
		}
		routes = append(routes, dto.RouteResponse{
			RouteID:       cfg.RouteID,
			MaxFileSize:   cfg.MaxFileSize,
			MaxFileCount:  cfg.MaxFileCount,
			AcceptedTypes: cfg.AcceptedTypes,
			Relay:         cfg.Relay,
		})
	}
	utils.JSON200(c, routes)
}

func (ctrl *Controller) GetRoute(c *gin.Context) {
	routeID := c.Param("route_id")

	row, err := ctrl.Repository.RouteRepo.FindByRouteID(routeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Route not found: "+routeID)
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Route] Failed to load route %q", routeID)
		utils.JSON500(c, "Failed to load route")
		return
	}

	cfg, err := row.Config()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Route] Route %q has a malformed configuration", routeID)
		utils.JSON500(c, "Malformed route configuration")
		return
	}

	utils.JSON200(c, dto.RouteResponse{
		RouteID:       cfg.RouteID,
		MaxFileSize:   cfg.MaxFileSize,
		MaxFileCount:  cfg.MaxFileCount,
		AcceptedTypes: cfg.AcceptedTypes,
		Relay:         cfg.Relay,
	})
}
