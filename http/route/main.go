package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/uploadkit/upload-gateway/http/controller"
	middlewares "github.com/uploadkit/upload-gateway/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)
	r.GET("/health", ctrl.HealthCheck)

	apiRoutes := r.Group("/api/v1/upload")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		sessionRoutes := apiRoutes.Group("/sessions")
		{
			sessionRoutes.POST("/", ctrl.CreateSession)
			sessionRoutes.GET("/", ctrl.ListSessions)
			sessionRoutes.GET("/:id", ctrl.GetSession)
			sessionRoutes.POST("/:id/files", ctrl.StageFiles)
			sessionRoutes.POST("/:id/start", ctrl.StartSession)
			sessionRoutes.POST("/:id/reset", ctrl.ResetSession)
			sessionRoutes.DELETE("/:id", ctrl.DisposeSession)
			sessionRoutes.GET("/:id/watch", ctrl.WatchSession)
		}

		routeRoutes := apiRoutes.Group("/routes")
		{
			routeRoutes.GET("/", ctrl.ListRoutes)
			routeRoutes.GET("/:route_id", ctrl.GetRoute)
		}
	}
	return r
}
