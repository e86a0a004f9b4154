package routes

import (
	"time"

	"BlenderChat/controllers"
	"BlenderChat/middleware"
	"BlenderChat/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	activityRoutes "BlenderChat/routes/activity"
	chatRoutes "BlenderChat/routes/chat"
	uiRoutes "BlenderChat/routes/ui"
)

// NewEngine builds the gin engine with the shared middleware stack and all routes.
func NewEngine(cfg *config.Config, app *controllers.App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	r.Use(cors.New(corsConfig(cfg)))
	RegisterRoutes(r, app)
	return r
}

// corsConfig is permissive when CORS_ORIGINS is unset: any
// origin is echoed back and credentials are allowed.
func corsConfig(cfg *config.Config) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		AllowWebSockets:  true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.AllowAllOrigins() {
		cc.AllowOriginFunc = func(string) bool { return true }
	} else {
		cc.AllowOrigins = cfg.CORSOrigins
	}
	return cc
}

// RegisterRoutes mounts every surface on one engine so a single port serves
// inference, persistence and the interactive UI.
func RegisterRoutes(r *gin.Engine, app *controllers.App) {
	r.GET("/healthz", controllers.Health(app))

	chatRoutes.Register(r, app)
	activityRoutes.Register(r, app)

	// the UI owns the root path, including its websocket upgrade
	uiRoutes.Register(r, app)
}
