package ui

import (
	"BlenderChat/controllers"

	"github.com/gin-gonic/gin"
)

// Register mounts the interactive surface at the root path. It shares
// app.Model with /chat; no second model is built.
func Register(r *gin.Engine, app *controllers.App) {
	r.GET("/", controllers.UIPage(app.Model))
	r.POST("/", controllers.UISubmit(app.Model))
}
