package chat

import (
	"BlenderChat/controllers"

	"github.com/gin-gonic/gin"
)

// Register registers the programmatic inference endpoint.
func Register(r *gin.Engine, app *controllers.App) {
	r.POST("/chat", controllers.Chat(app.Model))
}
