package activity

import (
	"BlenderChat/controllers"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, app *controllers.App) {
	r.POST("/insert_test", controllers.InsertTest(app.Activity))
}
