package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports which model is serving and whether persistence is wired.
func Health(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gin.H{
			"status":           "ok",
			"store_configured": app.Activity != nil && app.Activity.Configured(),
		}
		if info, ok := app.Model.(modelInfo); ok {
			out["model"] = info.Name()
			out["max_length"] = info.MaxLength()
		}
		c.JSON(http.StatusOK, out)
	}
}
