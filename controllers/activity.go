package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"BlenderChat/middleware"
	svc "BlenderChat/pkg/services"

	"github.com/gin-gonic/gin"
)

// InsertTest handles POST /insert_test. An unconfigured store is reported in
// the body with a 200 status; callers must check for "error".
func InsertTest(rec ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := rec.Record(c.Request.Context())
		switch {
		case errors.Is(err, svc.ErrNotConfigured):
			c.JSON(http.StatusOK, gin.H{"error": svc.ErrNotConfigured.Error()})
			return
		case err != nil:
			log.Printf("[store] request=%s insert failed: %v", middleware.GetRequestID(c), err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id": row.ID,
			"ts": row.TS.Format(time.RFC3339Nano),
		})
	}
}
