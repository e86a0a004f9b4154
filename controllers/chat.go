package controllers

import (
	"log"
	"net/http"

	"BlenderChat/middleware"
	"BlenderChat/models"
	svc "BlenderChat/pkg/services"

	"github.com/gin-gonic/gin"
)

// Chat handles POST /chat: {"user_input": "..."} -> {"user": "...", "bot": "..."}.
func Chat(gen svc.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.ChatRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		input := *body.UserInput

		reply, err := gen.Generate(c.Request.Context(), input)
		if err != nil {
			log.Printf("[chat] request=%s generate failed: %v", middleware.GetRequestID(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": svc.ErrGeneration.Error()})
			return
		}

		c.JSON(http.StatusOK, models.ChatResponse{User: input, Bot: reply})
	}
}
