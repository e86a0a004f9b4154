package controllers

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"BlenderChat/middleware"
	svc "BlenderChat/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/gorilla/websocket"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type pageData struct {
	Title     string
	UserInput string
	BotReply  string
	Error     string
}

const pageTitle = "BlenderBot Chat"

// UIPage serves GET /: the chat form, or the live channel when the request
// asks for a websocket upgrade.
func UIPage(gen svc.Generator) gin.HandlerFunc {
	live := ChatWS(gen)
	return func(c *gin.Context) {
		if websocket.IsWebSocketUpgrade(c.Request) {
			live(c)
			return
		}
		renderPage(c, http.StatusOK, pageData{Title: pageTitle})
	}
}

// UISubmit serves POST /, the form path used without javascript.
func UISubmit(gen svc.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := c.PostForm("user_input")
		data := pageData{Title: pageTitle, UserInput: input}

		reply, err := gen.Generate(c.Request.Context(), input)
		if err != nil {
			log.Printf("[ui] request=%s generate failed: %v", middleware.GetRequestID(c), err)
			data.Error = svc.ErrGeneration.Error()
			renderPage(c, http.StatusInternalServerError, data)
			return
		}
		data.BotReply = reply
		renderPage(c, http.StatusOK, data)
	}
}

func renderPage(c *gin.Context, status int, data pageData) {
	c.Render(status, render.HTML{Template: pageTemplate, Name: "index.html", Data: data})
}
