package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"BlenderChat/middleware"
	svc "BlenderChat/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit    = 1 << 20 // 1MB
	wsIdleTimeout  = 10 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type wsSubmit struct {
	UserInput *string `json:"user_input"`
}

// ChatWS serves the interactive surface's live channel.
// Client protocol (JSON messages, one reply per submit):
//
//	-> {user_input: string}
//	<- {bot_reply: string}
//	<- {error: string}
func ChatWS(gen svc.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		rid := middleware.GetRequestID(c)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		})

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[ws] request=%s read error: %v", rid, err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}

			var in wsSubmit
			if err := json.Unmarshal(msg, &in); err != nil || in.UserInput == nil {
				if !writeWS(conn, gin.H{"error": "invalid payload: expected {\"user_input\": string}"}) {
					return
				}
				continue
			}

			reply, err := gen.Generate(c.Request.Context(), *in.UserInput)
			if err != nil {
				log.Printf("[ws] request=%s generate failed: %v", rid, err)
				if !writeWS(conn, gin.H{"error": svc.ErrGeneration.Error()}) {
					return
				}
				continue
			}
			if !writeWS(conn, gin.H{"bot_reply": reply}) {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("[ws] write error: %v", err)
		return false
	}
	return true
}
