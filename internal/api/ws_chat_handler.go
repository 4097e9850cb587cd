package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ira-chat/internal/chat"
	"ira-chat/internal/llm"
)

// WSChatToken is one streamed fragment on the wire.
type WSChatToken struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSChatHandler streams one reply per request message. The client sends
// {uid, chat_id, message}; the server answers with {token,index} events and
// a final {"event":"end","chat_id":...} frame.
func WSChatHandler(store *chat.Store, streamer *llm.Streamer) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req sendRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.UID == "" {
				req.UID = defaultUID
			}
			req.Message = strings.TrimSpace(req.Message)
			if req.Message == "" {
				if err := conn.WriteJSON(gin.H{"event": "error", "error": "message required"}); err != nil {
					return
				}
				continue
			}

			cid, promptText, err := preparePrompt(c.Request.Context(), store, &req)
			if err != nil {
				if werr := conn.WriteJSON(gin.H{"event": "error", "error": err.Error()}); werr != nil {
					return
				}
				continue
			}

			index := 0
			streamer.Run(c.Request.Context(), req.UID, cid, promptText, func(fragment string) error {
				if err := conn.WriteJSON(WSChatToken{Token: fragment, Index: index}); err != nil {
					return err
				}
				index++
				return nil
			})

			if err := conn.WriteJSON(gin.H{"event": "end", "chat_id": cid}); err != nil {
				return
			}
		}
	}
}
