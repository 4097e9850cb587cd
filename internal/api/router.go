package api

import (
	"github.com/gin-gonic/gin"

	"ira-chat/internal/chat"
	"ira-chat/internal/llm"
)

func SetupRouter(store *chat.Store, streamer *llm.Streamer) *gin.Engine {
	r := gin.Default()

	r.GET("/health", healthHandler)

	api := r.Group("/api")
	{
		api.POST("/new_chat", NewChatHandler(store))
		api.GET("/chats", ListChatsHandler(store))
		api.POST("/send", SendMessageHandler(store, streamer))
	}

	// Streaming over WebSocket, same pipeline as /api/send
	r.GET("/ws/chat", WSChatHandler(store, streamer))

	return r
}
