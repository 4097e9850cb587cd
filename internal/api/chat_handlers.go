package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ira-chat/internal/chat"
	"ira-chat/internal/lang"
	"ira-chat/internal/llm"
	"ira-chat/internal/prompt"
)

const defaultUID = "demo_user"

// Create a new chat for a user
func NewChatHandler(store *chat.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UID   string `json:"uid"`
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.UID == "" {
			req.UID = defaultUID
		}

		cid, err := store.CreateChat(c.Request.Context(), req.UID, req.Title)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"chat_id": cid})
	}
}

// List all chats for a user, creation order
func ListChatsHandler(store *chat.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.DefaultQuery("uid", defaultUID)

		chats, err := store.ListChats(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch chats"})
			return
		}
		c.JSON(http.StatusOK, chats)
	}
}

type sendRequest struct {
	UID     string `json:"uid"`
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

// preparePrompt runs the pre-stream part of the send pipeline: implicit
// chat creation, user-turn append, language detection + persistence and
// prompt assembly. Returns the (possibly new) chat id and the prompt.
func preparePrompt(ctx context.Context, store *chat.Store, req *sendRequest) (string, string, error) {
	cid := req.ChatID
	if cid == "" {
		var err error
		cid, err = store.CreateChat(ctx, req.UID, "")
		if err != nil {
			return "", "", err
		}
	}

	if err := store.AppendMessage(ctx, req.UID, cid, chat.RoleUser, req.Message); err != nil {
		return "", "", err
	}

	// Overwritten on every message, no smoothing across turns. Not
	// transactional with the append above; worst case is one reply in
	// the previous style.
	if err := store.SetLanguage(ctx, req.UID, lang.Detect(req.Message)); err != nil {
		return "", "", err
	}

	userLang, err := store.Language(ctx, req.UID)
	if err != nil {
		return "", "", err
	}
	history, err := store.History(ctx, req.UID, cid)
	if err != nil {
		return "", "", err
	}

	return cid, prompt.Build(history, userLang, req.Message), nil
}

// Send a message and stream the assistant reply as plain text chunks
func SendMessageHandler(store *chat.Store, streamer *llm.Streamer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.UID == "" {
			req.UID = defaultUID
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
			return
		}

		cid, promptText, err := preparePrompt(c.Request.Context(), store, &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("X-Chat-ID", cid)
		c.Status(http.StatusOK)

		streamer.Run(c.Request.Context(), req.UID, cid, promptText, func(fragment string) error {
			if _, err := c.Writer.WriteString(fragment); err != nil {
				return err
			}
			c.Writer.Flush()
			return nil
		})
	}
}
