package chat

import (
	"errors"
	"fmt"
)

// Roles a message can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound is returned by a KV store when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Chat is one entry in a user's chat list.
type Chat struct {
	ChatID  string  `json:"chat_id"`
	Title   string  `json:"title"`
	Created float64 `json:"created"`
}

// Message is one turn in a chat's history.
type Message struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	TS      float64 `json:"ts"`
}

func userChatsKey(uid string) string {
	return fmt.Sprintf("user:%s:chats", uid)
}

func chatHistoryKey(uid, cid string) string {
	return fmt.Sprintf("chat:%s:%s:history", uid, cid)
}

func userLangKey(uid string) string {
	return fmt.Sprintf("user:%s:lang", uid)
}
