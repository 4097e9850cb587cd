package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KV is the slice of the key-value store the chat layer uses. Implemented
// by the redis adapter in production and by an in-memory fake in tests.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	RPush(ctx context.Context, key, value string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Store manages chat identity and bounded message history. All store
// failures propagate to the caller untouched.
type Store struct {
	kv         KV
	maxContext int
}

func NewStore(kv KV, maxContext int) *Store {
	return &Store{kv: kv, maxContext: maxContext}
}

// CreateChat appends a new chat record to the user's chat list and returns
// its id. The title defaults to "Chat {n+1}". Ids are 8 hex chars of a
// random uuid; collisions are left to generator entropy.
func (s *Store) CreateChat(ctx context.Context, uid, title string) (string, error) {
	chats, err := s.ListChats(ctx, uid)
	if err != nil {
		return "", err
	}

	cid := uuid.NewString()[:8]
	if title == "" {
		title = fmt.Sprintf("Chat %d", len(chats)+1)
	}
	chats = append(chats, Chat{
		ChatID:  cid,
		Title:   title,
		Created: float64(time.Now().UnixNano()) / 1e9,
	})

	raw, err := json.Marshal(chats)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, userChatsKey(uid), string(raw)); err != nil {
		return "", err
	}
	return cid, nil
}

// ListChats returns the user's chats in creation order.
func (s *Store) ListChats(ctx context.Context, uid string) ([]Chat, error) {
	raw, err := s.kv.Get(ctx, userChatsKey(uid))
	if errors.Is(err, ErrNotFound) {
		return []Chat{}, nil
	}
	if err != nil {
		return nil, err
	}

	var chats []Chat
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		return nil, fmt.Errorf("decode chat list for %s: %w", uid, err)
	}
	return chats, nil
}

// AppendMessage pushes a message onto a chat's history, then trims the
// history to the most recent maxContext entries.
func (s *Store) AppendMessage(ctx context.Context, uid, cid, role, content string) error {
	msg := Message{
		Role:    role,
		Content: content,
		TS:      float64(time.Now().UnixNano()) / 1e9,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := chatHistoryKey(uid, cid)
	if err := s.kv.RPush(ctx, key, string(raw)); err != nil {
		return err
	}
	return s.kv.LTrim(ctx, key, int64(-s.maxContext), -1)
}

// History returns all retained messages for a chat, oldest first.
func (s *Store) History(ctx context.Context, uid, cid string) ([]Message, error) {
	items, err := s.kv.LRange(ctx, chatHistoryKey(uid, cid), 0, -1)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(items))
	for _, item := range items {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// SetLanguage overwrites the user's last-detected language.
func (s *Store) SetLanguage(ctx context.Context, uid, lang string) error {
	return s.kv.Set(ctx, userLangKey(uid), lang)
}

// Language returns the user's last-detected language, "en" when unset.
func (s *Store) Language(ctx context.Context, uid string) (string, error) {
	lang, err := s.kv.Get(ctx, userLangKey(uid))
	if errors.Is(err, ErrNotFound) {
		return "en", nil
	}
	if err != nil {
		return "", err
	}
	return lang, nil
}
