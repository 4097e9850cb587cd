package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"ira-chat/internal/chat"
	"ira-chat/internal/llm"
)

// memKV is an in-memory KV store for handler tests.
type memKV struct {
	mu      sync.Mutex
	strings map[string]string
	lists   map[string][]string
}

func newMemKV() *memKV {
	return &memKV{strings: make(map[string]string), lists: make(map[string][]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.strings[key]
	if !ok {
		return "", chat.ErrNotFound
	}
	return val, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

func (m *memKV) RPush(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *memKV) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		m.lists[key] = nil
		return nil
	}
	m.lists[key] = list[start : stop+1]
	return nil
}

func (m *memKV) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

// scriptedProvider replays fragments; it records the prompt it was given.
type scriptedProvider struct {
	fragments []string
	err       error
	prompt    string
}

func (p *scriptedProvider) Stream(_ context.Context, _, prompt string, onDelta func(string) error) error {
	p.prompt = prompt
	for _, frag := range p.fragments {
		if err := onDelta(frag); err != nil {
			return err
		}
	}
	return p.err
}

func newTestRouter(provider llm.Provider) (*gin.Engine, *chat.Store) {
	gin.SetMode(gin.TestMode)
	store := chat.NewStore(newMemKV(), 20)
	streamer := llm.NewStreamer(store, provider, "test-model")
	return SetupRouter(store, streamer), store
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	r, _ := newTestRouter(&scriptedProvider{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"ok"`)) {
		t.Errorf("unexpected health body: %s", w.Body.String())
	}
}

func TestNewChatHandler_CreatesAndLists(t *testing.T) {
	r, _ := newTestRouter(&scriptedProvider{})

	w := postJSON(t, r, "/api/new_chat", map[string]string{"uid": "u1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(resp.ChatID) != 8 {
		t.Errorf("expected 8-char chat id, got %q", resp.ChatID)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/chats?uid=u1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var chats []chat.Chat
	if err := json.Unmarshal(w.Body.Bytes(), &chats); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(chats) != 1 || chats[0].ChatID != resp.ChatID || chats[0].Title != "Chat 1" {
		t.Errorf("unexpected chat list: %+v", chats)
	}
}

func TestListChatsHandler_EmptyUser(t *testing.T) {
	r, _ := newTestRouter(&scriptedProvider{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/chats?uid=fresh", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if body := bytes.TrimSpace(w.Body.Bytes()); !bytes.Equal(body, []byte("[]")) {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestSendMessageHandler_EmptyMessage(t *testing.T) {
	r, store := newTestRouter(&scriptedProvider{})

	w := postJSON(t, r, "/api/send", map[string]string{"uid": "u1", "message": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", w.Code)
	}

	// No history mutation on rejected input.
	chats, _ := store.ListChats(context.Background(), "u1")
	if len(chats) != 0 {
		t.Errorf("rejected message must not create chats: %+v", chats)
	}
}

func TestSendMessageHandler_StreamsAndCommits(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"Hi ", "there\n", " friend"}}
	r, store := newTestRouter(provider)

	w := postJSON(t, r, "/api/send", map[string]string{"uid": "u1", "message": "hello how are you"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "Hi there\n friend" {
		t.Errorf("streamed body mismatch: %q", w.Body.String())
	}

	// Implicit chat creation.
	cid := w.Header().Get("X-Chat-ID")
	if len(cid) != 8 {
		t.Fatalf("expected implicit chat id header, got %q", cid)
	}

	history, _ := store.History(context.Background(), "u1", cid)
	if len(history) != 2 {
		t.Fatalf("expected user + assistant turns, got %d", len(history))
	}
	if history[0].Role != chat.RoleUser || history[0].Content != "hello how are you" {
		t.Errorf("user turn wrong: %+v", history[0])
	}
	if history[1].Role != chat.RoleAssistant || history[1].Content != "Hi there friend" {
		t.Errorf("assistant turn not committed with collapsed whitespace: %+v", history[1])
	}
}

func TestSendMessageHandler_DetectsAndPersistsLanguage(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"haan bolo"}}
	r, store := newTestRouter(provider)

	w := postJSON(t, r, "/api/send", map[string]string{"uid": "u1", "message": "kya kar rahe ho"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	userLang, err := store.Language(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Language failed: %v", err)
	}
	if userLang != "hi" {
		t.Errorf("expected persisted language hi, got %q", userLang)
	}
	if !bytes.Contains([]byte(provider.prompt), []byte("language code: hi")) {
		t.Errorf("prompt missing mirrored-language hint:\n%s", provider.prompt)
	}
}

func TestSendMessageHandler_ProviderInvocationFails(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("quota exceeded")}
	r, store := newTestRouter(provider)

	w := postJSON(t, r, "/api/send", map[string]string{"uid": "u1", "chat_id": "c1", "message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if w.Body.String() != llm.Fallback {
		t.Errorf("expected single fallback fragment, got %q", w.Body.String())
	}

	history, _ := store.History(context.Background(), "u1", "c1")
	if len(history) == 0 {
		t.Fatalf("no history recorded")
	}
	last := history[len(history)-1]
	if last.Role != chat.RoleAssistant || last.Content != llm.Fallback {
		t.Errorf("fallback not the most recent assistant message: %+v", last)
	}
}

func TestSendMessageHandler_ExplicitChatID(t *testing.T) {
	provider := &scriptedProvider{fragments: []string{"sure"}}
	r, store := newTestRouter(provider)

	cid, err := store.CreateChat(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	w := postJSON(t, r, "/api/send", map[string]string{"uid": "u1", "chat_id": cid, "message": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if got := w.Header().Get("X-Chat-ID"); got != cid {
		t.Errorf("expected chat id %q echoed, got %q", cid, got)
	}

	// No second chat created.
	chats, _ := store.ListChats(context.Background(), "u1")
	if len(chats) != 1 {
		t.Errorf("expected 1 chat, got %+v", chats)
	}
}
