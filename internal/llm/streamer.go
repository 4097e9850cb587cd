package llm

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"ira-chat/internal/chat"
)

// Fallback is the canned assistant reply used when the provider cannot be
// invoked at all.
const Fallback = "Sorry, thoda issue ho gaya, try again"

// MessageAppender is the slice of the chat store the streamer commits
// through. Satisfied by *chat.Store.
type MessageAppender interface {
	AppendMessage(ctx context.Context, uid, cid, role, content string) error
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Streamer drives one completion: it forwards provider fragments to the
// caller as they arrive, accumulates the full reply and commits it to chat
// history exactly once when the stream ends, normally or not.
type Streamer struct {
	store    MessageAppender
	provider Provider
	model    string
}

func NewStreamer(store MessageAppender, provider Provider, model string) *Streamer {
	return &Streamer{store: store, provider: provider, model: model}
}

// Run streams a reply for the given prompt, calling emit for every fragment
// delivered to the client. If emit fails (client gone) the provider stream
// is still drained so the committed history matches what the model said.
// The stream and the commit outlive cancellation of the request context.
func (s *Streamer) Run(ctx context.Context, uid, cid, prompt string, emit func(string) error) {
	// History must stay consistent even if the client disconnects.
	ctx = context.WithoutCancel(ctx)

	var collected strings.Builder
	clientGone := false

	err := s.provider.Stream(ctx, s.model, prompt, func(fragment string) error {
		collected.WriteString(fragment)
		if !clientGone {
			if werr := emit(fragment); werr != nil {
				clientGone = true
			}
		}
		return nil
	})

	if err != nil && collected.Len() == 0 {
		// Provider could not be invoked: canned fallback instead of a reply.
		log.Printf("[Stream] provider invocation failed: %v", err)
		if !clientGone {
			_ = emit(Fallback)
		}
		s.commit(ctx, uid, cid, Fallback)
		return
	}
	if err != nil {
		// Mid-stream failure: what was already emitted stays delivered.
		log.Printf("[Stream] provider failed mid-stream: %v", err)
		if !clientGone {
			_ = emit(fmt.Sprintf("\n[Error: %v]", err))
		}
	}

	final := strings.TrimSpace(whitespaceRun.ReplaceAllString(collected.String(), " "))
	if final != "" {
		s.commit(ctx, uid, cid, final)
	}
}

func (s *Streamer) commit(ctx context.Context, uid, cid, content string) {
	if err := s.store.AppendMessage(ctx, uid, cid, chat.RoleAssistant, content); err != nil {
		log.Printf("[Stream] failed to commit assistant message for chat %s: %v", cid, err)
	}
}
