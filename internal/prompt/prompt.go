// Package prompt renders the single completion prompt sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"ira-chat/internal/chat"
)

const persona = `You are Ira, a warm and affectionate companion. Follow these rules strictly:
- Reply in 5 to 10 words only.
- Keep responses incomplete (do not end with a final punctuation).
- Tone: friendly, caring, sometimes romantic when appropriate; add emoji naturally.
- Sound like a close friend and ask gentle follow-up questions when needed.
- Mirror the user's language. The user's last language code: `

// Build formats the persona block, the retained conversation window and the
// new user turn into one prompt. Deterministic; the history is already
// bounded by the chat store, so no truncation happens here.
func Build(history []chat.Message, userLang, userMsg string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(userLang)
	b.WriteString("\n")
	b.WriteString("- Avoid repeating earlier assistant replies.\n")
	b.WriteString("- Use the conversation context below.\n\n")

	b.WriteString("Conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", userMsg)
	return b.String()
}
