package transcript

import (
	"sync"

	"github.com/google/uuid"

	"company-chatbot/internal/domain"
)

// DefaultGreeting opens every new or cleared transcript.
const DefaultGreeting = "Hello! Ask me anything about the company."

// Transcript is an ordered, append-only list of chat messages that is never
// empty. The only in-place mutation allowed is on the most recent assistant
// message, which a progressive reveal rewrites as it goes.
type Transcript struct {
	mu       sync.Mutex
	greeting string
	msgs     []domain.ChatMessage
	newID    func() string
}

// New returns a transcript holding a single assistant greeting.
func New(greeting string) *Transcript {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	t := &Transcript{greeting: greeting, newID: uuid.NewString}
	t.reset()
	return t
}

func (t *Transcript) reset() {
	t.msgs = []domain.ChatMessage{{ID: t.newID(), Role: domain.RoleAssistant, Text: t.greeting}}
}

// Append adds a message and returns it with its assigned ID.
func (t *Transcript) Append(role domain.Role, text string) domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := domain.ChatMessage{ID: t.newID(), Role: role, Text: text}
	t.msgs = append(t.msgs, m)
	return m
}

// SetAssistantText replaces the text of message id if it is the most recent
// assistant message. It reports whether the update was applied.
func (t *Transcript) SetAssistantText(id, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.msgs) - 1; i >= 0; i-- {
		if t.msgs[i].Role != domain.RoleAssistant {
			continue
		}
		if t.msgs[i].ID != id {
			return false
		}
		t.msgs[i].Text = text
		return true
	}
	return false
}

// Messages returns a copy of the transcript in order.
func (t *Transcript) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Last returns the most recent message.
func (t *Transcript) Last() domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msgs[len(t.msgs)-1]
}

// Clear drops the conversation and restores the greeting.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}
