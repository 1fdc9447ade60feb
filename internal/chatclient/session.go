package chatclient

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"company-chatbot/internal/domain"
	"company-chatbot/internal/reveal"
	"company-chatbot/internal/transcript"
)

const (
	noReply       = "(no reply)"
	failurePrefix = "Something went wrong: "
)

var (
	ErrEmptyMessage = errors.New("chatclient: message is empty")
	ErrBusy         = errors.New("chatclient: a request is already pending")
)

// Sender delivers one message and returns the server's reply.
type Sender interface {
	Send(ctx context.Context, message string) (Reply, error)
}

// Session drives a conversation: it appends to the transcript, calls the
// server and reveals each reply progressively. Only one request may be
// pending at a time; a new submission supersedes an in-flight reveal.
type Session struct {
	sender     Sender
	transcript *transcript.Transcript
	revealer   *reveal.Revealer
	onUpdate   func(domain.ChatMessage)
	pending    atomic.Bool
}

// NewSession creates a Session. onUpdate, if set, receives every assistant
// message change, including each reveal step.
func NewSession(sender Sender, tr *transcript.Transcript, rv *reveal.Revealer, onUpdate func(domain.ChatMessage)) (*Session, error) {
	if sender == nil {
		return nil, errors.New("chatclient: sender must not be nil")
	}
	if tr == nil {
		tr = transcript.New("")
	}
	if rv == nil {
		rv = reveal.New(0, 0)
	}
	if onUpdate == nil {
		onUpdate = func(domain.ChatMessage) {}
	}
	return &Session{sender: sender, transcript: tr, revealer: rv, onUpdate: onUpdate}, nil
}

func (s *Session) Transcript() *transcript.Transcript {
	return s.transcript
}

// Pending reports whether a request is in flight.
func (s *Session) Pending() bool {
	return s.pending.Load()
}

// Submit sends text and starts revealing the reply. The returned channel is
// closed when the reply is fully shown. Failures are rendered inline as an
// assistant message, so the transcript always ends with some reply.
func (s *Session) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !s.pending.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	s.revealer.Stop()
	s.transcript.Append(domain.RoleUser, text)

	reply, err := s.sender.Send(ctx, text)
	s.pending.Store(false)
	if err != nil {
		msg := s.transcript.Append(domain.RoleAssistant, failurePrefix+err.Error())
		s.onUpdate(msg)
		done := make(chan struct{})
		close(done)
		return done, nil
	}

	full := reply.Reply
	if full == "" {
		full = noReply
	}
	msg := s.transcript.Append(domain.RoleAssistant, "")
	return s.revealer.Start(ctx, full, func(partial string) {
		if s.transcript.SetAssistantText(msg.ID, partial) {
			msg.Text = partial
			s.onUpdate(msg)
		}
	}), nil
}

// Clear stops any reveal and resets the transcript to its greeting.
func (s *Session) Clear() {
	s.revealer.Stop()
	s.transcript.Clear()
}
