package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"company-chatbot/internal/domain"
	"company-chatbot/internal/integrations/gemini"
)

type genResponse struct {
	body string
	err  error
}

type mockGenerator struct {
	responses []genResponse
	requests  []domain.GenerationRequest
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) ([]byte, error) {
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return nil, errors.New("no generator response configured")
	}
	idx := len(m.requests) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return []byte(m.responses[idx].body), m.responses[idx].err
}

type staticProfiles struct {
	profile *domain.CompanyProfile
}

func (s staticProfiles) Current() *domain.CompanyProfile { return s.profile }

type mockRecorder struct {
	recorded []domain.Exchange
	err      error
}

func (m *mockRecorder) RecordExchange(_ context.Context, ex domain.Exchange) error {
	m.recorded = append(m.recorded, ex)
	return m.err
}

const (
	textBody      = `{"candidates":[{"content":{"parts":[{"text":"Halo!"}]},"finishReason":"STOP"}]}`
	maxTokensBody = `{"candidates":[{"content":{"role":"model"},"finishReason":"MAX_TOKENS"}]}`
	safetyBody    = `{"candidates":[{"finishReason":"SAFETY"}]}`
)

func techC() *domain.CompanyProfile {
	return &domain.CompanyProfile{
		Name:        "TECH-C",
		Aliases:     []string{"Tech C Indonesia"},
		Website:     "https://www.tech-c.my.id",
		Description: "Robotic education and IoT training provider.",
		Products:    []string{"Robotic Education"},
		Location:    "Bandung",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, gen Generator, profile *domain.CompanyProfile, rec ExchangeRecorder, cfg ChatConfig) *ChatService {
	t.Helper()
	svc, err := NewChatService(gen, staticProfiles{profile: profile}, rec, cfg, discardLogger())
	require.NoError(t, err)
	return svc
}

func expectChatError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func budgets(reqs []domain.GenerationRequest) []int {
	out := make([]int, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.GenerationConfig.MaxOutputTokens)
	}
	return out
}

func TestNewChatService_ValidatesDependencies(t *testing.T) {
	_, err := NewChatService(nil, staticProfiles{}, nil, ChatConfig{}, nil)
	require.Error(t, err)

	_, err = NewChatService(&mockGenerator{}, nil, nil, ChatConfig{}, nil)
	require.Error(t, err)

	_, err = NewChatService(&mockGenerator{}, staticProfiles{}, nil, ChatConfig{}, nil)
	require.NoError(t, err)
}

func TestChat_FirstAttemptText_SingleAttempt(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, "Halo!", out.Reply)
	require.Equal(t, 1, out.Attempts)
	require.Equal(t, 512, out.UsedMaxOutputTokens)
	require.False(t, out.IncludedCompany)
	require.Len(t, gen.requests, 1)

	cfg := gen.requests[0].GenerationConfig
	require.Equal(t, 512, cfg.MaxOutputTokens)
	require.Equal(t, 0.6, cfg.Temperature)
	require.Equal(t, 1, cfg.CandidateCount)
}

func TestChat_MaxTokensEveryAttempt_EscalatesAndCaps(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: maxTokensBody}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "tell me everything"})
	require.NoError(t, err)
	require.Equal(t, 3, out.Attempts)
	require.Equal(t, []int{512, 1024, 2048}, budgets(gen.requests))
	require.Equal(t, 2048, out.UsedMaxOutputTokens)
	require.True(t, strings.HasPrefix(out.Reply, gemini.TruncationNotice))
}

func TestChat_MaxTokensThenText_StopsOnText(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: maxTokensBody}, {body: textBody}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Attempts)
	require.Equal(t, 1024, out.UsedMaxOutputTokens)
	require.Equal(t, "Halo!", out.Reply)
}

func TestChat_NoTextOtherReason_DoesNotRetry(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: safetyBody}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Attempts)
	require.Equal(t, `{"finishReason":"SAFETY"}`, out.Reply)
}

func TestChat_NonJSONBody_ReturnsRawText(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: "gateway says hi"}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Attempts)
	require.Equal(t, "gateway says hi", out.Reply)
}

func TestChat_FixedMaxOutputTokens_SentButBudgetReported(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: maxTokensBody}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{FixedMaxOutputTokens: 8192})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, []int{8192, 8192, 8192}, budgets(gen.requests))
	require.Equal(t, 2048, out.UsedMaxOutputTokens)
}

func TestChat_UpstreamStatus_NoRetry(t *testing.T) {
	statusErr := &gemini.HTTPStatusError{StatusCode: http.StatusTooManyRequests, Body: `{"error":"quota"}`}
	gen := &mockGenerator{responses: []genResponse{{err: statusErr}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	expectChatError(t, err, ErrorUpstream, "upstream_status")
	require.Len(t, gen.requests, 1)

	status, body, ok := UpstreamStatus(err)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, `{"error":"quota"}`, body)
}

func TestChat_NotConfigured(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{err: gemini.ErrNotConfigured}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	expectChatError(t, err, ErrorNotConfigured, "upstream_not_configured")
}

func TestChat_NetworkFailure_IsInternal(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{err: errors.New("dial tcp: connection refused")}}}
	svc := newTestService(t, gen, nil, nil, ChatConfig{})

	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	expectChatError(t, err, ErrorInternal, "upstream_request_failed")
	_, _, ok := UpstreamStatus(err)
	require.False(t, ok)
}

func TestChat_EmptyMessage_NoUpstreamCall(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, techC(), nil, ChatConfig{})

	_, err := svc.Chat(context.Background(), ChatInput{Message: ""})
	expectChatError(t, err, ErrorInvalidInput, "message_required")

	_, err = svc.Chat(context.Background(), ChatInput{Message: "   "})
	expectChatError(t, err, ErrorInvalidInput, "message_required")
	require.Empty(t, gen.requests)
}

func TestChat_RelevantMessage_ContextBlockFirst(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, techC(), nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "Apa itu TECH-C?"})
	require.NoError(t, err)
	require.True(t, out.IncludedCompany)

	contents := gen.requests[0].Contents
	require.Len(t, contents, 2)
	require.True(t, strings.HasPrefix(contents[0].Parts[0].Text, "Company profile (for context):\n"))
	require.Contains(t, contents[0].Parts[0].Text, "Name: TECH-C")
	require.Equal(t, "Apa itu TECH-C?", contents[1].Parts[0].Text)
}

func TestChat_IrrelevantMessage_NoContext(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, techC(), nil, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "what's the weather?"})
	require.NoError(t, err)
	require.False(t, out.IncludedCompany)
	require.Len(t, gen.requests[0].Contents, 1)
}

func TestChat_AlwaysIncludeCompany(t *testing.T) {
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, techC(), nil, ChatConfig{AlwaysIncludeCompany: true})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "what's the weather?"})
	require.NoError(t, err)
	require.True(t, out.IncludedCompany)
	require.Len(t, gen.requests[0].Contents, 2)

	gen = &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc = newTestService(t, gen, nil, nil, ChatConfig{AlwaysIncludeCompany: true})
	out, err = svc.Chat(context.Background(), ChatInput{Message: "what's the weather?"})
	require.NoError(t, err)
	require.False(t, out.IncludedCompany)
	require.Len(t, gen.requests[0].Contents, 1)
}

func TestChat_RecordsExchange(t *testing.T) {
	rec := &mockRecorder{}
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, techC(), rec, ChatConfig{})

	_, err := svc.Chat(context.Background(), ChatInput{Message: "Apa itu TECH-C?"})
	require.NoError(t, err)
	require.Len(t, rec.recorded, 1)
	require.Equal(t, domain.Exchange{
		Message:             "Apa itu TECH-C?",
		Reply:               "Halo!",
		IncludedCompany:     true,
		Attempts:            1,
		UsedMaxOutputTokens: 512,
	}, rec.recorded[0])
}

func TestChat_RecorderFailure_DoesNotFailRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("dynamodb down")}
	gen := &mockGenerator{responses: []genResponse{{body: textBody}}}
	svc := newTestService(t, gen, nil, rec, ChatConfig{})

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, "Halo!", out.Reply)
}

func TestChat_UpstreamError_NotRecorded(t *testing.T) {
	rec := &mockRecorder{}
	gen := &mockGenerator{responses: []genResponse{{err: &gemini.HTTPStatusError{StatusCode: 500}}}}
	svc := newTestService(t, gen, nil, rec, ChatConfig{})

	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.Error(t, err)
	require.Empty(t, rec.recorded)
}
