package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"company-chatbot/internal/company"
	"company-chatbot/internal/domain"
	"company-chatbot/internal/integrations/gemini"
)

const (
	maxAttempts   = 3
	initialBudget = 512
	maxBudget     = 2048
)

// Generator sends one generation request and returns the raw 2xx body.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) ([]byte, error)
}

// ProfileSource provides the currently loaded company profile, or nil.
type ProfileSource interface {
	Current() *domain.CompanyProfile
}

// ExchangeRecorder persists completed exchanges.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, ex domain.Exchange) error
}

type ChatConfig struct {
	// AlwaysIncludeCompany injects the context block whenever a profile is
	// loaded, regardless of relevance.
	AlwaysIncludeCompany bool
	// FixedMaxOutputTokens, when positive, is sent as maxOutputTokens on every
	// attempt instead of the escalating budget. The budget is still computed
	// and reported.
	FixedMaxOutputTokens int
}

type ChatService struct {
	gen      Generator
	profiles ProfileSource
	recorder ExchangeRecorder
	cfg      ChatConfig
	logger   *slog.Logger
}

type ChatInput struct {
	Message string
}

type ChatOutput struct {
	Reply               string
	IncludedCompany     bool
	Attempts            int
	UsedMaxOutputTokens int
}

// NewChatService wires the chat flow. recorder may be nil.
func NewChatService(gen Generator, profiles ProfileSource, recorder ExchangeRecorder, cfg ChatConfig, logger *slog.Logger) (*ChatService, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if profiles == nil {
		return nil, errors.New("usecase: profile source must not be nil")
	}
	if cfg.FixedMaxOutputTokens < 0 {
		cfg.FixedMaxOutputTokens = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		gen:      gen,
		profiles: profiles,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Chat answers one user message. Non-success upstream statuses end the flow
// immediately. An attempt that produced no text because it hit the token
// limit is retried with a doubled budget, at most maxAttempts times in total.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_required", nil)
	}

	profile := s.profiles.Current()
	include := profile != nil && (s.cfg.AlwaysIncludeCompany || company.IsRelevant(message, profile))
	contents := buildContents(message, profile, include)

	budget := initialBudget
	attempts := 0
	var result gemini.Result
	for attempts < maxAttempts {
		attempts++
		s.logger.Info("generation attempt", "attempt", attempts, "max_output_tokens", budget, "included_company", include)

		raw, err := s.gen.Generate(ctx, buildRequest(contents, s.requestTokens(budget)))
		if err != nil {
			return ChatOutput{}, s.generateError(err)
		}
		s.logger.Debug("generation response", "attempt", attempts, "body", string(raw))

		result = gemini.ParseResult(raw)
		if result.HasText() {
			break
		}
		if result.FinishReason() == gemini.FinishReasonMaxTokens && budget < maxBudget {
			budget = min(maxBudget, budget*2)
			continue
		}
		break
	}

	out := ChatOutput{
		Reply:               result.Extract(),
		IncludedCompany:     include,
		Attempts:            attempts,
		UsedMaxOutputTokens: budget,
	}
	s.record(ctx, message, out)
	return out, nil
}

func (s *ChatService) requestTokens(budget int) int {
	if s.cfg.FixedMaxOutputTokens > 0 {
		return s.cfg.FixedMaxOutputTokens
	}
	return budget
}

func (s *ChatService) generateError(err error) error {
	if errors.Is(err, gemini.ErrNotConfigured) {
		return newError(ErrorNotConfigured, "upstream_not_configured", err)
	}
	if status, _, ok := UpstreamStatus(err); ok {
		s.logger.Warn("upstream returned non-success status", "status", status)
		return newError(ErrorUpstream, "upstream_status", err)
	}
	return newError(ErrorInternal, "upstream_request_failed", err)
}

func (s *ChatService) record(ctx context.Context, message string, out ChatOutput) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.RecordExchange(ctx, domain.Exchange{
		Message:             message,
		Reply:               out.Reply,
		IncludedCompany:     out.IncludedCompany,
		Attempts:            out.Attempts,
		UsedMaxOutputTokens: out.UsedMaxOutputTokens,
	})
	if err != nil {
		s.logger.Warn("failed to record exchange", "err", err)
	}
}
