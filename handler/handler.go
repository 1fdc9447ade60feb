package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"company-chatbot/internal/domain"
	"company-chatbot/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	maxRequestBytes   = 64 << 10

	pathChat   = "/api/chat"
	pathReload = "/api/reload-company"
	pathHealth = "/health"

	msgMessageRequired = "`message` is required"
	msgNotConfigured   = "Server not configured: GEMINI_API_URL and/or GEMINI_API_KEY missing. Set them in the environment"
	msgUpstream        = "Upstream error"
)

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type ProfileReloader interface {
	Reload() *domain.CompanyProfile
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply               string `json:"reply"`
	IncludedCompany     bool   `json:"includedCompany"`
	Attempts            int    `json:"attempts"`
	UsedMaxOutputTokens int    `json:"usedMaxOutputTokens"`
}

type reloadResponse struct {
	OK     bool    `json:"ok"`
	Loaded bool    `json:"loaded"`
	Name   *string `json:"name"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}

// Handler serves the chat endpoints. The same logic backs both the chi router
// returned by Routes and the API Gateway adapter Handle.
type Handler struct {
	chat     ChatUseCase
	profiles ProfileReloader
	logger   *slog.Logger
}

func NewHandler(chat ChatUseCase, profiles ProfileReloader, logger *slog.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if profiles == nil {
		return nil, errors.New("handler: profile reloader must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, profiles: profiles, logger: logger}, nil
}

func (h *Handler) serveChat(ctx context.Context, body []byte) (int, any) {
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusBadRequest, errorResponse{Error: msgMessageRequired, Code: string(usecase.ErrorInvalidInput)}
	}

	out, err := h.chat.Chat(ctx, usecase.ChatInput{Message: req.Message})
	if err != nil {
		return h.errorPayload(err)
	}
	return http.StatusOK, chatResponse{
		Reply:               out.Reply,
		IncludedCompany:     out.IncludedCompany,
		Attempts:            out.Attempts,
		UsedMaxOutputTokens: out.UsedMaxOutputTokens,
	}
}

func (h *Handler) serveReload() (int, any) {
	p := h.profiles.Reload()
	resp := reloadResponse{OK: true, Loaded: p != nil}
	if p != nil && p.Name != "" {
		name := p.Name
		resp.Name = &name
	}
	return http.StatusOK, resp
}

func (h *Handler) errorPayload(err error) (int, any) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		h.logger.Error("unexpected chat error", "err", err)
		return http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: string(usecase.ErrorInternal)}
	}

	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, errorResponse{Error: msgMessageRequired, Code: string(ucErr.Code)}
	case usecase.ErrorNotConfigured:
		h.logger.Error("chat endpoint not configured", "reason", ucErr.Reason)
		return http.StatusInternalServerError, errorResponse{Error: msgNotConfigured, Code: string(ucErr.Code)}
	case usecase.ErrorUpstream:
		resp := errorResponse{Error: msgUpstream, Code: string(ucErr.Code)}
		if status, body, ok := usecase.UpstreamStatus(err); ok {
			resp.Status = status
			resp.Details = body
		}
		return http.StatusBadGateway, resp
	default:
		h.logger.Error("chat request failed", "reason", ucErr.Reason, "err", ucErr.Err)
		msg := ucErr.Error()
		if ucErr.Err != nil {
			msg = ucErr.Err.Error()
		}
		return http.StatusInternalServerError, errorResponse{Error: msg, Code: string(usecase.ErrorInternal)}
	}
}

// Handle is the AWS Lambda entry point for API Gateway proxy events.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while handling request", "panic", rec)
			resp = proxyResponse(http.StatusInternalServerError, errorResponse{Error: fmt.Sprint(rec), Code: string(usecase.ErrorInternal)}, correlationID)
			err = nil
		}
	}()

	status, payload := h.route(ctx, event)
	logger.Info("request handled", "method", event.HTTPMethod, "path", event.Path, "status", status)
	return proxyResponse(status, payload, correlationID), nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest) (int, any) {
	method := strings.ToUpper(event.HTTPMethod)
	switch {
	case event.Path == pathChat && method == http.MethodPost:
		body, err := eventBody(event)
		if err != nil {
			return http.StatusBadRequest, errorResponse{Error: msgMessageRequired, Code: string(usecase.ErrorInvalidInput)}
		}
		return h.serveChat(ctx, body)
	case event.Path == pathReload && method == http.MethodPost:
		return h.serveReload()
	case event.Path == pathHealth && method == http.MethodGet:
		return http.StatusOK, map[string]string{"status": "ok"}
	case event.Path == pathChat || event.Path == pathReload || event.Path == pathHealth:
		return http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"}
	default:
		return http.StatusNotFound, errorResponse{Error: "not found"}
	}
}

func eventBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

func proxyResponse(status int, payload any, correlationID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(body),
	}
}

// headerValue looks up key ignoring case, as API Gateway forwards headers
// with client-chosen casing.
func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
