package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"company-chatbot/internal/usecase"
)

type correlationKey struct{}

// Routes returns the standalone HTTP router. When staticDir is non-empty,
// unmatched GET requests are served from it.
func (h *Handler) Routes(staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(h.correlationID)
	r.Use(h.recoverJSON)

	r.Get(pathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post(pathChat, h.handleChat)
	r.Post(pathReload, h.handleReload)

	if dir := strings.TrimSpace(staticDir); dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}
	return r
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMessageRequired, Code: string(usecase.ErrorInvalidInput)})
		return
	}
	status, payload := h.serveChat(r.Context(), body)
	writeJSON(w, status, payload)
}

func (h *Handler) handleReload(w http.ResponseWriter, _ *http.Request) {
	status, payload := h.serveReload()
	writeJSON(w, status, payload)
}

// correlationID reuses the caller's X-Correlation-Id or assigns a new one,
// and echoes it on the response.
func (h *Handler) correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		ctx := context.WithValue(r.Context(), correlationKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverJSON turns a panic into a JSON 500 carrying the panic value.
func (h *Handler) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			id, _ := r.Context().Value(correlationKey{}).(string)
			h.logger.Error("panic while handling request", "panic", rec, "correlation_id", id, "path", r.URL.Path)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprint(rec), Code: string(usecase.ErrorInternal)})
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
