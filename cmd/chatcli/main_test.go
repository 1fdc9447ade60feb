package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"company-chatbot/internal/chatclient"
	"company-chatbot/internal/domain"
)

func TestPrinter_WritesOnlyNewSuffix(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{out: &buf}

	p.update(domain.ChatMessage{ID: "a", Text: "he"})
	p.update(domain.ChatMessage{ID: "a", Text: "hello"})
	p.update(domain.ChatMessage{ID: "b", Text: "x"})

	require.Equal(t, "bot> hellobot> x", buf.String())
}

func TestRun_ChatAndCommands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"reply":"hello there","includedCompany":false,"attempts":1,"usedMaxOutputTokens":512}`))
		case "/api/reload-company":
			_, _ = w.Write([]byte(`{"ok":true,"loaded":true,"name":"TECH-C"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := chatclient.New(srv.URL)
	require.NoError(t, err)

	var out bytes.Buffer
	in := strings.NewReader("hi\n/reload\n/clear\n/quit\n")
	require.NoError(t, run(context.Background(), client, in, &out, false))

	got := out.String()
	require.Contains(t, got, "bot> hello there\n")
	require.Contains(t, got, "profile loaded=true name=TECH-C")
	require.Equal(t, 2, strings.Count(got, "Hello! Ask me anything about the company."))
}

func TestRun_ShowsServerErrorsInline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	client, err := chatclient.New(srv.URL)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), client, strings.NewReader("hi\n"), &out, true))
	require.Contains(t, out.String(), `you> bot> Something went wrong: {"error":"boom"}`)
}
