package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/sync/errgroup"

	"company-chatbot/handler"
	"company-chatbot/internal/company"
	"company-chatbot/internal/config"
	"company-chatbot/internal/integrations/gemini"
	"company-chatbot/internal/integrations/paramstore"
	"company-chatbot/internal/repository"
	"company-chatbot/internal/usecase"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	onLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
	slog.Info("company chatbot starting", "lambda", onLambda, "port", cfg.Port)

	// ---- Company profile ----
	profiles, err := company.NewStore(cfg.CompanyProfilePath, slog.Default())
	if err != nil {
		slog.Error("failed to create company store", "err", err)
		os.Exit(1)
	}

	// ---- Key source and exchange log ----
	var keys gemini.KeySource = gemini.StaticKey(cfg.GeminiAPIKey)
	var recorder usecase.ExchangeRecorder
	if cfg.NeedsAWS() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		if cfg.GeminiAPIKeyParam != "" {
			ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				slog.Error("failed to create SSM client", "err", err)
				os.Exit(1)
			}
			secret, err := paramstore.NewSecretKey(ssmClient, cfg.GeminiAPIKeyParam)
			if err != nil {
				slog.Error("failed to create secret key source", "err", err)
				os.Exit(1)
			}
			keys = secret
		}
		if cfg.ExchangeTable != "" {
			exchangeLog, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.ExchangeTable)
			if err != nil {
				slog.Error("failed to create exchange log", "err", err)
				os.Exit(1)
			}
			recorder = exchangeLog
		}
	}

	// ---- Upstream ----
	if !cfg.UpstreamConfigured() {
		slog.Warn("GEMINI_API_URL and/or GEMINI_API_KEY not set; /api/chat will return errors until configured")
	}
	geminiClient, err := gemini.NewClient(cfg.GeminiAPIURL, keys, gemini.WithTimeout(cfg.UpstreamTimeout), gemini.WithRequestsPerMinute(cfg.RequestsPerMinute))
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chat, err := usecase.NewChatService(geminiClient, profiles, recorder, usecase.ChatConfig{
		AlwaysIncludeCompany: cfg.AlwaysIncludeCompany,
		FixedMaxOutputTokens: cfg.FixedMaxOutputTokens,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chat, profiles, slog.Default())
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	if onLambda {
		lambda.Start(h.Handle)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serve(gctx, cfg.Port, h.Routes(cfg.StaticDir))
	})
	if cfg.CompanyWatch {
		g.Go(func() error {
			// A failed watcher only disables live reload.
			if err := company.Watch(gctx, profiles, 0); err != nil {
				slog.Warn("company profile watcher stopped", "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("HTTP server error", "err", err)
		os.Exit(1)
	}
	slog.Info("company chatbot stopped")
}

// serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, port int, routes http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(logHandler))
}
