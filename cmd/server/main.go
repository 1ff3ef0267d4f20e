// Local development server exposing the same API surface as the Lambda.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"portfolio-backend/handler"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/httpapi"
	"portfolio-backend/internal/integrations/inference"
	"portfolio-backend/internal/integrations/paramstore"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/usecase"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), repository.Tables{
		ChatLog:    cfg.ChatLogTable,
		BugTickets: cfg.BugTicketsTable,
		Records:    cfg.RecordsTable,
	})
	if err != nil {
		slog.Error("failed to create repository client", "err", err)
		os.Exit(1)
	}

	infOpts := []inference.Option{
		inference.WithHTTPClient(&http.Client{Timeout: cfg.InferenceTimeout}),
	}
	switch {
	case cfg.AuthToken != "":
		infOpts = append(infOpts, inference.WithToken(cfg.AuthToken))
	case cfg.AuthTokenParam != "":
		ssmClient, psErr := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if psErr != nil {
			slog.Error("failed to create SSM client", "err", psErr)
			os.Exit(1)
		}
		infOpts = append(infOpts, inference.WithTokenParameter(ssmClient, cfg.AuthTokenParam))
	}
	inf := inference.NewClient(cfg.ChatEndpoint, cfg.PredictEndpoint, infOpts...)

	storeSvc, err := usecase.NewStoreService(repo)
	if err != nil {
		slog.Error("failed to create store service", "err", err)
		os.Exit(1)
	}
	relaySvc, err := usecase.NewRelayService(inf, storeSvc)
	if err != nil {
		slog.Error("failed to create relay service", "err", err)
		os.Exit(1)
	}
	predictSvc, err := usecase.NewPredictService(inf)
	if err != nil {
		slog.Error("failed to create predict service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(relaySvc, storeSvc, predictSvc)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	origins := strings.Split(getEnvDefault("ALLOWED_ORIGINS", "*"), ",")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(h, origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
