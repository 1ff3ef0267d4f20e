package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"portfolio-backend/handler"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/integrations/inference"
	"portfolio-backend/internal/integrations/paramstore"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

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

	lambda.Start(h.Handle)
}
