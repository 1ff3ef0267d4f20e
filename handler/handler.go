// Package handler is the API Gateway surface shared by the Lambda entrypoint
// and the local development server.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/usecase"
)

const (
	pathSendMessage   = "/api/sendMessage"
	pathSaveData      = "/api/saveData"
	pathGetPrediction = "/api/getPrediction"

	correlationHeader = "X-Correlation-Id"
)

type RelayUseCase interface {
	Send(ctx context.Context, in usecase.SendInput) (usecase.SendOutput, error)
}

type StoreUseCase interface {
	Save(ctx context.Context, in usecase.SaveInput) (usecase.SaveOutput, error)
}

type PredictUseCase interface {
	Predict(ctx context.Context, in usecase.PredictInput) (map[string]any, error)
}

// Handler routes API Gateway proxy requests to the backing usecases.
type Handler struct {
	relay   RelayUseCase
	store   StoreUseCase
	predict PredictUseCase
}

type sendMessageRequest struct {
	Message          string               `json:"message"`
	SessionTimestamp string               `json:"sessionTimestamp"`
	ChatID           string               `json:"chatId"`
	CurrentMessages  []domain.ChatMessage `json:"currentMessages"`
}

type sendMessageResponse struct {
	Response string `json:"response"`
}

type saveDataRequest struct {
	Table string         `json:"table"`
	Data  map[string]any `json:"data"`
}

type saveDataResponse struct {
	Message string `json:"message"`
}

type predictionRequest struct {
	Ticker    string  `json:"ticker"`
	DaysAhead float64 `json:"daysAhead"`
	ModelType string  `json:"modelType"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(relay RelayUseCase, store StoreUseCase, predict PredictUseCase) (*Handler, error) {
	if relay == nil {
		return nil, errors.New("handler: relay usecase must not be nil")
	}
	if store == nil {
		return nil, errors.New("handler: store usecase must not be nil")
	}
	if predict == nil {
		return nil, errors.New("handler: predict usecase must not be nil")
	}
	return &Handler{relay: relay, store: store, predict: predict}, nil
}

// Handle dispatches one API Gateway proxy request.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cid := correlationID(req.Headers)

	if req.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"}, cid), nil
	}

	switch strings.TrimRight(req.Path, "/") {
	case pathSendMessage:
		return h.handleSendMessage(ctx, req.Body, cid), nil
	case pathSaveData:
		return h.handleSaveData(ctx, req.Body, cid), nil
	case pathGetPrediction:
		return h.handleGetPrediction(ctx, req.Body, cid), nil
	default:
		return respond(http.StatusNotFound, errorResponse{Error: "Not found"}, cid), nil
	}
}

func (h *Handler) handleSendMessage(ctx context.Context, body, cid string) events.APIGatewayProxyResponse {
	var in sendMessageRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: "Invalid JSON in request body"}, cid)
	}

	sessionKey := in.SessionTimestamp
	if strings.TrimSpace(sessionKey) == "" {
		sessionKey = in.ChatID
	}

	out, err := h.relay.Send(ctx, usecase.SendInput{
		Message:         in.Message,
		SessionKey:      sessionKey,
		CurrentMessages: in.CurrentMessages,
	})
	if err != nil {
		return errorResult(pathSendMessage, err, cid)
	}
	return respond(http.StatusOK, sendMessageResponse{Response: out.Response}, cid)
}

func (h *Handler) handleSaveData(ctx context.Context, body, cid string) events.APIGatewayProxyResponse {
	var in saveDataRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: "Invalid JSON in request body"}, cid)
	}

	out, err := h.store.Save(ctx, usecase.SaveInput{Table: in.Table, Data: in.Data})
	if err != nil {
		return errorResult(pathSaveData, err, cid)
	}
	return respond(http.StatusOK, saveDataResponse{Message: out.Message}, cid)
}

func (h *Handler) handleGetPrediction(ctx context.Context, body, cid string) events.APIGatewayProxyResponse {
	var in predictionRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return respond(http.StatusBadRequest, errorResponse{Error: "Invalid JSON in request body"}, cid)
	}

	out, err := h.predict.Predict(ctx, usecase.PredictInput{
		Ticker: in.Ticker,
		// JSON numbers arrive as float64; round rather than truncate so a
		// fractional daysAhead lands on the nearest whole day.
		DaysAhead: int(math.Round(in.DaysAhead)),
		ModelType: in.ModelType,
	})
	if err != nil {
		return errorResult(pathGetPrediction, err, cid)
	}
	return respond(http.StatusOK, out, cid)
}

// errorResult maps a usecase error to the wire: validation failures become
// 400s, everything else a 500 with the user-safe message. Detail stays in
// the logs.
func errorResult(path string, err error, cid string) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		slog.Error("request failed", "path", path, "correlationId", cid, "err", err)
		return respond(http.StatusInternalServerError, errorResponse{Error: "Internal server error"}, cid)
	}

	status := http.StatusInternalServerError
	if ucErr.Code == usecase.ErrorInvalidInput {
		status = http.StatusBadRequest
	} else {
		slog.Error("request failed", "path", path, "correlationId", cid,
			"code", string(ucErr.Code), "reason", ucErr.Reason, "err", ucErr.Err)
	}

	msg := ucErr.Public
	if msg == "" {
		msg = "Internal server error"
	}
	return respond(status, errorResponse{Error: msg}, cid)
}

func respond(status int, body any, cid string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		raw = []byte(`{"error":"Internal server error"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: cid,
		},
		Body: string(raw),
	}
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
