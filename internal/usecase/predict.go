package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"portfolio-backend/internal/integrations/inference"
)

const (
	defaultDaysAhead = 1
	defaultModelType = "linear"
)

// PredictClient is the inference dependency of the prediction relay.
type PredictClient interface {
	Predict(ctx context.Context, inputs inference.PredictInputs) (map[string]any, error)
}

// PredictService forwards prediction requests to the model host with a
// derived one-year date window and passes the response through.
type PredictService struct {
	client PredictClient
}

type PredictInput struct {
	Ticker    string
	DaysAhead int
	ModelType string
}

func NewPredictService(client PredictClient) (*PredictService, error) {
	if client == nil {
		return nil, errors.New("usecase: predict client must not be nil")
	}
	return &PredictService{client: client}, nil
}

func (s *PredictService) Predict(ctx context.Context, in PredictInput) (map[string]any, error) {
	ticker := strings.TrimSpace(in.Ticker)
	if ticker == "" {
		return nil, newError(ErrorInvalidInput, "missing_ticker", "Ticker is required", nil)
	}

	daysAhead := in.DaysAhead
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}
	model := strings.TrimSpace(in.ModelType)
	if model == "" {
		model = defaultModelType
	}

	end := nowFunc().UTC()
	start := end.AddDate(-1, 0, 0)

	out, err := s.client.Predict(ctx, inference.PredictInputs{
		Ticker:    ticker,
		DaysAhead: daysAhead,
		Model:     model,
		Start:     start.Format("2006-01-02"),
		End:       end.Format("2006-01-02"),
	})
	if err != nil {
		if errors.Is(err, inference.ErrNotConfigured) {
			return nil, newError(ErrorNotConfigured, "predict_not_configured",
				"Prediction endpoint is not configured", err)
		}
		return nil, newError(ErrorUpstream, "predict_error", upstreamErrorMessage(err), err)
	}

	return normalizePrediction(out), nil
}

// normalizePrediction aligns older model-host field names with the ones the
// demo page reads, without dropping anything from the response.
func normalizePrediction(out map[string]any) map[string]any {
	if out == nil {
		return map[string]any{}
	}
	if hist, ok := out["historicalData"]; ok {
		if _, present := out["history"]; !present {
			out["history"] = hist
		}
	}
	if pred, ok := out["prediction"]; ok {
		_, hasPredicted := out["predicted"]
		_, hasPrice := out["predictedPrice"]
		if !hasPredicted && !hasPrice {
			out["predicted"] = pred
		}
	}
	return out
}

// upstreamErrorMessage surfaces the model host's own error message when its
// response body carried one, else a generic message.
func upstreamErrorMessage(err error) string {
	var statusErr *inference.HTTPStatusError
	if errors.As(err, &statusErr) {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(statusErr.Body), &body) == nil && strings.TrimSpace(body.Error) != "" {
			return body.Error
		}
	}
	return "Failed to get prediction from the inference endpoint"
}

var nowFunc = time.Now
