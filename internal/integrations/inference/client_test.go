package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val    string
	err    error
	onCall func() // optional; called on each GetParameter invocation
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

type capturedRequest struct {
	auth        string
	contentType string
	body        []byte
}

func newChatServer(t *testing.T, status int, respBody string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		captured.contentType = r.Header.Get("Content-Type")
		captured.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestChat_HappyPath(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, `{"response":"Hi there"}`)
	c := NewClient(srv.URL, "", WithToken("secret-token"))

	reply, err := c.Chat(context.Background(), "Hello")
	require.NoError(t, err)
	require.Equal(t, "Hi there", reply)

	require.Equal(t, "Bearer secret-token", captured.auth)
	require.Equal(t, "application/json", captured.contentType)
	require.JSONEq(t, `{"message":"Hello"}`, string(captured.body))
}

func TestChat_NotConfigured(t *testing.T) {
	c := NewClient("", "", WithToken("secret-token"))
	_, err := c.Chat(context.Background(), "Hello")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestChat_MissingToken(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusOK, `{"response":"unused"}`)
	c := NewClient(srv.URL, "")
	_, err := c.Chat(context.Background(), "Hello")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestChat_Non2xx_ReturnsHTTPStatusError(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusBadGateway, `{"error":"model loading"}`)
	c := NewClient(srv.URL, "", WithToken("secret-token"))

	_, err := c.Chat(context.Background(), "Hello")
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "model loading")
	require.Equal(t, http.StatusBadGateway, statusErr.HTTPStatusCode())
}

func TestChat_EmptyResponseField(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusOK, `{"other":"field"}`)
	c := NewClient(srv.URL, "", WithToken("secret-token"))

	_, err := c.Chat(context.Background(), "Hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty response")
}

func TestChat_MalformedResponse(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusOK, `not-json`)
	c := NewClient(srv.URL, "", WithToken("secret-token"))

	_, err := c.Chat(context.Background(), "Hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode chat response")
}

func TestChat_NetworkError(t *testing.T) {
	srv, _ := newChatServer(t, http.StatusOK, `{"response":"unused"}`)
	srv.Close()
	c := NewClient(srv.URL, "", WithToken("secret-token"))

	_, err := c.Chat(context.Background(), "Hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestPredict_HappyPath(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK,
		`{"predicted":150.25,"history":[148.0,149.5]}`)
	c := NewClient("", srv.URL, WithToken("secret-token"))

	out, err := c.Predict(context.Background(), PredictInputs{
		Ticker:    "AAPL",
		DaysAhead: 5,
		Model:     "linear",
		Start:     "2023-06-15",
		End:       "2024-06-15",
	})
	require.NoError(t, err)
	require.Equal(t, 150.25, out["predicted"])

	var payload struct {
		Inputs PredictInputs `json:"inputs"`
	}
	require.NoError(t, json.Unmarshal(captured.body, &payload))
	require.Equal(t, "AAPL", payload.Inputs.Ticker)
	require.Equal(t, 5, payload.Inputs.DaysAhead)
	require.Equal(t, "2023-06-15", payload.Inputs.Start)
}

func TestPredict_NotConfigured(t *testing.T) {
	c := NewClient("http://chat.example", "", WithToken("secret-token"))
	_, err := c.Predict(context.Background(), PredictInputs{Ticker: "AAPL"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestResolveToken_StaticTokenWins(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: "from-ssm", onCall: func() { calls++ }}
	c := NewClient("http://chat.example", "", WithToken("static"), WithTokenParameter(g, "/portfolio/auth-token"))

	token, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "static", token)
	require.Zero(t, calls)
}

func TestResolveToken_FetchedOnceFromParamStore(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: "from-ssm", onCall: func() { calls++ }}
	c := NewClient("http://chat.example", "", WithTokenParameter(g, "/portfolio/auth-token"))

	token, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from-ssm", token)
	require.Equal(t, 1, calls)

	// subsequent calls must never hit SSM again
	_, _ = c.resolveToken(context.Background())
	_, _ = c.resolveToken(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestResolveToken_ConcurrentCalls(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: "from-ssm", onCall: func() {
		calls++
		time.Sleep(5 * time.Millisecond) // widen the window for racing readers
	}}
	c := NewClient("http://chat.example", "", WithTokenParameter(g, "/portfolio/auth-token"))

	const workers = 8
	results := make(chan string, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := c.resolveToken(context.Background())
			results <- token
			errs <- err
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for token := range results {
		require.Equal(t, "from-ssm", token)
	}
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
}

func TestResolveToken_EmptyParameter(t *testing.T) {
	g := &fakeGetter{val: "  "}
	c := NewClient("http://chat.example", "", WithTokenParameter(g, "/portfolio/auth-token"))

	_, err := c.resolveToken(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestResolveToken_GetterError(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	c := NewClient("http://chat.example", "", WithTokenParameter(g, "/portfolio/auth-token"))

	_, err := c.resolveToken(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}
