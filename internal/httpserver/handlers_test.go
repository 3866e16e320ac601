package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ronappleton/campaign-engine/internal/agent"
	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/config"
	"github.com/ronappleton/campaign-engine/internal/image"
	"github.com/ronappleton/campaign-engine/internal/quality"
	"github.com/ronappleton/campaign-engine/internal/workflow"
)

const briefJSON = `{
  "product": "EcoBottle",
  "client": "GreenCo",
  "target_audience": "urban commuters",
  "goals": ["awareness"],
  "key_features": ["insulated"],
  "budget": "50k",
  "timeline": "6 weeks",
  "color_scheme": "forest green"
}`

// instantLLM answers every prompt immediately with content that clears the
// quality gate and HTML validation, so runs finish within a poll or two.
type instantLLM struct {
	block chan struct{}
}

func (f *instantLLM) Complete(ctx context.Context, messages []campaign.Message, _ float64, _ int) (string, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	system := messages[0].Content
	switch {
	case strings.Contains(system, "review team"):
		return "Excellent work, approved.", nil
	case strings.Contains(system, "front-end developer"), strings.Contains(system, "HTML validator"):
		return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Campaign</title>
</head>
<body><h1>Campaign</h1></body>
</html>`, nil
	default:
		return "generated content", nil
	}
}

type instantImages struct{}

func (instantImages) Generate(_ context.Context, prompt string) (image.Ref, error) {
	return image.Ref{URL: "https://cdn.example/hero.png", Prompt: prompt}, nil
}

func newTestServer(t *testing.T, llm agent.Completer) (*Server, *workflow.Service) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sched := workflow.NewScheduler(
		agent.NewRoster(llm, instantImages{}),
		quality.NewChecker(quality.DefaultWeights(), 80),
		workflow.Policy{},
		workflow.NopMetrics{},
		logger,
	)
	svc := workflow.NewService(
		workflow.NewMemoryStore(),
		sched,
		workflow.NewNotifier("", ""),
		workflow.ServiceConfig{Workers: 2},
		logger,
	)
	svc.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc.Stop(ctx)
	})
	return NewServer(config.Default(), svc, logger), svc
}

func submitRun(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/campaigns", strings.NewReader(briefJSON)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var info workflow.RunInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.NotEmpty(t, info.ID)
	return info.ID
}

func waitRunTerminal(t *testing.T, h http.Handler, id string) workflow.RunInfo {
	t.Helper()
	var info workflow.RunInfo
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+id, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			return false
		}
		return info.Status.Terminal()
	}, 10*time.Second, 10*time.Millisecond)
	return info
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSubmitAndFetchResult(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	h := srv.Handler()

	id := submitRun(t, h)
	info := waitRunTerminal(t, h, id)
	assert.Equal(t, campaign.StatusComplete, info.Status)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+id+"/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var state campaign.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, id, state.RunID)
	assert.NotEmpty(t, state.Artifacts)

	var payload struct {
		Analytics campaign.Analytics `json:"analytics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Analytics.Iterations)
	assert.NotEmpty(t, payload.Analytics.ArtifactSizes)
}

func TestSubmitInvalidBrief(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/campaigns",
		strings.NewReader(`{"product": "EcoBottle"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid campaign brief", body["error"])
}

func TestSubmitMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/campaigns",
		strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultBeforeTerminalConflicts(t *testing.T) {
	block := make(chan struct{})
	srv, _ := newTestServer(t, &instantLLM{block: block})
	defer close(block)
	h := srv.Handler()

	id := submitRun(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+id+"/result", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListCampaigns(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	h := srv.Handler()

	id := submitRun(t, h)
	waitRunTerminal(t, h, id)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []workflow.RunInfo `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, id, body.Items[0].ID)
}

func TestInteractionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	h := srv.Handler()

	id := submitRun(t, h)
	waitRunTerminal(t, h, id)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+id+"/interactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []campaign.Interaction `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Items)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/v1/campaigns/%s/interactions?limit=3", id), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 3)
}

func TestInteractionStreamFinishedRun(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	h := srv.Handler()

	id := submitRun(t, h)
	waitRunTerminal(t, h, id)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+id+"/interactions/stream", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, rec.Body.String(), "data: ")
}

func TestCancelEndpoint(t *testing.T) {
	block := make(chan struct{})
	srv, _ := newTestServer(t, &instantLLM{block: block})
	defer close(block)
	h := srv.Handler()

	id := submitRun(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/campaigns/"+id+"/cancel", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	info := waitRunTerminal(t, h, id)
	assert.Equal(t, campaign.StatusCanceled, info.Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/campaigns/nope/cancel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/agents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, campaign.TotalSteps)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &instantLLM{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/campaigns", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
