package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	return New(Config{
		BaseURL:        url,
		APIKey:         "test-key",
		MaxPromptChars: 100,
		Timeout:        2 * time.Second,
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		w.Write([]byte(`{"data":[{"url":"https://cdn.example/img.png"}]}`))
	}))
	defer srv.Close()

	ref, err := testClient(t, srv.URL).Generate(context.Background(), "a bottle on a mountain")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", ref.URL)
	assert.False(t, ref.Placeholder)
}

func TestGenerateTruncatesLongPrompt(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data":[{"url":"https://cdn.example/img.png"}]}`))
	}))
	defer srv.Close()

	long := strings.Repeat("x", 500)
	ref, err := testClient(t, srv.URL).Generate(context.Background(), long)
	require.NoError(t, err)
	assert.Len(t, got.Prompt, 100)
	assert.Len(t, ref.Prompt, 100)
}

func TestGenerateFallsBackToPlaceholder(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ref, err := testClient(t, srv.URL).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, PlaceholderURL, ref.URL)
	assert.True(t, ref.Placeholder)
}

func TestGenerateClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	ref, err := testClient(t, srv.URL).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, ref.Placeholder)
}
