package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTongyiClient(t *testing.T) {
	t.Run("generate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req TongyiRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, ModelQwenTurbo, req.Model)
			require.Len(t, req.Input.Messages, 1)
			assert.Equal(t, "Explain gravity", req.Input.Messages[0].Content)
			assert.Equal(t, "message", req.Parameters.ResultFormat)

			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"request_id":"r1","output":{"choices":[{"finish_reason":"stop","message":{"role":"assistant","content":"Gravity pulls things down."}}]},"usage":{"total_tokens":12}}`)
		}))
		defer server.Close()

		client, err := NewTongyiClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
		require.NoError(t, err)

		resp, err := client.Generate(context.Background(), "Explain gravity")
		require.NoError(t, err)
		assert.Equal(t, "Gravity pulls things down.", resp.Text)
		assert.Equal(t, 12, resp.TokenCount)
		assert.Equal(t, ModelQwenTurbo, client.Name())
	})

	t.Run("status codes mapped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"code":"Throttling","message":"slow down"}`)
		}))
		defer server.Close()

		client, err := NewTongyiClient(WithAPIKey("test-key"), WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, ErrCodeRateLimited, CodeOf(err))
		assert.Contains(t, err.Error(), "slow down")
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			io.WriteString(w, `{"output":{"text":"ok"}}`)
		}))
		defer server.Close()

		client, err := NewTongyiClient(WithAPIKey("k"), WithBaseURL(server.URL), WithMaxRetries(1))
		require.NoError(t, err)

		resp, err := client.Generate(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Text)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("no retry by default", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewTongyiClient(WithAPIKey("k"), WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, ErrCodeServerError, CodeOf(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("empty prompt", func(t *testing.T) {
		client, err := NewTongyiClient(WithAPIKey("k"))
		require.NoError(t, err)
		_, err = client.Generate(context.Background(), "")
		assert.Equal(t, ErrCodeEmptyPrompt, CodeOf(err))
	})
}

func TestOpenRouterClient(t *testing.T) {
	t.Run("generate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "Define photosynthesis")
			assert.Contains(t, string(body), ModelGPT35Turbo)

			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"openai/gpt-3.5-turbo",`+
				`"choices":[{"index":0,"message":{"role":"assistant","content":"Plants make food from light."},"finish_reason":"stop"}],`+
				`"usage":{"prompt_tokens":4,"completion_tokens":6,"total_tokens":10}}`)
		}))
		defer server.Close()

		client, err := NewOpenRouterClient(WithAPIKey("or-key"), WithBaseURL(server.URL))
		require.NoError(t, err)

		resp, err := client.Generate(context.Background(), "Define photosynthesis")
		require.NoError(t, err)
		assert.Equal(t, "Plants make food from light.", resp.Text)
		assert.Equal(t, 10, resp.TokenCount)
		assert.Equal(t, ModelGPT35Turbo, resp.ModelName)
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"message":"No auth credentials found","code":401}}`)
		}))
		defer server.Close()

		client, err := NewOpenRouterClient(WithAPIKey("bad"), WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidAPIKey, CodeOf(err))
	})

	t.Run("single call per generate", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"upstream failed","code":500}}`)
		}))
		defer server.Close()

		client, err := NewOpenRouterClient(WithAPIKey("k"), WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, ErrCodeServerError, CodeOf(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("client errors never retried", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"message":"No auth credentials found","code":401}}`)
		}))
		defer server.Close()

		client, err := NewOpenRouterClient(WithAPIKey("bad"), WithBaseURL(server.URL), WithMaxRetries(2))
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidAPIKey, CodeOf(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client, err := NewOpenRouterClient(WithAPIKey("k"), WithBaseURL(server.URL))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = client.Generate(ctx, "hi")
		require.Error(t, err)
		assert.Equal(t, ErrCodeTimeout, CodeOf(err))
	})
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NewLLMError(ErrCodeServerError, "boom")))
	assert.True(t, Retryable(NewLLMError(ErrCodeRateLimited, "slow")))
	assert.False(t, Retryable(NewLLMError(ErrCodeInvalidAPIKey, "bad key")))
	assert.False(t, Retryable(NewLLMError(ErrCodeInvalidRequest, "bad")))
	assert.False(t, Retryable(context.Canceled))
}

func TestGeminiText(t *testing.T) {
	assert.Empty(t, geminiText(nil))
	assert.Empty(t, geminiText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Mitosis "), genai.Text("splits cells.")}},
		}},
	}
	assert.Equal(t, "Mitosis splits cells.", geminiText(resp))
}
