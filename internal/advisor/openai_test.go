package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"upbit-gpt-trader/internal/store"
	"upbit-gpt-trader/internal/types"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func newTestAdvisor(t *testing.T, handler http.HandlerFunc) *OpenAIAdvisor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIAdvisor(store.DefaultConfig(), "test-key").WithBaseURL(srv.URL)
}

func TestConsult(t *testing.T) {
	var got completionRequest
	var auth string
	adv := newTestAdvisor(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"BBUUYY\nMomentum is strong."}}]}`))
	})

	reply, err := adv.Consult(context.Background(), "market summary here", "BTC")
	if err != nil {
		t.Fatalf("Consult failed: %v", err)
	}
	if reply != "BBUUYY\nMomentum is strong." {
		t.Errorf("Expected completion content verbatim, got %q", reply)
	}

	if auth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", auth)
	}
	if got.Model != "gpt-3.5-turbo" {
		t.Errorf("Expected model gpt-3.5-turbo, got %s", got.Model)
	}
	if got.MaxTokens != 2000 {
		t.Errorf("Expected max_tokens 2000, got %d", got.MaxTokens)
	}
	if got.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", got.Temperature)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" {
		t.Errorf("Expected system message first, got %s", got.Messages[0].Role)
	}
	for _, sentinel := range []string{types.BuySentinel, types.SellSentinel, types.HoldSentinel} {
		if !strings.Contains(got.Messages[0].Content, sentinel) {
			t.Errorf("Expected system prompt to name %s", sentinel)
		}
	}
	if !strings.Contains(got.Messages[0].Content, "BTC scalping trading expert") {
		t.Errorf("Expected system prompt to name the ticker, got %q", got.Messages[0].Content)
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "market summary here" {
		t.Errorf("Expected the summary as the user message, got %+v", got.Messages[1])
	}
}

func TestConsultNoChoices(t *testing.T) {
	adv := newTestAdvisor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := adv.Consult(context.Background(), "summary", "BTC")
	if !errors.Is(err, ErrNoCompletion) {
		t.Errorf("Expected ErrNoCompletion, got %v", err)
	}
}

func TestConsultErrorStatus(t *testing.T) {
	adv := newTestAdvisor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	})

	if _, err := adv.Consult(context.Background(), "summary", "BTC"); err == nil {
		t.Error("Expected error for non-2xx completion response")
	}
}

func TestConsultMissingKey(t *testing.T) {
	adv := NewOpenAIAdvisor(store.DefaultConfig(), "")
	if _, err := adv.Consult(context.Background(), "summary", "BTC"); err == nil {
		t.Error("Expected error when the API key is missing")
	}
}

func TestNoopAdvisorHolds(t *testing.T) {
	adv := NewNoopAdvisor()
	reply, err := adv.Consult(context.Background(), "summary", "BTC")
	if err != nil {
		t.Fatalf("Consult failed: %v", err)
	}
	if !strings.Contains(reply, types.HoldSentinel) {
		t.Errorf("Expected hold sentinel, got %q", reply)
	}
}
