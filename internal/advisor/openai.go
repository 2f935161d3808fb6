package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"upbit-gpt-trader/internal/store"
	"upbit-gpt-trader/internal/trace"
	"upbit-gpt-trader/internal/types"
)

const defaultOpenAIURL = "https://api.openai.com"

// ErrNoCompletion means the completion endpoint answered without any choice.
var ErrNoCompletion = errors.New("no completion choices in response")

// systemPrompt frames the model as a scalping expert and pins the sentinel
// contract: exactly one of the three tokens on the first line of the answer.
const systemPrompt = "Let's assume you're a %s scalping trading expert. " +
	"Your transactions take place every 30 minutes. " +
	"Please answer based on the information about %s whether you want to buy, sell, or hold. " +
	"Please summarize the reason and tell me together. " +
	"Please put the word '" + types.BuySentinel + "' if you are going to buy it, " +
	"'" + types.SellSentinel + "' if you are going to sell it, " +
	"and '" + types.HoldSentinel + "' if you are going to have it on the first line."

// OpenAIAdvisor asks a chat-completion endpoint for a buy/sell/hold
// recommendation. Zero temperature, bounded output, no retry: a malformed or
// missing completion fails the whole request.
type OpenAIAdvisor struct {
	cfg     *store.Config
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenAIAdvisor(cfg *store.Config, apiKey string) *OpenAIAdvisor {
	return &OpenAIAdvisor{
		cfg:     cfg,
		apiKey:  apiKey,
		baseURL: defaultOpenAIURL,
		client:  &http.Client{Timeout: cfg.HTTPTimeout.Std()},
	}
}

// WithBaseURL points the advisor at a different completion endpoint. Tests
// use it with httptest servers.
func (a *OpenAIAdvisor) WithBaseURL(baseURL string) *OpenAIAdvisor {
	a.baseURL = baseURL
	return a
}

func (a *OpenAIAdvisor) Consult(ctx context.Context, summary, ticker string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "advisor.Consult")
	defer span.End()

	if a.apiKey == "" {
		return "", errors.New("advisory API key missing")
	}

	body := map[string]any{
		"model": a.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(systemPrompt, ticker, ticker)},
			{"role": "user", "content": summary},
		},
		"max_tokens":  a.cfg.LLM.MaxTokens,
		"temperature": a.cfg.LLM.Temperature,
	}
	bb, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion endpoint returned HTTP %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", ErrNoCompletion
	}

	// Verbatim: the caller both parses the sentinel out of this text and
	// echoes it back to the requester.
	return r.Choices[0].Message.Content, nil
}
