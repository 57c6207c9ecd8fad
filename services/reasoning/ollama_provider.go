// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reasoning

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// OllamaClient implements Client against a self-hosted Ollama server, for
// deployments that route reasoning through a local model instead of a
// managed API. ChatStream rate-limits callback invocations so a fast local
// model cannot overwhelm a slow downstream consumer.
type OllamaClient struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
}

// NewOllamaClient builds a client from OLLAMA_BASE_URL (required) and
// OLLAMA_MODEL (defaulting to gpt-oss). ratePerSecond limits ChatStream
// callback invocations; 0 disables the limiter.
func NewOllamaClient(ratePerSecond float64) (*OllamaClient, error) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	model := os.Getenv("OLLAMA_MODEL")
	if baseURL == "" {
		return nil, fmt.Errorf("reasoning: OLLAMA_BASE_URL is missing")
	}
	if model == "" {
		slog.Warn("OLLAMA_MODEL not set, defaulting", "model", "gpt-oss")
		model = "gpt-oss"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}

	return &OllamaClient{
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		baseURL:     baseURL,
		model:       model,
		rateLimiter: limiter,
	}, nil
}

var _ Client = (*OllamaClient)(nil)

func (o *OllamaClient) toOllamaMessages(messages []Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (o *OllamaClient) options(params GenerationParams) map[string]interface{} {
	options := make(map[string]interface{})
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		options["stop"] = params.Stop
	}
	return options
}

// Generate implements Client.
func (o *OllamaClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	return o.Chat(ctx, []Message{{Role: "user", Content: prompt}}, params)
}

// Chat implements Client against Ollama's /api/chat endpoint with streaming
// disabled, collecting the single response message.
func (o *OllamaClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	payload := ollamaChatRequest{
		Model:    o.model,
		Messages: o.toOllamaMessages(messages),
		Stream:   false,
		Options:  o.options(params),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("reasoning: marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("reasoning: build ollama request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoning: ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("reasoning: parse ollama response: %w", err)
	}
	if apiResp.Error != "" {
		return "", fmt.Errorf("reasoning: ollama error: %s", apiResp.Error)
	}
	return apiResp.Message.Content, nil
}

// ChatStream implements Client against Ollama's newline-delimited JSON
// streaming transport, rate-limiting callback delivery when configured.
func (o *OllamaClient) ChatStream(ctx context.Context, messages []Message, params GenerationParams, callback StreamCallback) error {
	payload := ollamaChatRequest{
		Model:    o.model,
		Messages: o.toOllamaMessages(messages),
		Stream:   true,
		Options:  o.options(params),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("reasoning: marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reasoning: build ollama request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		_ = callback(StreamEvent{Type: StreamEventError, Error: err.Error()})
		return fmt.Errorf("reasoning: ollama stream request failed: %w", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			_ = callback(StreamEvent{Type: StreamEventError, Error: chunk.Error})
			return fmt.Errorf("reasoning: ollama stream error: %s", chunk.Error)
		}
		if chunk.Message.Content == "" {
			continue
		}
		if o.rateLimiter != nil {
			if err := o.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("reasoning: ollama stream rate limiter: %w", err)
			}
		}
		if cbErr := callback(StreamEvent{Type: StreamEventToken, Content: chunk.Message.Content}); cbErr != nil {
			return cbErr
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reasoning: ollama stream read failed: %w", err)
	}
	return nil
}
