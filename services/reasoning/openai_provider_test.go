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
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Chat_ParsesFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	client := newOpenAIClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL)
	out, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hello"}}, GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestOpenAIClient_Chat_ReturnsErrorOnNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini", "choices": []}`))
	}))
	defer srv.Close()

	client := newOpenAIClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL)
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hello"}}, GenerationParams{})
	require.Error(t, err)
}

func TestOpenAIClient_ChatStream_EmitsTokenPerDelta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/event-stream")
		flusher := w.(http.Flusher)
		chunks := []string{
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"hel"},"finish_reason":null}]}`,
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":null}]}`,
		}
		for _, c := range chunks {
			_, _ = w.Write([]byte("data: " + c + "\n\n"))
			flusher.Flush()
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer srv.Close()

	client := newOpenAIClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL)
	var tokens []string
	err := client.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenerationParams{}, func(e StreamEvent) error {
		if e.Type == StreamEventToken {
			tokens = append(tokens, e.Content)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, tokens)
}

func TestOpenAIClient_ChatStream_DeliversErrorEventOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newOpenAIClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL)
	var gotErrorEvent bool
	err := client.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenerationParams{}, func(e StreamEvent) error {
		if e.Type == StreamEventError {
			gotErrorEvent = true
		}
		return nil
	})

	require.Error(t, err)
	assert.True(t, gotErrorEvent)
}

// sanity check that the test helper above builds valid SSE framing, matching
// what the go-openai stream client expects to scan line by line.
func TestOpenAIStreamFraming_IsLineScannable(t *testing.T) {
	body := "data: {\"a\":1}\n\ndata: [DONE]\n\n"
	scanner := bufio.NewScanner(strings.NewReader(body))
	var lines int
	for scanner.Scan() {
		lines++
	}
	assert.Greater(t, lines, 0)
}
