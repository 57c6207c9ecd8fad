// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package reasoning defines the upstream-reasoning-provider boundary: the
// external collaborator that turns source text into RawClaim candidates.
// veritas never calls a Client itself — it only consumes RawClaim values a
// caller already obtained from one, preserving the untrusted-input boundary
// between whatever produced a claim and the engine that checks it.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package reasoning

import "context"

// Message is one turn of a conversation sent to a reasoning provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams holds parameters for a single generation call. nil
// pointer fields mean "use the provider's default".
type GenerationParams struct {
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// StreamEventType categorizes a streaming event.
type StreamEventType string

const (
	StreamEventToken StreamEventType = "token"
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one token or error emitted during ChatStream.
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Error   string
}

// StreamCallback is invoked for each StreamEvent. Returning a non-nil error
// aborts the stream.
type StreamCallback func(event StreamEvent) error

// Client is the contract any upstream reasoning provider must satisfy.
// Claude, GPT, Gemini, and Grok (the closed Provider enum a Claim's Origin
// can trace back to) are all realized through this same interface.
//
// Implementations must be safe for concurrent use.
type Client interface {
	// Generate produces a single completion from a prompt, with no
	// conversation context.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat conducts a conversation with message history and returns the
	// complete response.
	Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error)

	// ChatStream is like Chat but delivers the response incrementally via
	// callback, one event at a time, in generation order.
	ChatStream(ctx context.Context, messages []Message, params GenerationParams, callback StreamCallback) error
}

// RawClaim is an unverified assertion as extracted by a Client from source
// text. The engine's Extractor projects these into Claim values; nothing in
// this package ever constructs a Claim directly, since a RawClaim is, by
// definition, not yet checked.
type RawClaim struct {
	Text         string
	ClaimType    string
	CitationText string
	Confidence   float64
}
