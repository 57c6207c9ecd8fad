// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package veritas

import "sync"

// ClaimLedger is the request-scoped indexed collection of claims. A single
// Ledger instance is owned by one request for its entire lifetime (Design
// Note: "global mutable singletons" — the source's module-level singletons
// are refactored here into per-request instances with no shared state
// across requests).
type ClaimLedger interface {
	AddClaim(c *Claim)
	ByID(id string) (*Claim, bool)
	ByTaskID(taskID string) []*Claim
	ByTypeAndDocument(t ClaimType, documentName string) []*Claim
	All() []*Claim
	AddContradiction(c *Contradiction)
	Contradictions() []*Contradiction
	ContradictionByID(id string) (*Contradiction, bool)
}

// Ledger is the concrete, mutex-protected ClaimLedger implementation.
// Reads may run concurrently with other reads; AddClaim/AddContradiction
// serialize against all other ledger operations.
type Ledger struct {
	mu             sync.RWMutex
	claims         map[string]*Claim
	order          []string // insertion order, for deterministic All()
	byTask         map[string][]string
	byTypeDoc      map[string][]string
	contradictions map[string]*Contradiction
	contraOrder    []string
}

// NewLedger returns an empty Ledger ready for one request's lifetime.
func NewLedger() *Ledger {
	return &Ledger{
		claims:         make(map[string]*Claim),
		byTask:         make(map[string][]string),
		byTypeDoc:      make(map[string][]string),
		contradictions: make(map[string]*Contradiction),
	}
}

func typeDocKey(t ClaimType, doc string) string {
	return string(t) + "\x00" + doc
}

// AddClaim inserts or overwrites a claim by id. Safe for concurrent use.
func (l *Ledger) AddClaim(c *Claim) {
	if c == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.claims[c.ID]; !exists {
		l.order = append(l.order, c.ID)
	}
	l.claims[c.ID] = c

	if c.TaskID != "" {
		l.byTask[c.TaskID] = appendUnique(l.byTask[c.TaskID], c.ID)
	}
	key := typeDocKey(c.ClaimType, c.Source.DocumentName)
	l.byTypeDoc[key] = appendUnique(l.byTypeDoc[key], c.ID)
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// ByID looks up a claim by its unique id.
func (l *Ledger) ByID(id string) (*Claim, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.claims[id]
	return c, ok
}

// ByTaskID returns all claims sharing a grouping task id, in insertion order.
func (l *Ledger) ByTaskID(taskID string) []*Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.byTask[taskID]
	out := make([]*Claim, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.claims[id])
	}
	return out
}

// ByTypeAndDocument returns all claims of a given type attributed to a
// given document, in insertion order.
func (l *Ledger) ByTypeAndDocument(t ClaimType, documentName string) []*Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.byTypeDoc[typeDocKey(t, documentName)]
	out := make([]*Claim, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.claims[id])
	}
	return out
}

// All returns every claim in the ledger, in stable insertion order.
func (l *Ledger) All() []*Claim {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Claim, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.claims[id])
	}
	return out
}

// AddContradiction records a contradiction and appends its id onto both
// referenced claims' Contradictions list.
func (l *Ledger) AddContradiction(c *Contradiction) {
	if c == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.contradictions[c.ID]; !exists {
		l.contraOrder = append(l.contraOrder, c.ID)
	}
	l.contradictions[c.ID] = c

	if a, ok := l.claims[c.ClaimPairA]; ok {
		a.Contradictions = appendUnique(a.Contradictions, c.ID)
	}
	if b, ok := l.claims[c.ClaimPairB]; ok {
		b.Contradictions = appendUnique(b.Contradictions, c.ID)
	}
}

// Contradictions returns every contradiction, in stable insertion order.
func (l *Ledger) Contradictions() []*Contradiction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Contradiction, 0, len(l.contraOrder))
	for _, id := range l.contraOrder {
		out = append(out, l.contradictions[id])
	}
	return out
}

// ContradictionByID looks up a contradiction by id.
func (l *Ledger) ContradictionByID(id string) (*Contradiction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.contradictions[id]
	return c, ok
}

var _ ClaimLedger = (*Ledger)(nil)
