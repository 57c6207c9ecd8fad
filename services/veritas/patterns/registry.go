// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package patterns

import (
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var embeddedPatterns []byte

// Registry serves the compiled pattern set to the contradiction detector
// and the regulatory gate. A Registry is immutable after New and safe for
// concurrent use.
type Registry struct {
	regulatoryKeywords []string
	positivePolarity   []string
	negativePolarity   []string
	opposites          []opposite
	stopWords          map[string]bool
	numberUnits        []NumberUnit

	dollarPattern  *regexp.Regexp
	percentPattern *regexp.Regexp
	barePattern    *regexp.Regexp
	unitPattern    *regexp.Regexp
}

// New loads and compiles the embedded pattern file.
func New() (*Registry, error) {
	var pf patternFile
	if err := yaml.Unmarshal(embeddedPatterns, &pf); err != nil {
		return nil, fmt.Errorf("patterns: failed to unmarshal embedded pattern file: %w", err)
	}
	if err := pf.validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		regulatoryKeywords: pf.RegulatoryKeywords,
		positivePolarity:   pf.PositivePolarity,
		negativePolarity:   pf.NegativePolarity,
		numberUnits:        pf.NumberUnits,
		stopWords:          make(map[string]bool, len(pf.StopWords)),
	}
	for _, w := range pf.StopWords {
		r.stopWords[strings.ToLower(w)] = true
	}
	for _, pair := range pf.LogicalOpposites {
		r.opposites = append(r.opposites, opposite{
			termA: pair[0],
			termB: pair[1],
			reA:   compileWordBoundary(pair[0]),
			reB:   compileWordBoundary(pair[1]),
		})
	}

	suffixes := make([]string, 0, len(pf.NumberUnits))
	for _, u := range pf.NumberUnits {
		suffixes = append(suffixes, regexp.QuoteMeta(u.Suffix))
	}
	r.unitPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(` + strings.Join(suffixes, "|") + `)s?\b`)
	r.dollarPattern = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)\s*(million|billion|thousand|k|m|b)?\b`)
	r.percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	r.barePattern = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)

	return r, nil
}

// MustNew is New but panics on error; used for package-level default
// instances where a malformed embedded file is a build-time defect.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// RegulatoryKeywords returns the configured regulatory keyword list.
func (r *Registry) RegulatoryKeywords() []string { return r.regulatoryKeywords }

// HasRegulatoryKeyword reports whether s (case-insensitive) contains any
// configured regulatory keyword, and which one matched first.
func (r *Registry) HasRegulatoryKeyword(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, kw := range r.regulatoryKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// NumericValue is an extracted number normalized to a base unit.
type NumericValue struct {
	Raw      float64
	UnitKind string // "duration" (days), "currency" (USD), "ratio"
	Base     float64
}

// ExtractNumber scans text with a priority-ordered pattern set (duration
// units, dollar amounts, percentages, bare numbers) and returns the first
// match normalized to its base unit, mirroring §4.3 rule 1.
func (r *Registry) ExtractNumber(text string) (NumericValue, bool) {
	if m := r.unitPattern.FindStringSubmatch(text); m != nil {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return NumericValue{}, false
		}
		mult := 1.0
		suffix := strings.ToLower(m[2])
		for _, u := range r.numberUnits {
			if strings.ToLower(u.Suffix) == suffix {
				mult = u.MultiplierDays
				break
			}
		}
		return NumericValue{Raw: val, UnitKind: "duration", Base: val * mult}, true
	}

	if m := r.dollarPattern.FindStringSubmatch(text); m != nil {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return NumericValue{}, false
		}
		mult := 1.0
		switch strings.ToLower(m[2]) {
		case "thousand", "k":
			mult = 1_000
		case "million", "m":
			mult = 1_000_000
		case "billion", "b":
			mult = 1_000_000_000
		}
		return NumericValue{Raw: val, UnitKind: "currency", Base: val * mult}, true
	}

	if m := r.percentPattern.FindStringSubmatch(text); m != nil {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return NumericValue{}, false
		}
		return NumericValue{Raw: val, UnitKind: "ratio", Base: val / 100.0}, true
	}

	if m := r.barePattern.FindStringSubmatch(text); m != nil {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return NumericValue{}, false
		}
		return NumericValue{Raw: val, UnitKind: "ratio", Base: val}, true
	}

	return NumericValue{}, false
}

// MatchesPositivePolarity reports whether text contains a configured
// positive-assertion keyword.
func (r *Registry) MatchesPositivePolarity(text string) bool {
	return containsAny(text, r.positivePolarity)
}

// MatchesNegativePolarity reports whether text contains a configured
// negated-assertion keyword.
func (r *Registry) MatchesNegativePolarity(text string) bool {
	return containsAny(text, r.negativePolarity)
}

func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// LogicalOpposite reports whether textA/textB contain opposite terms from
// the configured logical-opposite table, returning the matched pair.
func (r *Registry) LogicalOpposite(textA, textB string) (string, string, bool) {
	for _, o := range r.opposites {
		aHasA, bHasB := o.reA.MatchString(textA), o.reB.MatchString(textB)
		aHasB, bHasA := o.reB.MatchString(textA), o.reA.MatchString(textB)
		if (aHasA && bHasB) || (aHasB && bHasA) {
			return o.termA, o.termB, true
		}
	}
	return "", "", false
}

// Keywords splits text into lowercase alphanumeric tokens longer than two
// characters, with stop words removed, for Jaccard similarity comparisons.
func (r *Registry) Keywords(text string) map[string]bool {
	out := make(map[string]bool)
	var b strings.Builder
	flush := func() {
		if b.Len() > 2 {
			w := strings.ToLower(b.String())
			if !r.stopWords[w] {
				out[w] = true
			}
		}
		b.Reset()
	}
	for _, ch := range text {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// JaccardSimilarity computes |K1 ∩ K2| / |K1 ∪ K2| over two keyword sets.
func JaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	union := make(map[string]bool, len(a)+len(b))
	for k := range a {
		union[k] = true
		if b[k] {
			intersection++
		}
	}
	for k := range b {
		union[k] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
