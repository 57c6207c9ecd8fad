// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package patterns is a declarative, YAML-driven registry of the keyword
// and number-unit tables the contradiction detector and the regulatory
// gates depend on. It mirrors the policy_engine classification-file
// pattern: an embedded YAML document is unmarshaled once, validated, and
// served to callers through compiled, ready-to-use lookup structures so
// that tuning the detection vocabulary never requires a code change.
package patterns

import (
	"fmt"
	"regexp"
)

// NumberUnit describes one recognized duration unit suffix and its
// normalization factor to days.
type NumberUnit struct {
	Suffix         string `yaml:"suffix"`
	UnitKind       string `yaml:"unitKind"`
	MultiplierDays float64 `yaml:"multiplierDays"`
}

// patternFile is the shape of the embedded YAML document.
type patternFile struct {
	RegulatoryKeywords []string   `yaml:"regulatoryKeywords"`
	PositivePolarity   []string   `yaml:"positivePolarity"`
	NegativePolarity   []string   `yaml:"negativePolarity"`
	LogicalOpposites   [][]string `yaml:"logicalOpposites"`
	StopWords          []string   `yaml:"stopWords"`
	NumberUnits        []NumberUnit `yaml:"numberUnits"`
}

func (f *patternFile) validate() error {
	if len(f.RegulatoryKeywords) == 0 {
		return fmt.Errorf("patterns: regulatoryKeywords must not be empty")
	}
	for _, pair := range f.LogicalOpposites {
		if len(pair) != 2 {
			return fmt.Errorf("patterns: logicalOpposites entries must have exactly two terms, got %v", pair)
		}
	}
	return nil
}

// opposite is a compiled logical-opposite pair with a precompiled
// word-boundary regex per term, avoiding recompilation on every claim pair.
type opposite struct {
	termA, termB string
	reA, reB     *regexp.Regexp
}

func compileWordBoundary(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}
