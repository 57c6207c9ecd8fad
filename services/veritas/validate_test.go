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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequest_RejectsSourceMissingName(t *testing.T) {
	req := Request{
		Documents: []DocumentClaims{
			{Source: Source{Provider: ProviderInternal}},
		},
	}

	err := validateRequest(req)

	require := assert.New(t)
	require.NotNil(err)
	require.Equal(KindInvalidInput, err.Kind)
	require.True(err.Kind.Fatal())
}

func TestValidateRequest_AcceptsWellFormedSources(t *testing.T) {
	req := Request{
		Documents: []DocumentClaims{
			{Source: Source{Name: "doc-1", Provider: ProviderClaude}},
		},
		Sources: map[string]Source{
			"doc-2": {Name: "doc-2", Provider: ProviderGPT},
		},
	}

	assert.Nil(t, validateRequest(req))
}

func TestValidateRequest_RejectsMapSourceMissingProvider(t *testing.T) {
	req := Request{
		Sources: map[string]Source{
			"doc-1": {Name: "doc-1"},
		},
	}

	err := validateRequest(req)
	assert.NotNil(t, err)
}
