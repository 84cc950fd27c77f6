// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/tierroute/internal/router"
)

// TestParseVerdict checks that only the high keyword escalates.
func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		wantKind VerdictKind
		want     router.Classification
	}{
		{"high", "opus", VerdictResolved, router.ClassHigh},
		{"high_padded_upper", "  OPUS\n", VerdictResolved, router.ClassHigh},
		{"high_in_sentence", "I would pick Opus here.", VerdictResolved, router.ClassHigh},
		{"low", "sonnet", VerdictResolved, router.ClassLow},
		{"low_quoted", `"Sonnet"`, VerdictResolved, router.ClassLow},
		{"both_high_wins", "sonnet or opus", VerdictResolved, router.ClassHigh},
		{"empty", "", VerdictDefaulted, router.ClassLow},
		{"whitespace", " \t\n ", VerdictDefaulted, router.ClassLow},
		{"malformed", "¯\\_(ツ)_/¯", VerdictDefaulted, router.ClassLow},
		{"other_model_name", "haiku", VerdictDefaulted, router.ClassLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.answer, DefaultKeywords)
			assert.Equal(t, tt.wantKind, v.Kind)
			assert.Equal(t, tt.want, v.Class)
			assert.False(t, v.Failed())
			assert.NoError(t, v.Err)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestParseVerdict_CustomKeywords(t *testing.T) {
	kw := Keywords{High: "BIG", Low: "small"}

	assert.Equal(t, router.ClassHigh, ParseVerdict("big", kw).Class)
	assert.Equal(t, VerdictResolved, ParseVerdict("small", kw).Kind)
	assert.Equal(t, VerdictDefaulted, ParseVerdict("opus", kw).Kind)
	assert.Equal(t, router.ClassLow, ParseVerdict("opus", kw).Class)
}

func TestParseVerdict_EmptyKeywordsFallBack(t *testing.T) {
	v := ParseVerdict("opus", Keywords{})
	assert.Equal(t, router.ClassHigh, v.Class)

	v = ParseVerdict("sonnet", Keywords{})
	assert.Equal(t, VerdictDefaulted, v.Kind, "no low keyword configured")
	assert.Equal(t, router.ClassLow, v.Class)
}

func TestVerdictKindString(t *testing.T) {
	assert.Equal(t, "resolved", VerdictResolved.String())
	assert.Equal(t, "defaulted", VerdictDefaulted.String())
	assert.Equal(t, "failed", VerdictFailed.String())
	assert.Equal(t, "VerdictKind(7)", VerdictKind(7).String())
}
