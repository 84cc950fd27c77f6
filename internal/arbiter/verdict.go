// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"fmt"
	"strings"

	"github.com/jeranaias/tierroute/internal/router"
)

// ============================================================================
// VERDICT
// ============================================================================

// VerdictKind tags how an arbiter verdict was reached.
type VerdictKind int

const (
	// VerdictResolved means the model named a tier keyword.
	VerdictResolved VerdictKind = iota
	// VerdictDefaulted means the model answered but the answer named no
	// keyword; the verdict falls back to low.
	VerdictDefaulted
	// VerdictFailed means no usable answer was obtained; the verdict falls
	// back to low and Err carries the cause.
	VerdictFailed
)

// String returns the lowercase name of the kind.
func (k VerdictKind) String() string {
	switch k {
	case VerdictResolved:
		return "resolved"
	case VerdictDefaulted:
		return "defaulted"
	case VerdictFailed:
		return "failed"
	default:
		return fmt.Sprintf("VerdictKind(%d)", int(k))
	}
}

// Verdict is the outcome of one arbitration. Class is always ClassLow or
// ClassHigh.
type Verdict struct {
	Kind  VerdictKind
	Class router.Classification
	// Answer is the normalized model answer, empty on failure.
	Answer string
	Reason string
	Err    error
}

// Failed reports whether the arbiter could not be consulted.
func (v Verdict) Failed() bool {
	return v.Kind == VerdictFailed
}

// failed builds a fail-open verdict.
func failed(err error) Verdict {
	return Verdict{
		Kind:   VerdictFailed,
		Class:  router.ClassLow,
		Reason: err.Error(),
		Err:    err,
	}
}

// ============================================================================
// PARSING
// ============================================================================

// Keywords are the one-word answers the policy asks the model for.
type Keywords struct {
	High string
	Low  string
}

// DefaultKeywords matches DefaultPolicy.
var DefaultKeywords = Keywords{High: "opus", Low: "sonnet"}

// ParseVerdict classifies a raw model answer.
//
// The answer is trimmed and lowercased. If it contains the high keyword the
// verdict is high; if it contains the low keyword it is low. Anything else,
// including empty or malformed text, defaults to low.
func ParseVerdict(answer string, kw Keywords) Verdict {
	high := strings.ToLower(strings.TrimSpace(kw.High))
	if high == "" {
		high = DefaultKeywords.High
	}
	low := strings.ToLower(strings.TrimSpace(kw.Low))

	normalized := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case strings.Contains(normalized, high):
		return Verdict{Kind: VerdictResolved, Class: router.ClassHigh, Answer: normalized,
			Reason: fmt.Sprintf("arbiter answered %q", normalized)}
	case low != "" && strings.Contains(normalized, low):
		return Verdict{Kind: VerdictResolved, Class: router.ClassLow, Answer: normalized,
			Reason: fmt.Sprintf("arbiter answered %q", normalized)}
	default:
		return Verdict{Kind: VerdictDefaulted, Class: router.ClassLow, Answer: normalized,
			Reason: fmt.Sprintf("unrecognized arbiter answer %q", normalized)}
	}
}
