// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ============================================================================
// CLASSIFIER
// ============================================================================

// DefaultShortThreshold is the prompt length (in characters) below which a
// prompt without signals is always low. Short (<100) and medium (100-399)
// prompts behave the same; the split only documents why the cheap tier is
// enough for both.
const DefaultShortThreshold = 400

// ErrInvalidSignal is returned when a signal set fails validation.
var ErrInvalidSignal = errors.New("invalid signal phrase")

// Classifier is the local heuristic pre-filter. It is immutable and safe for
// concurrent use.
type Classifier struct {
	signals        []string
	shortThreshold int
}

// NewClassifier validates the signal set and returns a classifier.
//
// Signals must be non-blank, unique and already lowercase; the classifier
// never lowercases them itself. A shortThreshold <= 0 selects
// DefaultShortThreshold.
func NewClassifier(signals []string, shortThreshold int) (*Classifier, error) {
	if err := ValidateSignals(signals); err != nil {
		return nil, err
	}
	if shortThreshold <= 0 {
		shortThreshold = DefaultShortThreshold
	}
	return &Classifier{
		signals:        append([]string(nil), signals...),
		shortThreshold: shortThreshold,
	}, nil
}

// MustClassifier is like NewClassifier but panics on an invalid signal set.
func MustClassifier(signals []string, shortThreshold int) *Classifier {
	c, err := NewClassifier(signals, shortThreshold)
	if err != nil {
		panic(err)
	}
	return c
}

// ValidateSignals checks that every phrase is non-blank, lowercase and unique.
func ValidateSignals(signals []string) error {
	seen := make(map[string]bool, len(signals))
	for i, s := range signals {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: entry %d is blank", ErrInvalidSignal, i)
		}
		if normalize(s) != s {
			return fmt.Errorf("%w: %q is not lowercase", ErrInvalidSignal, s)
		}
		if seen[s] {
			return fmt.Errorf("%w: %q is duplicated", ErrInvalidSignal, s)
		}
		seen[s] = true
	}
	return nil
}

// normalize lowercases text for matching. A Caser is stateful, so a fresh
// one is built per call.
func normalize(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Classify returns high when any signal phrase occurs in the prompt, low when
// the prompt is shorter than the threshold, and uncertain otherwise.
//
// Classification rules (in order of priority):
//  1. High: prompt contains any signal phrase (substring, case-insensitive)
//  2. Low: fewer than shortThreshold characters
//  3. Uncertain: everything else
func (c *Classifier) Classify(prompt string) Classification {
	return c.Explain(prompt).Class
}

// Explanation is the classifier verdict with the evidence behind it.
type Explanation struct {
	Class Classification `json:"class"`
	// Signal is the first matching signal phrase, empty if none matched.
	Signal string `json:"signal,omitempty"`
	// Length is the prompt length in characters.
	Length int `json:"length"`
	// Threshold is the short-prompt threshold in force.
	Threshold int `json:"threshold"`
}

// Reason renders the explanation as a one-line reason string.
func (e Explanation) Reason() string {
	switch {
	case e.Signal != "":
		return fmt.Sprintf("signal %q", strings.TrimSpace(e.Signal))
	case e.Class == ClassLow:
		return fmt.Sprintf("%d chars < %d, no signals", e.Length, e.Threshold)
	default:
		return fmt.Sprintf("%d chars >= %d, no signals", e.Length, e.Threshold)
	}
}

// Explain classifies the prompt and reports which rule decided it.
func (c *Classifier) Explain(prompt string) Explanation {
	p := normalize(prompt)
	e := Explanation{
		Length:    utf8.RuneCountInString(prompt),
		Threshold: c.shortThreshold,
	}

	// Signals take priority regardless of length
	for _, s := range c.signals {
		if strings.Contains(p, s) {
			e.Class = ClassHigh
			e.Signal = s
			return e
		}
	}

	if e.Length < c.shortThreshold {
		e.Class = ClassLow
		return e
	}

	e.Class = ClassUncertain
	return e
}

// Signals returns a copy of the classifier's signal set.
func (c *Classifier) Signals() []string {
	return append([]string(nil), c.signals...)
}

// ShortThreshold returns the length threshold in characters.
func (c *Classifier) ShortThreshold() int {
	return c.shortThreshold
}
