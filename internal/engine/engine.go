// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/arbiter"
	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
	"github.com/jeranaias/tierroute/internal/util"
)

// Arbiter settles prompts the classifier could not decide.
// *arbiter.Client satisfies it.
type Arbiter interface {
	Resolve(ctx context.Context, prompt string) arbiter.Verdict
}

// Options configures an Engine.
type Options struct {
	Catalog    *router.Catalog
	Classifier *router.Classifier
	Arbiter    Arbiter
	Switcher   Switcher
	Status     StatusSink
	Logger     *zap.Logger
}

// CycleResult is the outcome of one routing cycle.
type CycleResult struct {
	// Decision is the resolved decision, nil when the cycle made none.
	Decision *router.RoutingDecision `json:"decision,omitempty"`
	Action   Action                  `json:"action"`
	// Verdict is set when the arbiter was consulted.
	Verdict *arbiter.Verdict `json:"-"`
	// Err explains a rejected decision.
	Err error `json:"-"`
}

// Engine runs routing cycles against one host. It holds no routing state of
// its own and is safe for concurrent use across sessions.
type Engine struct {
	catalog    *router.Catalog
	classifier *router.Classifier
	arbiter    Arbiter
	applier    *Applier
	status     StatusSink
	logger     *zap.Logger
}

// New creates an engine. Catalog, Classifier, Arbiter and Switcher are
// required.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Catalog == nil:
		return nil, errors.New("engine: catalog is required")
	case opts.Classifier == nil:
		return nil, errors.New("engine: classifier is required")
	case opts.Arbiter == nil:
		return nil, errors.New("engine: arbiter is required")
	case opts.Switcher == nil:
		return nil, errors.New("engine: switcher is required")
	}
	if opts.Status == nil {
		opts.Status = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		catalog:    opts.Catalog,
		classifier: opts.Classifier,
		arbiter:    opts.Arbiter,
		applier:    NewApplier(opts.Catalog, opts.Switcher, opts.Status, opts.Logger),
		status:     opts.Status,
		logger:     opts.Logger,
	}, nil
}

// Catalog returns the engine's tier catalog.
func (e *Engine) Catalog() *router.Catalog { return e.catalog }

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *router.Classifier { return e.classifier }

// =============================================================================
// CYCLE
// =============================================================================

// HandlePrompt runs a cycle for a before-agent-start event.
func (e *Engine) HandlePrompt(ctx context.Context, st *session.State, ev PromptEvent) CycleResult {
	return e.Cycle(ctx, st, ev.Prompt)
}

// Cycle routes one prompt. Cycles on the same session never interleave.
func (e *Engine) Cycle(ctx context.Context, st *session.State, prompt string) CycleResult {
	var res CycleResult
	st.Serialize(func() {
		res = e.cycle(ctx, st, prompt)
	})
	return res
}

func (e *Engine) cycle(ctx context.Context, st *session.State, prompt string) CycleResult {
	st.Touch()

	if strings.TrimSpace(prompt) == "" {
		st.Stats().RecordSkip()
		return CycleResult{Action: ActionSkippedEmpty}
	}

	switch st.Mode() {
	case session.ModePinned:
		tier, _ := st.PinnedTier()
		d := router.RoutingDecision{
			Tier:           tier,
			Provenance:     router.ProvenancePinned,
			Classification: tier.Class,
			Reason:         "pinned to " + tier.ID,
		}
		return e.commit(ctx, st, prompt, d, nil)

	case session.ModeOverridePending:
		st.ConsumeOverride()
		st.Stats().RecordOverride()
		e.status.SetStatus(StatusKey, labelManual)
		e.logger.Debug("Manual selection kept for one cycle",
			zap.String("session", st.ID()),
		)
		return CycleResult{Action: ActionOverrideConsumed}
	}

	return e.route(ctx, st, prompt)
}

// route classifies the prompt and applies the cheapest tier of the result.
func (e *Engine) route(ctx context.Context, st *session.State, prompt string) CycleResult {
	exp := e.classifier.Explain(prompt)
	d := router.RoutingDecision{
		Provenance:     router.ProvenanceHeuristic,
		Classification: exp.Class,
		Reason:         exp.Reason(),
	}
	class := exp.Class

	var verdict *arbiter.Verdict
	if class == router.ClassUncertain {
		e.status.SetStatus(StatusKey, labelRouting)
		v := e.arbiter.Resolve(ctx, prompt)
		verdict = &v
		st.Stats().RecordArbiter(v.Failed(), v.Kind == arbiter.VerdictDefaulted)

		d.Provenance = router.ProvenanceArbiter
		d.Reason = v.Reason
		class = v.Class
		if v.Failed() {
			msg := "arbiter unavailable"
			if v.Err != nil {
				msg += ": " + v.Err.Error()
			}
			e.status.Notify(msg, LevelWarning)
		}
		if !class.Concrete() {
			class = router.ClassLow
		}
	}

	tier, ok := e.catalog.ForClass(class)
	if !ok {
		err := fmt.Errorf("%w: no tier serves class %s", ErrUnknownTier, class)
		st.Stats().RecordRejected()
		e.status.SetStatus(StatusKey, warnLabel(err.Error()))
		e.status.Notify(err.Error(), LevelWarning)
		return CycleResult{Action: ActionRejected, Verdict: verdict, Err: err}
	}
	d.Tier = tier
	return e.commit(ctx, st, prompt, d, verdict)
}

// commit applies d and records it when it is in force.
func (e *Engine) commit(ctx context.Context, st *session.State, prompt string, d router.RoutingDecision, verdict *arbiter.Verdict) CycleResult {
	d.EstimatedCostCents = router.EstimateCost(prompt, d.Tier)

	out := e.applier.Apply(ctx, st, d.Tier, d.Provenance)
	res := CycleResult{Decision: &d, Action: out.Action, Verdict: verdict, Err: out.Err}
	if !out.Action.Committed() {
		return res
	}

	st.Stats().RecordDecision(d, prompt, e.catalog.MostCapable())
	e.logger.Info("Routed prompt",
		zap.String("session", st.ID()),
		zap.String("tier", d.Tier.ID),
		zap.String("provenance", string(d.Provenance)),
		zap.String("action", string(out.Action)),
		zap.String("prompt", util.TruncateRunes(prompt, 50)),
	)
	return res
}

// =============================================================================
// MODE CHANGES
// =============================================================================

// Pin resolves ref to a catalog tier, pins the session to it and switches
// immediately. An unknown ref leaves the mode unchanged.
func (e *Engine) Pin(ctx context.Context, st *session.State, ref string) (CycleResult, error) {
	var (
		res CycleResult
		err error
	)
	st.Serialize(func() {
		st.Touch()
		tier, ok := e.catalog.Lookup(ref)
		if !ok {
			err = fmt.Errorf("%w: %q (known: %s)", ErrUnknownPinTarget, ref, strings.Join(e.catalog.IDs(), ", "))
			e.status.Notify("unknown tier: "+ref, LevelWarning)
			return
		}

		st.Pin(tier)
		e.logger.Info("Session pinned",
			zap.String("session", st.ID()),
			zap.String("tier", tier.ID),
		)
		d := router.RoutingDecision{
			Tier:           tier,
			Provenance:     router.ProvenancePinned,
			Classification: tier.Class,
			Reason:         "pinned to " + tier.ID,
		}
		out := e.applier.Apply(ctx, st, tier, router.ProvenancePinned)
		res = CycleResult{Decision: &d, Action: out.Action, Err: out.Err}
	})
	return res, err
}

// Unpin returns the session to automatic routing.
func (e *Engine) Unpin(st *session.State) {
	st.Serialize(func() {
		st.Touch()
		st.Unpin()
		e.status.SetStatus(StatusKey, "auto")
		e.logger.Info("Session unpinned", zap.String("session", st.ID()))
	})
}

// ObserveTierSelect records a tier change made outside the router. A
// user-initiated selection in auto mode suppresses routing for the next
// cycle. It reports whether an override is now pending.
func (e *Engine) ObserveTierSelect(st *session.State, ev TierSelectEvent) bool {
	var pending bool
	st.Serialize(func() {
		if !ev.UserInitiated() {
			return
		}
		pending = st.MarkOverridePending()
		e.logger.Debug("Manual tier selection observed",
			zap.String("session", st.ID()),
			zap.String("tier", ev.TierID),
			zap.String("source", ev.Source),
			zap.Bool("override_pending", pending),
		)
	})
	return pending
}
