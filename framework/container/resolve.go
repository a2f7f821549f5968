package container

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/loomworks/loom/framework/diagnostics"
)

// ErrRequestContextActive is returned by EnterRequestContext when the
// calling goroutine chain already has an open request context.
var ErrRequestContextActive = errors.New("container: request context already active")

// resolutionChain is the cycle-detection stack for one logical call chain.
// It is keyed by goroutine id, so two unrelated concurrent Get calls never
// see each other's in-progress names.
type resolutionChain struct {
	stack   []string
	onStack map[string]bool
}

func (ch *resolutionChain) push(name string) {
	ch.stack = append(ch.stack, name)
	ch.onStack[name] = true
}

func (ch *resolutionChain) pop() {
	last := len(ch.stack) - 1
	delete(ch.onStack, ch.stack[last])
	ch.stack = ch.stack[:last]
}

func (ch *resolutionChain) path() []string {
	out := make([]string, len(ch.stack))
	copy(out, ch.stack)
	return out
}

// acquireChain returns the chain for the current goroutine, creating it on
// the first (top-level) resolution. The release func drops the chain once
// the stack has fully unwound, so completed chains leave no state behind.
func (c *Container) acquireChain() (*resolutionChain, func()) {
	id := goid()
	if v, ok := c.chains.Load(id); ok {
		return v.(*resolutionChain), func() {}
	}
	ch := &resolutionChain{onStack: make(map[string]bool, 8)}
	c.chains.Store(id, ch)
	return ch, func() {
		if len(ch.stack) == 0 {
			c.chains.Delete(id)
		}
	}
}

// ── Public resolution API ─────────────────────────────────────────────────────

// Get resolves a name into an instance. It never returns a nil instance
// with a nil error: a nil factory result is itself a CreationError.
func (c *Container) Get(name string) (any, error) {
	return c.resolve(name)
}

// TryGet is the lenient counterpart of Get: the two soft outcomes, missing
// dependency and unmet condition, are translated into (nil, nil). Cycles,
// inactive request scopes and creation failures still propagate — TryGet is
// leniency about absence, not about malfunction.
func (c *Container) TryGet(name string) (any, error) {
	v, err := c.resolve(name)
	if err == nil {
		return v, nil
	}

	// Downgrade only direct soft failures. A soft failure buried inside a
	// CreationError means the factory malfunctioned and still propagates.
	switch err.(type) {
	case *diagnostics.DependencyNotFoundError, *diagnostics.ConditionNotMetError:
		def := c.definition(name)
		if def == nil || !def.optional {
			c.logger.Debug("soft resolution failure",
				zap.String("name", name),
				zap.Error(err))
		}
		return nil, nil
	}
	return nil, err
}

// resolve is the shared resolution algorithm behind Get and TryGet.
func (c *Container) resolve(name string) (any, error) {
	ch, release := c.acquireChain()
	defer release()

	// 1. Look up the definition.
	def := c.definition(name)
	if def == nil {
		return nil, &diagnostics.DependencyNotFoundError{
			Report: diagnostics.Report{
				Message:          fmt.Sprintf("no definition registered for %q", name),
				DependencyName:   name,
				InjectionPoint:   injectionPoint(ch),
				ResolutionPath:   ch.path(),
				CandidateSources: c.candidatesFor(name),
			},
		}
	}

	// 2. Condition filtering: present-but-filtered is reported differently
	// from absent.
	if ok, failed := def.CheckConditions(c); !ok {
		return nil, &diagnostics.ConditionNotMetError{
			Report: diagnostics.Report{
				Message:        fmt.Sprintf("definition %q found but condition %q failed", name, failed),
				DependencyName: name,
				InjectionPoint: injectionPoint(ch),
				ResolutionPath: ch.path(),
			},
			FailedConditions: []string{failed},
		}
	}

	// 3. Request scope demands an active request context; there is no
	// fallback to prototype behavior.
	var rs *requestScope
	if def.scope == ScopeRequest {
		rs = c.activeRequest()
		if rs == nil {
			return nil, &diagnostics.ScopeNotActiveError{
				Report: diagnostics.Report{
					Message:        fmt.Sprintf("request-scoped %q resolved outside a request context", name),
					DependencyName: name,
					InjectionPoint: injectionPoint(ch),
					ResolutionPath: ch.path(),
				},
				ScopeType: string(ScopeRequest),
			}
		}
	}

	// 4. Cycle check against this chain only.
	if ch.onStack[name] {
		chain := cycleChain(ch.stack, name)
		return nil, &diagnostics.CircularDependencyError{
			Report: diagnostics.Report{
				Message:        fmt.Sprintf("cycle detected while resolving %q", name),
				DependencyName: name,
				InjectionPoint: injectionPoint(ch),
				ResolutionPath: chain,
			},
			DependencyChain: chain,
		}
	}

	// 5–9. Scope-appropriate cache lookup, creation and store. A cache hit
	// short-circuits construction and the stack push entirely.
	build := func() (any, error) { return c.construct(def, ch) }

	switch def.scope {
	case ScopeSingleton:
		return c.singletons.getOrCreate(name, build)
	case ScopeRequest:
		return rs.getOrCreate(name, build)
	default: // ScopePrototype never caches
		return build()
	}
}

// injectionPoint locates where the current resolution was requested from:
// the factory on top of the active stack, or the public API at the root.
func injectionPoint(ch *resolutionChain) string {
	if len(ch.stack) == 0 {
		return ""
	}
	return fmt.Sprintf("factory of %q", ch.stack[len(ch.stack)-1])
}

// candidatesFor builds the candidate list for a missing-dependency report.
// Heuristic (documented in DESIGN.md): registered definitions whose name
// shares a case-insensitive substring with the requested name, or that
// alias it through an "alias" tag; capped at five, in registration order.
func (c *Container) candidatesFor(name string) []diagnostics.Candidate {
	const maxCandidates = 5

	c.mu.RLock()
	defer c.mu.RUnlock()

	wanted := strings.ToLower(name)
	var out []diagnostics.Candidate
	for _, regName := range c.order {
		if len(out) == maxCandidates {
			break
		}
		def := c.registry[regName]
		if alias, ok := def.tags["alias"]; ok && alias == name {
			out = append(out, diagnostics.Candidate{
				Source: def.source,
				Reason: fmt.Sprintf("registered as %q, aliases %q via tag; lookup is by exact name", regName, name),
			})
			continue
		}
		have := strings.ToLower(regName)
		if strings.Contains(have, wanted) || strings.Contains(wanted, have) {
			out = append(out, diagnostics.Candidate{
				Source: def.source,
				Reason: fmt.Sprintf("registered as %q, which does not match %q", regName, name),
			})
		}
	}
	return out
}

// ── Request context ───────────────────────────────────────────────────────────

// EnterRequestContext opens a fresh request-scope cache bound to the
// calling goroutine chain. Concurrently active request contexts are fully
// isolated from one another. Calls must be paired with
// ExitRequestContext.
func (c *Container) EnterRequestContext() error {
	id := goid()
	if _, active := c.requests.Load(id); active {
		return ErrRequestContextActive
	}
	rs := newRequestScope()
	c.requests.Store(id, rs)
	c.logger.Debug("request context opened", zap.String("request_id", rs.id))
	return nil
}

// ExitRequestContext discards the active request-scope cache. Exiting with
// no open context (or before any Get was made) is tolerated.
func (c *Container) ExitRequestContext() {
	id := goid()
	if v, ok := c.requests.LoadAndDelete(id); ok {
		rs := v.(*requestScope)
		c.logger.Debug("request context closed",
			zap.String("request_id", rs.id),
			zap.Int("instances", len(rs.instances)))
	}
}

// IsRequestActive reports whether a request context is open on the calling
// goroutine chain.
func (c *Container) IsRequestActive() bool {
	_, ok := c.requests.Load(goid())
	return ok
}

func (c *Container) activeRequest() *requestScope {
	if v, ok := c.requests.Load(goid()); ok {
		return v.(*requestScope)
	}
	return nil
}
