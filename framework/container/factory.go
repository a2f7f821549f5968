package container

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/loomworks/loom/framework/diagnostics"
)

// ErrNilInstance marks a factory that returned a nil result. It surfaces
// wrapped inside a CreationError.
var ErrNilInstance = errors.New("container: factory returned a nil instance")

// PostProcessor runs after a successful raw creation and may replace or
// augment the instance. Processors run in registration order; one that
// fails or panics is logged and skipped, never aborting the resolution.
type PostProcessor func(instance any, def *Definition) (any, error)

// AddPostProcessor appends a post-processor to the creation pipeline.
func (c *Container) AddPostProcessor(p PostProcessor) {
	c.postMu.Lock()
	defer c.postMu.Unlock()
	c.post = append(c.post, p)
}

// construct runs the per-definition creation step: push the name onto the
// resolution chain, invoke the factory, pop unconditionally, then apply the
// post-processors. Foreign factory failures, panics and nil results wrap
// into a CreationError that retains the original cause; nested resolution
// errors pass through with their own type.
func (c *Container) construct(def *Definition, ch *resolutionChain) (any, error) {
	ch.push(def.name)
	instance, err := c.invokeFactory(def)
	path := ch.path()
	ch.pop()

	if err == nil && isNil(instance) {
		err = ErrNilInstance
	}
	if err != nil {
		// A resolution error surfacing from a nested Get keeps its own
		// type; only foreign factory failures wrap into a CreationError.
		if _, ok := err.(diagnostics.Diagnostic); ok {
			return nil, err
		}
		return nil, &diagnostics.CreationError{
			Report: diagnostics.Report{
				Message:        fmt.Sprintf("factory for %q failed", def.name),
				DependencyName: def.name,
				InjectionPoint: fmt.Sprintf("factory of %q", def.name),
				ResolutionPath: path,
				Cause:          err,
			},
		}
	}

	return c.applyPostProcessors(instance, def), nil
}

// invokeFactory calls the definition's factory, converting a panic into an
// ordinary error so the chain still unwinds through the normal path.
func (c *Container) invokeFactory(def *Definition) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = fmt.Errorf("factory for %q panicked: %v", def.name, r)
		}
	}()
	return def.factory(c)
}

// applyPostProcessors feeds the instance through the ordered processor
// list. A processor returning an error, a nil replacement, or panicking is
// skipped and the previous instance kept.
func (c *Container) applyPostProcessors(instance any, def *Definition) any {
	c.postMu.RLock()
	processors := c.post
	c.postMu.RUnlock()

	for i, p := range processors {
		next, err := c.runPostProcessor(p, instance, def)
		if err != nil {
			c.logger.Warn("post-processor skipped",
				zap.Int("processor", i),
				zap.String("name", def.name),
				zap.Error(err))
			continue
		}
		if isNil(next) {
			c.logger.Warn("post-processor returned nil, keeping previous instance",
				zap.Int("processor", i),
				zap.String("name", def.name))
			continue
		}
		instance = next
	}
	return instance
}

func (c *Container) runPostProcessor(p PostProcessor, instance any, def *Definition) (next any, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("post-processor panicked: %v", r)
		}
	}()
	return p(instance, def)
}

// CreateRaw invokes the definition's factory directly, bypassing every
// scope cache: nothing is read from or stored into the singleton or request
// caches. Conditions and cycle detection still apply. Intended for
// diagnostic tooling and explicit non-cached creation.
func (c *Container) CreateRaw(name string) (any, error) {
	ch, release := c.acquireChain()
	defer release()

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

	return c.construct(def, ch)
}

// isNil reports whether the factory result is a null-equivalent value:
// a nil interface, or a typed nil pointer/map/slice/chan/func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
