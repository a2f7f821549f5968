package diagnostics

import "fmt"

// ── Shared report ─────────────────────────────────────────────────────────────

// Candidate describes a definition that was considered for a dependency name
// and rejected, together with the reason it was not chosen.
type Candidate struct {
	Source string
	Reason string
}

// Report carries the structured fields shared by every resolution error.
// All fields are optional except Message; renderers skip what is absent.
type Report struct {
	Message          string
	DependencyName   string
	InjectionPoint   string
	ResolutionPath   []string
	CandidateSources []Candidate
	Cause            error
}

// Diagnostic is implemented by every error in this package that carries a
// structured Report. Describe uses it to render any resolution error.
type Diagnostic interface {
	error
	Diagnostics() *Report
}

// ── Registry errors ───────────────────────────────────────────────────────────

// RegistryFrozenError is returned when a structural mutation is attempted
// after the container has been refreshed.
type RegistryFrozenError struct {
	Name string
}

func (e *RegistryFrozenError) Error() string {
	return fmt.Sprintf("registry is frozen, cannot register %q", e.Name)
}

// ── Resolution errors ─────────────────────────────────────────────────────────

// DependencyNotFoundError is returned when a name is absent from the
// registry, or absent because no remaining candidate satisfies its
// conditions.
type DependencyNotFoundError struct {
	Report
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("no definition found for %q (path: %s)",
		e.DependencyName, RenderMissingPath(e.ResolutionPath, e.DependencyName))
}

func (e *DependencyNotFoundError) Diagnostics() *Report { return &e.Report }

// ConditionNotMetError is returned when the requested definition exists but
// its conditions evaluate false.
type ConditionNotMetError struct {
	Report
	FailedConditions []string
}

func (e *ConditionNotMetError) Error() string {
	return fmt.Sprintf("definition %q filtered out by conditions %v",
		e.DependencyName, e.FailedConditions)
}

func (e *ConditionNotMetError) Diagnostics() *Report { return &e.Report }

// CircularDependencyError is returned when a name is already on the active
// resolution stack, or when the declared dependency graph contains a cycle
// at refresh time. DependencyChain is ordered and closes on itself.
type CircularDependencyError struct {
	Report
	DependencyChain []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", RenderPath(e.DependencyChain))
}

func (e *CircularDependencyError) Diagnostics() *Report { return &e.Report }

// ScopeNotActiveError is returned when a request-scoped name is resolved
// while no request context is active on the calling goroutine chain.
type ScopeNotActiveError struct {
	Report
	ScopeType string
}

func (e *ScopeNotActiveError) Error() string {
	return fmt.Sprintf("scope %s not active while resolving %q",
		e.ScopeType, e.DependencyName)
}

func (e *ScopeNotActiveError) Diagnostics() *Report { return &e.Report }

// CreationError is returned when a factory fails or produces a nil result.
// The original factory error is retained as the cause.
type CreationError struct {
	Report
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("creation of %q failed: %v", e.DependencyName, e.Cause)
}

func (e *CreationError) Diagnostics() *Report { return &e.Report }

func (e *CreationError) Unwrap() error { return e.Cause }
