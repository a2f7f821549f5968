package diagnostics

import (
	"fmt"
	"strings"
)

// EmptyPath is the literal rendered for an empty resolution path, so that
// reports stay stable and comparable even before any name has been visited.
const EmptyPath = "(none)"

// RenderPath renders an ordered resolution path as "A -> B -> C".
func RenderPath(path []string) string {
	if len(path) == 0 {
		return EmptyPath
	}
	return strings.Join(path, " -> ")
}

// RenderMissingPath renders a path for a missing-dependency report: the
// unresolved name is appended with a "(missing)" marker.
//
//	RenderMissingPath([]string{"A", "B"}, "C")  // "A -> B -> C (missing)"
func RenderMissingPath(path []string, name string) string {
	withMissing := make([]string, 0, len(path)+1)
	withMissing = append(withMissing, path...)
	withMissing = append(withMissing, name+" (missing)")
	return RenderPath(withMissing)
}

// RenderCandidates renders one "source: reason" line per candidate,
// preserving order.
func RenderCandidates(candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("  - %s: %s", c.Source, c.Reason))
	}
	return strings.Join(lines, "\n")
}

// Render turns a Report into a single stable block of text containing,
// where available, the dependency name, the injection point, the resolution
// path and the candidate list. It performs no I/O.
func Render(r *Report) string {
	var b strings.Builder

	b.WriteString("resolution failed: ")
	b.WriteString(r.Message)

	if r.DependencyName != "" {
		fmt.Fprintf(&b, "\ndependency: %s", r.DependencyName)
	}
	if r.InjectionPoint != "" {
		fmt.Fprintf(&b, "\ninjection point: %s", r.InjectionPoint)
	}
	fmt.Fprintf(&b, "\nresolution path: %s", RenderPath(r.ResolutionPath))
	if len(r.CandidateSources) > 0 {
		fmt.Fprintf(&b, "\ncandidates considered:\n%s", RenderCandidates(r.CandidateSources))
	}
	if r.Cause != nil {
		fmt.Fprintf(&b, "\ncause: %v", r.Cause)
	}

	return b.String()
}

// Describe renders any error: resolution errors through their structured
// report, everything else through Error().
func Describe(err error) string {
	if d, ok := err.(Diagnostic); ok {
		return Render(d.Diagnostics())
	}
	return err.Error()
}
