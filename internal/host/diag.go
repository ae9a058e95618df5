package host

import (
	"fmt"
	"strings"
	"sync"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SevWarning marks a recoverable condition; the pass continues.
	SevWarning Severity = iota
	// SevError marks a fatal condition; no document is emitted for the unit.
	SevError
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

// Note attaches secondary context to a diagnostic, typically pointing at the
// embedded block the offending type was used in.
type Note struct {
	Msg  string
	Span Span
}

// Diagnostic is one structured message tied to a source span.
type Diagnostic struct {
	Severity Severity
	Msg      string
	Span     Span
	Notes    []Note
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", d.Span, d.Severity, d.Msg)
	for _, n := range d.Notes {
		fmt.Fprintf(&sb, "\n  note: %s", n.Msg)
		if !n.Span.IsZero() {
			fmt.Fprintf(&sb, " (%s)", n.Span)
		}
	}
	return sb.String()
}

// Collector accumulates diagnostics across the capture pass. Warnings do not
// stop traversal; any error prevents finalization of the unit. Safe for
// concurrent reporting since the host may drive callbacks from more than one
// translation unit in the same process.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report appends a diagnostic.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// HasErrors reports whether any fatal diagnostic has been collected.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// All returns a snapshot of the collected diagnostics in report order.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// ErrorSummary joins all fatal diagnostics into a single error, or returns
// nil when none were collected.
func (c *Collector) ErrorSummary() error {
	var msgs []string
	for _, d := range c.All() {
		if d.Severity == SevError {
			msgs = append(msgs, d.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("type resolution failed:\n%s", strings.Join(msgs, "\n"))
}
