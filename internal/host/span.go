// Package host models the interface boundary to the host compiler: the
// resolved expression tree handed over by the macro front end, the resolved
// type descriptors produced by the host's semantic analysis, and the
// structured diagnostics reported back through it.
package host

import "fmt"

// Span is a half-open byte range [Start, End) in a source file, used to
// attach diagnostics to the call site they originate from.
type Span struct {
	File  string `yaml:"file"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool {
	return s.File == "" && s.Start == 0 && s.End == 0
}

func (s Span) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d-%d", s.File, s.Start, s.End)
}
