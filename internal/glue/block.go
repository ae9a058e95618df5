// Package glue holds the process-scoped shared state accumulated while a
// compilation unit is analyzed: the embedded-block registry, the foreign
// type registry, the user header buffer and the extra compiler flags.
package glue

import "github.com/cxxglue/cxxglue/internal/host"

// Capture describes one value captured by reference into an embedded block.
// Ident and order are fixed by the front end at registration time; Foreign
// is filled in exactly once when the capture pass reaches the call site.
type Capture struct {
	Ident   string
	Foreign string // generated C++ type name, "" until resolved
	Const   bool   // immutable capture; renders as a const pointer
}

// EmbeddedBlock is one discovered embedded C++ call site.
type EmbeddedBlock struct {
	Name string // unique generated callee name, stable for the process
	Span host.Span
	Body string // opaque C++ body text, produced upstream

	Args []Capture
	Ret  string // generated C++ return type name, "" until resolved
}

// Resolved reports whether the block's full signature is known. Per-field
// resolution is set-once; a block never transitions back.
func (b *EmbeddedBlock) Resolved() bool {
	return b.Ret != ""
}
