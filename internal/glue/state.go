package glue

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cxxglue/cxxglue/internal/glue/translate"
)

// State owns the four shared tables for one compilation-unit build. It is
// created empty, mutated under its lock during the capture pass, consumed
// exactly once by the emitter and then discarded. It is passed explicitly to
// every component; nothing in this module lives in package-level variables.
type State struct {
	mu sync.Mutex

	blocks map[string]*EmbeddedBlock
	order  []string // registration order, the emission order of declarations

	// Types is the side table of generated compound type declarations. It
	// carries its own lock; see translate.Registry.
	Types *translate.Registry

	headers strings.Builder
	flags   []string

	resolved int // blocks whose full signature is set
}

// NewState returns empty shared state for one compilation unit.
func NewState() *State {
	return &State{
		blocks: make(map[string]*EmbeddedBlock),
		Types:  translate.NewRegistry(),
	}
}

// Register adds a block discovered by the front end. Names are unique per
// process; a duplicate registration indicates a front-end bug.
func (s *State) Register(b *EmbeddedBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.blocks[b.Name]; dup {
		return fmt.Errorf("embedded block %q registered twice", b.Name)
	}
	s.blocks[b.Name] = b
	s.order = append(s.order, b.Name)
	return nil
}

// Lookup returns the registered block with the given callee name, if any.
func (s *State) Lookup(name string) (*EmbeddedBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[name]
	return b, ok
}

// Blocks returns the registered blocks in registration order.
func (s *State) Blocks() []*EmbeddedBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*EmbeddedBlock, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.blocks[name])
	}
	return out
}

// MarkResolved records that one more block's signature is fully set and
// reports whether every registered block is now resolved. The explicit
// counter, rather than a recomputed "all return types set" predicate, is
// what makes finalization single-shot even for ill-formed inputs.
func (s *State) MarkResolved() (done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved++
	return s.resolved == len(s.order)
}

// AddHeader appends user-supplied C++ header text in discovery order.
func (s *State) AddHeader(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		s.headers.WriteString("\n")
	}
}

// Headers returns the accumulated header text.
func (s *State) Headers() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers.String()
}

// AddFlags appends extra foreign-toolchain flags; the set is append-only and
// order-preserving.
func (s *State) AddFlags(flags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append(s.flags, flags...)
}

// Flags returns the accumulated extra compiler flags in append order.
func (s *State) Flags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.flags))
	copy(out, s.flags)
	return out
}
