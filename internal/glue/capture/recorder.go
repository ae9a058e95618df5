// Package capture implements the single pass over a compilation unit's
// resolved expression tree that fills in embedded-block signatures and, once
// the last block resolves, hands the accumulated state to the emitter.
package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cxxglue/cxxglue/internal/glue"
	"github.com/cxxglue/cxxglue/internal/glue/translate"
	"github.com/cxxglue/cxxglue/internal/host"
	"github.com/cxxglue/cxxglue/internal/log"
)

// Phase is the recorder's lifecycle state.
type Phase int

const (
	// Scanning is the default phase; call sites are being consumed.
	Scanning Phase = iota
	// AllResolved means every registered block has a full signature and the
	// finalizer is about to run.
	AllResolved
	// Finalized means the finalizer has run (or the pass aborted); further
	// call sites are rejected.
	Finalized
)

// InternalError reports a violation of the front-end contract: a malformed
// capture shape or a block call site visited twice. These indicate a bug in
// the macro expansion, not user error, and abort the pass unconditionally.
type InternalError struct {
	Msg  string
	Span host.Span
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal consistency error: %s", e.Span, e.Msg)
}

// Finalizer runs exactly once, after the last block's signature resolves and
// outside any lock, since emission performs file and subprocess I/O.
type Finalizer func(*glue.State) error

// Recorder consumes embedded-block call sites. One instance serves one
// compilation unit; the host's visitor drives it synchronously, though
// callbacks may arrive from concurrent translation-unit lints, so all state
// is guarded.
type Recorder struct {
	mu    sync.Mutex
	phase Phase

	state    *glue.State
	types    host.TypeQuery
	tr       *translate.Translator
	diags    *host.Collector
	finalize Finalizer
	logger   *slog.Logger
}

// New returns a recorder in the Scanning phase.
func New(state *glue.State, types host.TypeQuery, diags *host.Collector, finalize Finalizer, logger *slog.Logger) *Recorder {
	return &Recorder{
		state:    state,
		types:    types,
		tr:       &translate.Translator{Registry: state.Types, Diags: diags},
		diags:    diags,
		finalize: finalize,
		logger:   logger,
	}
}

// Phase returns the recorder's current lifecycle phase.
func (r *Recorder) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// VisitExpr is the host's expression-visitation callback. Calls whose callee
// is not a registered block name are ignored; a registered call site is
// consumed exactly once. The call that resolves the last outstanding block
// triggers emission, provided no fatal diagnostics accumulated.
func (r *Recorder) VisitExpr(e *host.Expr) error {
	name := e.CalleeName()
	if name == "" {
		return nil
	}
	block, ok := r.state.Lookup(name)
	if !ok {
		log.Trace(r.logger, "ignoring call to unregistered function", "callee", name, "site", e.Span)
		return nil
	}

	r.mu.Lock()
	if r.phase == Finalized {
		// Strictly single-shot: a well-formed unit has no block call sites
		// after finalization, but a broken front end must not retrigger it.
		r.mu.Unlock()
		return &InternalError{Msg: fmt.Sprintf("block %q visited after finalization", name), Span: e.Span}
	}
	done, err := r.consume(block, e)
	if err != nil {
		r.phase = Finalized
		r.mu.Unlock()
		return err
	}
	if !done {
		r.mu.Unlock()
		return nil
	}
	if r.diags.HasErrors() {
		// No document is emitted for a unit that failed type resolution.
		r.phase = Finalized
		r.mu.Unlock()
		return r.diags.ErrorSummary()
	}
	r.phase = AllResolved
	r.mu.Unlock()

	r.logger.Debug("all embedded blocks resolved, finalizing", "blocks", len(r.state.Blocks()))
	err = r.finalize(r.state)

	r.mu.Lock()
	r.phase = Finalized
	r.mu.Unlock()
	return err
}

// consume fills in one block's signature from its call expression. Called
// with the recorder lock held; pure computation, no I/O.
func (r *Recorder) consume(block *glue.EmbeddedBlock, e *host.Expr) (done bool, err error) {
	if block.Resolved() {
		return false, &InternalError{Msg: fmt.Sprintf("block %q consumed twice", block.Name), Span: e.Span}
	}
	if len(e.Args) != len(block.Args) {
		return false, &InternalError{
			Msg:  fmt.Sprintf("block %q: call has %d arguments, registration has %d", block.Name, len(e.Args), len(block.Args)),
			Span: e.Span,
		}
	}

	retTy, err := r.types.TypeOf(e)
	if err != nil {
		return false, &InternalError{Msg: err.Error(), Span: e.Span}
	}
	ret, err := r.tr.Translate(retTy, false, translate.Origin{
		Block:     block.Name,
		BlockSpan: block.Span,
		Site:      e.Span,
		Role:      "return value",
	})
	if err != nil {
		// Fatal: an unmappable return type would desynchronize the calling
		// convention between the two sides.
		return false, err
	}

	for i, arg := range e.Args {
		inner, mutable, ok := unwrapCapture(arg)
		if !ok {
			return false, &InternalError{
				Msg:  fmt.Sprintf("block %q: argument %d is not a double-casted reference", block.Name, i),
				Span: arg.Span,
			}
		}
		argTy, err := r.types.TypeOf(inner)
		if err != nil {
			return false, &InternalError{Msg: err.Error(), Span: inner.Span}
		}
		foreign, err := r.tr.Translate(argTy, true, translate.Origin{
			Block:     block.Name,
			BlockSpan: block.Span,
			Site:      inner.Span,
			Role:      fmt.Sprintf("argument `%s`", block.Args[i].Ident),
		})
		if err != nil {
			// Only declaration cycles reach here in by-reference mode;
			// unmappable types degrade to the opaque placeholder.
			return false, err
		}
		block.Args[i].Foreign = foreign
		block.Args[i].Const = !mutable
	}

	block.Ret = ret
	r.logger.Debug("resolved embedded block", "block", block.Name, "return", ret, "args", len(block.Args))
	return r.state.MarkResolved(), nil
}

// unwrapCapture strips the front end's capture wrapper: an address-of
// expression inside two explicit casts. Any other shape violates the
// front-end contract.
func unwrapCapture(e *host.Expr) (inner *host.Expr, mutable bool, ok bool) {
	if e == nil || e.Kind != host.ExprCast || e.Inner == nil {
		return nil, false, false
	}
	second := e.Inner
	if second.Kind != host.ExprCast || second.Inner == nil {
		return nil, false, false
	}
	addr := second.Inner
	if addr.Kind != host.ExprAddrOf || addr.Inner == nil {
		return nil, false, false
	}
	return addr.Inner, addr.Mutable, true
}
