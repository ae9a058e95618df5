package host

// ExprKind discriminates the expression shapes the capture pass cares about.
// The front end lowers every embedded block into a call expression whose
// arguments are double-cast-wrapped address-of expressions; everything else
// is opaque to this engine.
type ExprKind string

const (
	// ExprCall is a function call: Callee(Args...).
	ExprCall ExprKind = "call"
	// ExprPath is a bare identifier reference.
	ExprPath ExprKind = "path"
	// ExprCast is an explicit type cast around Inner.
	ExprCast ExprKind = "cast"
	// ExprAddrOf takes the address of Inner; Mutable distinguishes &mut.
	ExprAddrOf ExprKind = "addr_of"
	// ExprOpaque is any expression the engine does not inspect.
	ExprOpaque ExprKind = "opaque"
)

// Expr is one node of the host's resolved expression tree.
type Expr struct {
	Kind    ExprKind
	Span    Span
	Name    string  // path: identifier
	Callee  *Expr   // call
	Args    []*Expr // call
	Inner   *Expr   // cast, addr_of
	Mutable bool    // addr_of
}

// CalleeName returns the single-segment path name of a call's callee, or ""
// when the callee is not a bare path. Embedded-block call sites always use a
// unique single-segment name assigned by the front end.
func (e *Expr) CalleeName() string {
	if e == nil || e.Kind != ExprCall || e.Callee == nil || e.Callee.Kind != ExprPath {
		return ""
	}
	return e.Callee.Name
}

// Walk visits e and every reachable sub-expression in document order,
// stopping at the first error.
func Walk(e *Expr, visit func(*Expr) error) error {
	if e == nil {
		return nil
	}
	if err := visit(e); err != nil {
		return err
	}
	if err := Walk(e.Callee, visit); err != nil {
		return err
	}
	for _, a := range e.Args {
		if err := Walk(a, visit); err != nil {
			return err
		}
	}
	return Walk(e.Inner, visit)
}
