// Package unit loads a front-end dump of one compilation unit: the embedded
// blocks the macro expansion discovered and the resolved expression forest
// the host's semantic analysis produced for their call sites. The dump is
// YAML, written by the host-side front end; loading one primes the shared
// glue state and provides the type-query view the capture pass needs.
package unit

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/cxxglue/cxxglue/internal/glue"
	"github.com/cxxglue/cxxglue/internal/host"
)

// Unit is one loaded compilation-unit dump.
type Unit struct {
	Target string
	Exprs  []*host.Expr

	blocks []blockNode
	types  map[*host.Expr]*host.Type
}

type document struct {
	Target string      `yaml:"target"`
	Blocks []blockNode `yaml:"blocks"`
	Exprs  []*exprNode `yaml:"exprs"`
}

type blockNode struct {
	Name    string    `yaml:"name"`
	Span    host.Span `yaml:"span"`
	Args    []string  `yaml:"args"`
	Body    string    `yaml:"body"`
	Headers string    `yaml:"headers"`
	Flags   []string  `yaml:"flags"`
}

type exprNode struct {
	Kind    string      `yaml:"kind"`
	Span    host.Span   `yaml:"span"`
	Name    string      `yaml:"name"`
	Mutable bool        `yaml:"mutable"`
	Type    *host.Type  `yaml:"type"`
	Callee  *exprNode   `yaml:"callee"`
	Args    []*exprNode `yaml:"args"`
	Inner   *exprNode   `yaml:"inner"`
}

// Load reads and decodes a unit dump from disk.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit dump: %w", err)
	}
	return Parse(data)
}

// Parse decodes a unit dump from YAML bytes.
func Parse(data []byte) (*Unit, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode unit dump: %w", err)
	}
	if doc.Target == "" {
		return nil, fmt.Errorf("unit dump has no target triple")
	}

	u := &Unit{
		Target: doc.Target,
		blocks: doc.Blocks,
		types:  make(map[*host.Expr]*host.Type),
	}
	for _, n := range doc.Exprs {
		e, err := u.toExpr(n)
		if err != nil {
			return nil, err
		}
		u.Exprs = append(u.Exprs, e)
	}
	return u, nil
}

// Prime registers the dumped blocks, header text and flags into fresh glue
// state, in dump (discovery) order.
func (u *Unit) Prime(st *glue.State) error {
	for _, b := range u.blocks {
		args := make([]glue.Capture, len(b.Args))
		for i, ident := range b.Args {
			args[i] = glue.Capture{Ident: ident}
		}
		if err := st.Register(&glue.EmbeddedBlock{
			Name: b.Name,
			Span: b.Span,
			Body: b.Body,
			Args: args,
		}); err != nil {
			return err
		}
		st.AddHeader(b.Headers)
		st.AddFlags(b.Flags...)
	}
	return nil
}

// TypeOf implements host.TypeQuery over the dump's inline resolved types.
func (u *Unit) TypeOf(e *host.Expr) (*host.Type, error) {
	t, ok := u.types[e]
	if !ok {
		return nil, fmt.Errorf("%s: no resolved type recorded for expression", e.Span)
	}
	return t, nil
}

func (u *Unit) toExpr(n *exprNode) (*host.Expr, error) {
	if n == nil {
		return nil, nil
	}
	kind := host.ExprKind(n.Kind)
	switch kind {
	case host.ExprCall, host.ExprPath, host.ExprCast, host.ExprAddrOf, host.ExprOpaque:
	default:
		return nil, fmt.Errorf("%s: unknown expression kind %q", n.Span, n.Kind)
	}

	e := &host.Expr{
		Kind:    kind,
		Span:    n.Span,
		Name:    n.Name,
		Mutable: n.Mutable,
	}
	var err error
	if e.Callee, err = u.toExpr(n.Callee); err != nil {
		return nil, err
	}
	if e.Inner, err = u.toExpr(n.Inner); err != nil {
		return nil, err
	}
	for _, a := range n.Args {
		arg, err := u.toExpr(a)
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, arg)
	}
	if n.Type != nil {
		u.types[e] = n.Type
	}
	return e, nil
}
