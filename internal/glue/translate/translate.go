package translate

import (
	"fmt"
	"strings"

	"github.com/cxxglue/cxxglue/internal/host"
)

// Incompatible is the opaque placeholder emitted when a host type has no C++
// representation. The preamble only forward-declares it, so foreign code can
// pass it around behind a pointer but never touch it.
const Incompatible = "rs::__Incompatible"

// Origin records where a translation was required, for diagnostics.
type Origin struct {
	Block     string
	BlockSpan host.Span // span of the embedded block itself
	Site      host.Span // span of the expression being translated
	Role      string    // "return value" or "argument `x`"
}

// Translator maps resolved host types to generated C++ type names, filling
// the registry with any compound declarations that must be emitted.
type Translator struct {
	Registry *Registry
	Diags    *host.Collector
}

// Translate returns the C++ name for a host type. With byRef set (capture
// positions, which sit behind a reference) an unmappable type degrades to
// the opaque placeholder and a warning; without it (return positions, where
// a wrong type would desynchronize the calling convention) an unmappable
// type is a hard error. Declaration cycles are hard errors either way.
func (tr *Translator) Translate(t *host.Type, byRef bool, origin Origin) (string, error) {
	if t == nil {
		return tr.incompatible("<unresolved>", byRef, origin)
	}
	switch t.Kind {
	case host.KindUnit:
		return "void", nil
	case host.KindBool:
		return "rs::bool_", nil
	case host.KindI8, host.KindI16, host.KindI32, host.KindI64, host.KindIsize,
		host.KindU8, host.KindU16, host.KindU32, host.KindU64, host.KindUsize,
		host.KindF32, host.KindF64:
		return "rs::" + string(t.Kind), nil
	case host.KindStr:
		return "rs::StrSlice", nil
	case host.KindSlice:
		elem, err := tr.Translate(t.Elem, byRef, origin)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rs::Slice<%s>", elem), nil
	case host.KindRef, host.KindRawPtr:
		elem, err := tr.Translate(t.Elem, byRef, origin)
		if err != nil {
			return "", err
		}
		if t.Mutable {
			return elem + "*", nil
		}
		return elem + " const*", nil
	case host.KindTraitObject:
		// Opaque on the C++ side: the vtable layout is not part of the
		// bridge contract, so calling through it is unsupported.
		return "rs::TraitObject", nil
	case host.KindStruct:
		return tr.declareStruct(t, byRef, origin)
	case host.KindEnum:
		return tr.declareEnum(t, byRef, origin)
	default:
		return tr.incompatible(t.String(), byRef, origin)
	}
}

func (tr *Translator) declareStruct(t *host.Type, byRef bool, origin Origin) (string, error) {
	if t.Path == "" {
		return tr.incompatible("anonymous struct", byRef, origin)
	}
	if name, ok := tr.Registry.lookup(t.Path); ok {
		return "rs::" + name, nil
	}
	name, err := tr.Registry.begin(t.Path, cxxIdent(t.Path))
	if err != nil {
		tr.report(host.SevError, fmt.Sprintf("cannot translate `%s`: %v", t.Path, err), origin)
		return "", fmt.Errorf("translate %s: %w", t.Path, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", name)
	for _, f := range t.Fields {
		ft, err := tr.Translate(f.Type, byRef, origin)
		if err != nil {
			tr.Registry.abandon(t.Path)
			return "", err
		}
		fmt.Fprintf(&sb, "    %s %s;\n", ft, f.Name)
	}
	sb.WriteString("};")

	tr.Registry.commit(t.Path, name, sb.String(), origin)
	return "rs::" + name, nil
}

func (tr *Translator) declareEnum(t *host.Type, byRef bool, origin Origin) (string, error) {
	if t.Path == "" {
		return tr.incompatible("anonymous enum", byRef, origin)
	}
	if name, ok := tr.Registry.lookup(t.Path); ok {
		return "rs::" + name, nil
	}
	name, err := tr.Registry.begin(t.Path, cxxIdent(t.Path))
	if err != nil {
		tr.report(host.SevError, fmt.Sprintf("cannot translate `%s`: %v", t.Path, err), origin)
		return "", fmt.Errorf("translate %s: %w", t.Path, err)
	}

	repr := t.Repr
	if repr == "" {
		repr = host.KindI32
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "enum %s : rs::%s {\n", name, repr)
	for _, v := range t.Variants {
		fmt.Fprintf(&sb, "    %s_%s = %d,\n", name, v.Name, v.Value)
	}
	sb.WriteString("};")

	tr.Registry.commit(t.Path, name, sb.String(), origin)
	return "rs::" + name, nil
}

// incompatible reports an unmappable host type. In recoverable positions the
// result is the opaque placeholder; otherwise the translation fails.
func (tr *Translator) incompatible(desc string, byRef bool, origin Origin) (string, error) {
	msg := fmt.Sprintf("host type `%s` has no C++ representation", desc)
	if byRef {
		tr.report(host.SevWarning, msg+"; captured as an opaque placeholder", origin)
		return Incompatible, nil
	}
	tr.report(host.SevError, msg, origin)
	return "", fmt.Errorf("%s (%s of block %s)", msg, origin.Role, origin.Block)
}

func (tr *Translator) report(sev host.Severity, msg string, origin Origin) {
	if tr.Diags == nil {
		return
	}
	tr.Diags.Report(host.Diagnostic{
		Severity: sev,
		Msg:      msg,
		Span:     origin.Site,
		Notes: []host.Note{{
			Msg:  fmt.Sprintf("used in the %s of this cpp block", origin.Role),
			Span: origin.BlockSpan,
		}},
	})
}

// cxxIdent derives a C++ identifier from the last segment of a canonical
// host type path.
func cxxIdent(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		path = path[i+2:]
	}
	var sb strings.Builder
	for i, r := range path {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_anon"
	}
	return sb.String()
}
