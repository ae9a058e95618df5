package host

import "fmt"

// Kind discriminates resolved host type descriptors.
type Kind string

const (
	KindBool  Kind = "bool"
	KindI8    Kind = "i8"
	KindI16   Kind = "i16"
	KindI32   Kind = "i32"
	KindI64   Kind = "i64"
	KindIsize Kind = "isize"
	KindU8    Kind = "u8"
	KindU16   Kind = "u16"
	KindU32   Kind = "u32"
	KindU64   Kind = "u64"
	KindUsize Kind = "usize"
	KindF32   Kind = "f32"
	KindF64   Kind = "f64"
	KindUnit  Kind = "unit"

	// KindSlice is a fat {data,len} view over Elem.
	KindSlice Kind = "slice"
	// KindStr is a slice of UTF-8 bytes.
	KindStr Kind = "str"
	// KindRef is a plain reference to Elem.
	KindRef Kind = "ref"
	// KindRawPtr is a raw pointer to Elem.
	KindRawPtr Kind = "rawptr"
	// KindStruct is a named record with fields; Path is its canonical
	// identity within the compilation unit.
	KindStruct Kind = "struct"
	// KindEnum is a fieldless enumeration with an integral representation.
	KindEnum Kind = "enum"
	// KindTraitObject is a dynamic-dispatch fat pointer {data, vtable}.
	KindTraitObject Kind = "trait_object"
	// KindUnknown covers everything the bridge cannot represent: generics,
	// closures, unsized types other than slices, and unresolved inference
	// variables.
	KindUnknown Kind = "unknown"
)

// Type is a fully resolved host type descriptor. Produced by the host's
// semantic analysis (or a front-end dump of it); this package never infers
// anything beyond what is already recorded here.
type Type struct {
	Kind Kind `yaml:"kind"`

	// Path is the canonical path of a named type ("demo::Point"). It is the
	// deduplication key for generated foreign declarations.
	Path string `yaml:"path,omitempty"`

	// Elem is the referent of slice, ref and rawptr types.
	Elem *Type `yaml:"elem,omitempty"`

	// Mutable marks mutable refs and raw pointers.
	Mutable bool `yaml:"mutable,omitempty"`

	// Fields lists the record fields of a struct type.
	Fields []Field `yaml:"fields,omitempty"`

	// Repr is the integral representation of an enum (defaults to i32).
	Repr Kind `yaml:"repr,omitempty"`

	// Variants lists an enum's variants in declaration order.
	Variants []Variant `yaml:"variants,omitempty"`
}

// Field is one struct field.
type Field struct {
	Name string `yaml:"name"`
	Type *Type  `yaml:"type"`
}

// Variant is one enum variant with its discriminant value.
type Variant struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindStruct, KindEnum:
		return t.Path
	case KindSlice:
		return fmt.Sprintf("[%s]", t.Elem)
	case KindRef:
		if t.Mutable {
			return fmt.Sprintf("&mut %s", t.Elem)
		}
		return fmt.Sprintf("&%s", t.Elem)
	case KindRawPtr:
		if t.Mutable {
			return fmt.Sprintf("*mut %s", t.Elem)
		}
		return fmt.Sprintf("*const %s", t.Elem)
	default:
		return string(t.Kind)
	}
}

// TypeQuery maps any expression node to its fully resolved type. The host
// guarantees resolution is complete by the time the capture pass runs; a
// missing entry therefore indicates a front-end bug, not user error.
type TypeQuery interface {
	TypeOf(e *Expr) (*Type, error)
}
