package emit

// documentTmpl is the whole generated C++ document: fixed preamble, user
// headers, generated type declarations and the extern "C" block. The integer
// typedefs for usize/isize are sized from the compilation target, not the
// build host. The static_asserts fail the foreign compile on any platform
// whose float/double are not IEEE-754 32/64-bit.
const documentTmpl = `/*******************************
 * Code generated by cxxglue   *
 *******************************/

/* cstdint includes sane type definitions for integer types */
#include <cstdint>

/* the rs:: namespace contains host-defined types */
namespace rs {
    /* A slice of host memory: can be passed around and returned, but the
       data it points at is owned by the host side */
    template<class T>
    struct Slice {
        const T*  data;
        uintptr_t len;
    };

    /* A string slice is simply a slice of utf-8 encoded characters */
    typedef Slice<uint8_t> StrSlice;

    /* A trait object is composed of a data pointer and a vtable pointer.
       Both are opaque here; calling through the vtable from C++ is
       unsupported */
    struct TraitObject {
        void* data;
        void* vtable;
    };

    /* A dummy struct which is generated when incompatible types are
       closed over */
    struct __Incompatible;

    /* Typedefs for integral and floating point types */
    typedef uint8_t u8;
    typedef uint16_t u16;
    typedef uint32_t u32;
    typedef uint64_t u64;
    typedef {{.PtrUint}} usize;

    typedef int8_t i8;
    typedef int16_t i16;
    typedef int32_t i32;
    typedef int64_t i64;
    typedef {{.PtrInt}} isize;

    typedef float f32;
    static_assert(sizeof(f32) == 4, "C++ `+"`float`"+` isn't 32 bits wide");

    typedef double f64;
    static_assert(sizeof(f64) == 8, "C++ `+"`double`"+` isn't 64 bits wide");

    /* We use this bool type to ensure that our bools are 1 byte wide */
    typedef i8 bool_;
}

/* User-supplied headers */
{{.Headers}}
/* Generated types */
namespace rs {
{{range .Decls}}
{{.Body}}
{{end}}
} // namespace rs

/* Embedded block declarations */
extern "C" {
{{range .Blocks}}
    {{blockdecl .}}
{{end}}
}
`
