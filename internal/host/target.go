package host

import (
	"fmt"
	"strings"
)

// Target describes the compilation target the generated C++ is built for.
// The pointer width drives the usize/isize typedefs in the generated
// preamble; it comes from the triple, never from the build host.
type Target struct {
	Triple       string
	PointerWidth int // bits
}

// pointer widths by architecture component of the triple
var archWidths = map[string]int{
	"x86_64":      64,
	"aarch64":     64,
	"arm64":       64,
	"riscv64":     64,
	"powerpc64":   64,
	"powerpc64le": 64,
	"mips64":      64,
	"mips64el":    64,
	"s390x":       64,
	"sparc64":     64,
	"loongarch64": 64,
	"wasm64":      64,

	"i386":    32,
	"i586":    32,
	"i686":    32,
	"arm":     32,
	"armv7":   32,
	"thumbv7": 32,
	"riscv32": 32,
	"mips":    32,
	"mipsel":  32,
	"powerpc": 32,
	"wasm32":  32,
}

// ParseTarget resolves a target triple ("x86_64-unknown-linux-gnu") into a
// Target. Unknown architectures fail rather than guessing a width, since a
// wrong guess would silently desynchronize the two sides' ABI.
func ParseTarget(triple string) (Target, error) {
	arch, _, _ := strings.Cut(triple, "-")
	if arch == "" {
		return Target{}, fmt.Errorf("malformed target triple %q", triple)
	}
	width, ok := archWidths[arch]
	if !ok {
		// armv7a-..., thumbv7neon-... and friends share a family prefix;
		// longest prefix wins so mips64r6 resolves as mips64, not mips.
		best := ""
		for prefix, w := range archWidths {
			if strings.HasPrefix(arch, prefix) && len(prefix) > len(best) {
				best, width, ok = prefix, w, true
			}
		}
	}
	if !ok {
		return Target{}, fmt.Errorf("unknown pointer width for target architecture %q", arch)
	}
	return Target{Triple: triple, PointerWidth: width}, nil
}
