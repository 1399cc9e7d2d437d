package layout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Target describes the compilation target: its triple and the pieces of the
// LLVM data-layout description the generator relies on. Every size the ABI
// table produces is derived from these numbers, never hardcoded.
type Target struct {
	Triple     string // e.g. "x86_64-unknown-linux-gnu"
	DataLayout string // original data-layout string, copied into the module

	BigEndian  bool
	PtrSize    int // bytes
	PtrAlign   int // bytes
	StackAlign int // bytes, 0 when unspecified

	// IntAligns maps integer bit widths to ABI alignment in bytes.
	IntAligns map[uint64]int
	// FloatAligns maps float bit widths to ABI alignment in bytes.
	FloatAligns map[uint64]int
	// NativeInts lists native integer widths in bits ("n" spec).
	NativeInts []uint64

	// ObjCNullEmptyVTable makes the empty ObjC vtable a null constant instead
	// of a reference to the runtime's absolute symbol.
	ObjCNullEmptyVTable bool
}

// PtrBits returns the pointer width in bits.
func (t Target) PtrBits() uint64 {
	return uint64(t.PtrSize) * 8 // #nosec G115 -- PtrSize validated positive by ParseDataLayout
}

// Validate reports whether the target can be used to compute layouts.
func (t Target) Validate() error {
	if t.PtrSize <= 0 || t.PtrSize&(t.PtrSize-1) != 0 {
		return fmt.Errorf("invalid pointer size %d", t.PtrSize)
	}
	if t.PtrAlign <= 0 || t.PtrAlign&(t.PtrAlign-1) != 0 {
		return fmt.Errorf("invalid pointer alignment %d", t.PtrAlign)
	}
	return nil
}

// IntAlign returns the ABI alignment in bytes of an integer of the given width.
// Widths without an explicit entry use the next larger listed width, or the
// largest one when the width exceeds all entries.
func (t Target) IntAlign(bits uint64) int {
	return lookupAlign(t.IntAligns, defaultIntAligns, bits)
}

// FloatAlign returns the ABI alignment in bytes of a float of the given width.
func (t Target) FloatAlign(bits uint64) int {
	return lookupAlign(t.FloatAligns, defaultFloatAligns, bits)
}

var (
	defaultIntAligns   = map[uint64]int{1: 1, 8: 1, 16: 2, 32: 4, 64: 4, 128: 16}
	defaultFloatAligns = map[uint64]int{16: 2, 32: 4, 64: 8, 128: 16}
)

func lookupAlign(explicit, defaults map[uint64]int, bits uint64) int {
	merged := make(map[uint64]int, len(defaults)+len(explicit))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range explicit {
		merged[k] = v
	}
	if a, ok := merged[bits]; ok {
		return a
	}
	widths := make([]uint64, 0, len(merged))
	for k := range merged {
		widths = append(widths, k)
	}
	sort.Slice(widths, func(i, j int) bool { return widths[i] < widths[j] })
	for _, w := range widths {
		if w > bits {
			return merged[w]
		}
	}
	return merged[widths[len(widths)-1]]
}

// ParseDataLayout builds a Target from a triple and an LLVM data-layout string
// such as "e-m:e-p:64:64-i64:64-n8:16:32:64-S128". Unknown specs are ignored;
// malformed ones are errors.
func ParseDataLayout(triple, dl string) (Target, error) {
	t := Target{
		Triple:      triple,
		DataLayout:  dl,
		PtrSize:     8,
		PtrAlign:    8,
		IntAligns:   make(map[uint64]int),
		FloatAligns: make(map[uint64]int),
	}
	if strings.TrimSpace(dl) == "" {
		return t, nil
	}
	for _, spec := range strings.Split(dl, "-") {
		if spec == "" {
			continue
		}
		if err := t.applySpec(spec); err != nil {
			return Target{}, &DataLayoutError{Layout: dl, Spec: spec, Err: err}
		}
	}
	if err := t.Validate(); err != nil {
		return Target{}, &DataLayoutError{Layout: dl, Err: err}
	}
	return t, nil
}

func (t *Target) applySpec(spec string) error {
	switch spec[0] {
	case 'e':
		t.BigEndian = false
	case 'E':
		t.BigEndian = true
	case 'S':
		bits, err := strconv.ParseUint(spec[1:], 10, 32)
		if err != nil {
			return err
		}
		t.StackAlign = int(bits / 8)
	case 'p':
		return t.applyPointer(spec)
	case 'i':
		bits, align, err := widthAndAlign(spec[1:])
		if err != nil {
			return err
		}
		t.IntAligns[bits] = align
	case 'f':
		bits, align, err := widthAndAlign(spec[1:])
		if err != nil {
			return err
		}
		t.FloatAligns[bits] = align
	case 'n':
		if !strings.HasPrefix(spec, "ni:") {
			for _, w := range strings.Split(spec[1:], ":") {
				bits, err := strconv.ParseUint(w, 10, 32)
				if err != nil {
					return err
				}
				t.NativeInts = append(t.NativeInts, bits)
			}
		}
	}
	// m:, a:, v, F and friends do not affect runtime struct layouts.
	return nil
}

func (t *Target) applyPointer(spec string) error {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return fmt.Errorf("pointer spec needs size and alignment")
	}
	addrSpace := strings.TrimPrefix(parts[0], "p")
	if addrSpace != "" && addrSpace != "0" {
		return nil
	}
	size, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return err
	}
	align, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return err
	}
	if size == 0 || size%8 != 0 || align == 0 || align%8 != 0 {
		return fmt.Errorf("pointer size and alignment must be positive multiples of 8")
	}
	t.PtrSize = int(size / 8)
	t.PtrAlign = int(align / 8)
	return nil
}

func widthAndAlign(body string) (uint64, int, error) {
	parts := strings.Split(body, ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("expected <size>:<abi>")
	}
	bits, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	align, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	if align%8 != 0 {
		return 0, 0, fmt.Errorf("alignment %d is not a multiple of 8", align)
	}
	return bits, int(align / 8), nil
}

// DataLayoutError reports a malformed data-layout string.
type DataLayoutError struct {
	Layout string
	Spec   string
	Err    error
}

func (e *DataLayoutError) Error() string {
	if e.Spec != "" {
		return fmt.Sprintf("invalid data layout %q: spec %q: %v", e.Layout, e.Spec, e.Err)
	}
	return fmt.Sprintf("invalid data layout %q: %v", e.Layout, e.Err)
}

func (e *DataLayoutError) Unwrap() error { return e.Err }

func mustParse(triple, dl string) Target {
	t, err := ParseDataLayout(triple, dl)
	if err != nil {
		panic(err)
	}
	return t
}

func X86_64LinuxGNU() Target {
	return mustParse("x86_64-unknown-linux-gnu",
		"e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128")
}

func AArch64AppleDarwin() Target {
	t := mustParse("arm64-apple-macosx11.0.0", "e-m:o-i64:64-i128:128-n32:64-S128")
	t.ObjCNullEmptyVTable = true
	return t
}

func I386LinuxGNU() Target {
	return mustParse("i386-unknown-linux-gnu",
		"e-m:e-p:32:32-p270:32:32-p271:32:32-p272:64:64-i128:128-f64:32:64-f80:32-n8:16:32-S128")
}

func Wasm32() Target {
	return mustParse("wasm32-unknown-unknown", "e-m:e-p:32:32-i64:64-n32:64-S128")
}

// Presets returns the built-in targets keyed by their short names.
func Presets() map[string]func() Target {
	return map[string]func() Target{
		"x86_64":  X86_64LinuxGNU,
		"aarch64": AArch64AppleDarwin,
		"i386":    I386LinuxGNU,
		"wasm32":  Wasm32,
	}
}
