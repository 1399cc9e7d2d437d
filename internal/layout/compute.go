package layout

import (
	"fortio.org/safecast"
	"github.com/llir/llvm/ir/types"
)

func (e *LayoutEngine) computeLayout(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch tt := t.(type) {
	case nil:
		return TypeLayout{Size: 0, Align: 1}, nil

	case *types.IntType:
		return e.intLayout(tt.BitSize), nil

	case *types.FloatType:
		return e.floatLayout(tt.Kind), nil

	case *types.PointerType:
		return e.ptrLayout(), nil

	case *types.ArrayType:
		return e.arrayLayout(tt, tt.ElemType, tt.Len, state)

	case *types.VectorType:
		l, err := e.arrayLayout(tt, tt.ElemType, tt.Len, state)
		if err != nil {
			return l, err
		}
		l.Align = nextPow2(l.Size)
		l.Size = roundUp(l.Size, l.Align)
		return l, nil

	case *types.StructType:
		if tt.Opaque {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrOpaque, Type: t}
		}
		return e.structLayout(tt, state)

	default:
		// void, function, label, metadata, token
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t}
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

// intLayout: the store size is the bit width rounded up to whole bytes, the
// allocation size is the store size rounded up to the ABI alignment.
func (e *LayoutEngine) intLayout(bits uint64) TypeLayout {
	align := e.Target.IntAlign(bits)
	store, err := safecast.Conv[int]((bits + 7) / 8)
	if err != nil {
		store = 0
	}
	return TypeLayout{Size: roundUp(store, align), Align: align}
}

func (e *LayoutEngine) floatLayout(kind types.FloatKind) TypeLayout {
	var bits uint64
	var store int
	switch kind {
	case types.FloatKindHalf:
		bits, store = 16, 2
	case types.FloatKindFloat:
		bits, store = 32, 4
	case types.FloatKindDouble:
		bits, store = 64, 8
	case types.FloatKindX86_FP80:
		bits, store = 80, 10
	case types.FloatKindFP128, types.FloatKindPPC_FP128:
		bits, store = 128, 16
	default:
		bits, store = 64, 8
	}
	align := e.Target.FloatAlign(bits)
	return TypeLayout{Size: roundUp(store, align), Align: align}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (e *LayoutEngine) arrayLayout(t, elem types.Type, length uint64, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, lerr := e.layoutOf(elem, state)
	if lerr != nil {
		return TypeLayout{Size: 0, Align: 1}, lerr
	}
	elemAlign := elemLayout.Align
	if elemAlign <= 0 {
		elemAlign = 1
	}
	stride := roundUp(elemLayout.Size, elemAlign)
	n, err := safecast.Conv[int](length)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t, Err: err}
	}
	return TypeLayout{
		Size:  stride * n,
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) structLayout(st *types.StructType, state *layoutState) (TypeLayout, *LayoutError) {
	fields := st.Fields
	if len(fields) == 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))

	size := 0
	align := 1
	for i, f := range fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := fl.Align
		if st.Packed || fAlign <= 0 {
			fAlign = 1
		}
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
