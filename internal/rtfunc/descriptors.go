package rtfunc

import (
	"github.com/llir/llvm/ir/enum"

	"irgen/internal/abi"
)

// Descriptor is the static signature of one runtime function. Return types
// with more than one element are returned as an anonymous struct.
type Descriptor struct {
	ID      ID
	Symbol  string
	CC      enum.CallingConv
	Returns []abi.TypeRef
	Args    []abi.TypeRef
	Attrs   []enum.FuncAttr
}

func returns(refs ...abi.TypeRef) []abi.TypeRef { return refs }
func args(refs ...abi.TypeRef) []abi.TypeRef { return refs }
func attrs(a ...enum.FuncAttr) []enum.FuncAttr { return a }

var (
	refCountedPtr = abi.PtrRef(abi.RefCounted)
	typeMetaPtr   = abi.PtrRef(abi.TypeMetadata)
	objcPtr       = abi.PtrRef(abi.ObjCObject)

	readNone = enum.FuncAttrReadNone
	readOnly = enum.FuncAttrReadOnly
	noUnwind = enum.FuncAttrNoUnwind
	cCC      = enum.CallingConvC
)

var descriptors = []Descriptor{
	{AllocObject, "rt_allocObject", cCC,
		returns(refCountedPtr),
		args(abi.PtrRef(abi.FullHeapMetadata), abi.Size, abi.Size),
		attrs(noUnwind)},
	{AllocBox, "rt_allocBox", cCC,
		returns(refCountedPtr, abi.PtrRef(abi.Opaque)),
		args(typeMetaPtr),
		attrs(noUnwind)},
	{SlowAlloc, "rt_slowAlloc", cCC,
		returns(abi.Int8Ptr),
		args(abi.Size, abi.Size),
		attrs(noUnwind)},
	{DeallocObject, "rt_deallocObject", cCC,
		returns(abi.Void),
		args(refCountedPtr, abi.Size),
		attrs(noUnwind)},
	{SlowDealloc, "rt_slowDealloc", cCC,
		returns(abi.Void),
		args(abi.Int8Ptr, abi.Size),
		attrs(noUnwind)},

	{Retain, "rt_retain", cCC,
		returns(refCountedPtr),
		args(refCountedPtr),
		attrs(noUnwind)},
	{RetainNoResult, "rt_retain_noresult", cCC,
		returns(abi.Void),
		args(refCountedPtr),
		attrs(noUnwind)},
	{Release, "rt_release", cCC,
		returns(abi.Void),
		args(refCountedPtr),
		attrs(noUnwind)},
	{WeakRetain, "rt_weakRetain", cCC,
		returns(abi.Void),
		args(refCountedPtr),
		attrs(noUnwind)},
	{WeakRelease, "rt_weakRelease", cCC,
		returns(abi.Void),
		args(refCountedPtr),
		attrs(noUnwind)},
	{UnknownRetain, "rt_unknownRetain", cCC,
		returns(objcPtr),
		args(objcPtr),
		attrs(noUnwind)},
	{UnknownRelease, "rt_unknownRelease", cCC,
		returns(abi.Void),
		args(objcPtr),
		attrs(noUnwind)},

	{GetTupleTypeMetadata, "rt_getTupleTypeMetadata", cCC,
		returns(typeMetaPtr),
		args(abi.Size, abi.Int8PtrPtr, abi.Int8Ptr, abi.Int8PtrPtr),
		attrs(noUnwind)},
	{GetObjCClassMetadata, "rt_getObjCClassMetadata", cCC,
		returns(typeMetaPtr),
		args(abi.PtrRef(abi.ObjCClass)),
		attrs(noUnwind, readNone)},
	{GetGenericMetadata, "rt_getGenericMetadata", cCC,
		returns(typeMetaPtr),
		args(abi.PtrRef(abi.TypeMetadataPattern), abi.Int8Ptr),
		attrs(noUnwind, readNone)},

	{DynamicCastClass, "rt_dynamicCastClass", cCC,
		returns(abi.Int8Ptr),
		args(abi.Int8Ptr, abi.Int8Ptr),
		attrs(noUnwind, readOnly)},

	{ObjCRetain, "objc_retain", cCC,
		returns(objcPtr),
		args(objcPtr),
		attrs(noUnwind)},
	{ObjCRelease, "objc_release", cCC,
		returns(abi.Void),
		args(objcPtr),
		attrs(noUnwind)},
	{ObjCMsgSend, "objc_msgSend", cCC,
		returns(objcPtr),
		args(objcPtr, abi.Int8Ptr),
		nil},
}

// Descriptors returns a copy of the runtime descriptor table in id order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup returns the descriptor for id.
func Lookup(id ID) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
