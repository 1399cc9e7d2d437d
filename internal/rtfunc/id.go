package rtfunc

import "strings"

// ID identifies a runtime support function.
type ID uint16

const (
	IDInvalid ID = iota

	// allocation
	AllocObject
	AllocBox
	SlowAlloc
	DeallocObject
	SlowDealloc

	// reference counting
	Retain
	RetainNoResult
	Release
	WeakRetain
	WeakRelease
	UnknownRetain
	UnknownRelease

	// metadata
	GetTupleTypeMetadata
	GetObjCClassMetadata
	GetGenericMetadata

	// casts
	DynamicCastClass

	// foreign runtime bridging
	ObjCRetain
	ObjCRelease
	ObjCMsgSend

	idCount
)

var idNames = [...]string{
	IDInvalid:            "invalid",
	AllocObject:          "allocObject",
	AllocBox:             "allocBox",
	SlowAlloc:            "slowAlloc",
	DeallocObject:        "deallocObject",
	SlowDealloc:          "slowDealloc",
	Retain:               "retain",
	RetainNoResult:       "retain_noresult",
	Release:              "release",
	WeakRetain:           "weakRetain",
	WeakRelease:          "weakRelease",
	UnknownRetain:        "unknownRetain",
	UnknownRelease:       "unknownRelease",
	GetTupleTypeMetadata: "getTupleTypeMetadata",
	GetObjCClassMetadata: "getObjCClassMetadata",
	GetGenericMetadata:   "getGenericMetadata",
	DynamicCastClass:     "dynamicCastClass",
	ObjCRetain:           "objc_retain",
	ObjCRelease:          "objc_release",
	ObjCMsgSend:          "objc_msgSend",
}

func (id ID) String() string {
	if int(id) < len(idNames) {
		return idNames[id]
	}
	return "invalid"
}

// Valid reports whether id is in the descriptor table.
func (id ID) Valid() bool {
	return id > IDInvalid && id < idCount
}

// ParseID resolves a short name ("retain") or a symbol ("rt_retain").
func ParseID(name string) (ID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return IDInvalid, false
	}
	for id := IDInvalid + 1; id < idCount; id++ {
		if idNames[id] == name {
			return id, true
		}
	}
	for _, d := range descriptors {
		if d.Symbol == name {
			return d.ID, true
		}
	}
	return IDInvalid, false
}
