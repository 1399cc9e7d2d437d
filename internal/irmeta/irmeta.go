// Package irmeta builds module-level metadata: numbered tuples, named
// metadata lists and llvm.module.flags entries.
package irmeta

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
)

// ModuleFlagsName is the named metadata holding module flags.
const ModuleFlagsName = "llvm.module.flags"

// Behavior is the merge behavior of a module flag when modules are linked.
type Behavior int64

const (
	BehaviorError        Behavior = 1
	BehaviorWarning      Behavior = 2
	BehaviorRequire      Behavior = 3
	BehaviorOverride     Behavior = 4
	BehaviorAppend       Behavior = 5
	BehaviorAppendUnique Behavior = 6
	BehaviorMax          Behavior = 7
)

// Str wraps s as a metadata string.
func Str(s string) *metadata.String {
	return &metadata.String{Value: s}
}

// Int32 returns v as an i32 tuple field, printed as "i32 v".
func Int32(v int64) *constant.Int {
	return constant.NewInt(types.I32, v)
}

// Tuple creates a numbered metadata tuple and registers it with mod.
func Tuple(mod *ir.Module, fields ...metadata.Field) *metadata.Tuple {
	t := &metadata.Tuple{Fields: fields}
	t.SetID(int64(len(mod.MetadataDefs)))
	mod.MetadataDefs = append(mod.MetadataDefs, t)
	return t
}

// Named returns the named metadata list name, creating it when missing.
func Named(mod *ir.Module, name string) *metadata.NamedDef {
	if mod.NamedMetadataDefs == nil {
		mod.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}
	nd, ok := mod.NamedMetadataDefs[name]
	if !ok {
		nd = &metadata.NamedDef{Name: name}
		mod.NamedMetadataDefs[name] = nd
	}
	return nd
}

// AddNamed appends nodes to the named metadata list name.
func AddNamed(mod *ir.Module, name string, nodes ...metadata.Node) {
	nd := Named(mod, name)
	nd.Nodes = append(nd.Nodes, nodes...)
}

// AddModuleFlag appends !{i32 behavior, !"key", val} to llvm.module.flags.
func AddModuleFlag(mod *ir.Module, b Behavior, key string, val metadata.Field) *metadata.Tuple {
	flag := Tuple(mod, Int32(int64(b)), Str(key), val)
	AddNamed(mod, ModuleFlagsName, flag)
	return flag
}

// ModuleFlag finds the module flag with the given key.
func ModuleFlag(mod *ir.Module, key string) (*metadata.Tuple, bool) {
	nd, ok := mod.NamedMetadataDefs[ModuleFlagsName]
	if !ok {
		return nil, false
	}
	for _, n := range nd.Nodes {
		t, ok := n.(*metadata.Tuple)
		if !ok || len(t.Fields) != 3 {
			continue
		}
		if s, ok := t.Fields[1].(*metadata.String); ok && s.Value == key {
			return t, true
		}
	}
	return nil, false
}

// FlagBehavior extracts the behavior of a module flag tuple.
func FlagBehavior(flag *metadata.Tuple) (Behavior, bool) {
	if flag == nil || len(flag.Fields) == 0 {
		return 0, false
	}
	c, ok := flag.Fields[0].(*constant.Int)
	if !ok {
		return 0, false
	}
	return Behavior(c.X.Int64()), true
}

// Strings flattens a tuple of metadata strings. Non-string fields are skipped.
func Strings(t *metadata.Tuple) []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		if s, ok := f.(*metadata.String); ok {
			out = append(out, s.Value)
		}
	}
	return out
}
