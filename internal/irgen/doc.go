// Package irgen holds the per-unit IR generation context.
//
// A Unit owns one output module for its whole life: it is created Open,
// accepts emission calls (runtime function handles, link libraries, used
// globals, well-known runtime globals), and is sealed by Finalize, which
// writes the global lists, the autolink module flag and debug metadata in
// that order. After Finalize the module is handed to the caller with
// ReleaseModule.
//
// A Unit is not safe for concurrent use. Independent units may run in
// parallel; they share only read-only tables.
package irgen
