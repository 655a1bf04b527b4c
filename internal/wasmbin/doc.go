// Package wasmbin encodes the fixed slice of the WebAssembly binary format
// the chic backend actually emits: a module with a type/import/function
// table, one linear memory, a single identity-mapped function table for
// indirect calls, and function bodies built from a small core-integer
// instruction set (spec.md §4.6, §4.7).
//
// It does not parse or validate existing modules — chicc only ever emits
// wasm, never consumes it, so there is no decoder here. Build a Module with
// the wasmgen package, then call Module.Encode to get the final bytes.
package wasmbin
