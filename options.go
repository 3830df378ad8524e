package stabs

import (
	"github.com/ianlancetaylor/demangle"
)

// SymbolTable resolves the value of a global symbol by name. ELF and
// COFF producers leave the address of an N_GSYM to the linker, so the
// decoder has to ask the object file's symbol table for it.
type SymbolTable interface {
	Lookup(name string) (uint64, bool)
}

// V3Builtin maps a builtin type name from a demangled ABI-v3 name onto
// a primitive type. The mangling encodes identity rather than width,
// so the sizes here are target assumptions.
type V3Builtin struct {
	Kind     TypeKind // KindVoid, KindInt, KindFloat or KindBool
	Size     int
	Unsigned bool
}

const defaultDemangleCacheSize = 128

type options struct {
	sections     bool
	symtab       SymbolTable
	demangleOpts []demangle.Option
	v3Builtins   map[string]V3Builtin
	demcacheSize int
}

type Option func(*options)

// WithSectionRelativeValues marks record values as relative to their
// section rather than absolute, as COFF and ELF producers emit them.
// Function start addresses are then added back to line and block
// offsets during decoding.
func WithSectionRelativeValues() Option {
	return func(o *options) { o.sections = true }
}

// WithSymbolTable supplies a lookup for global symbol addresses.
func WithSymbolTable(symtab SymbolTable) Option {
	return func(o *options) { o.symtab = symtab }
}

// WithDemangleOptions appends options passed through to the ABI-v3
// demangler, e.g. demangle.LLVMStyle.
func WithDemangleOptions(opts ...demangle.Option) Option {
	return func(o *options) { o.demangleOpts = append(o.demangleOpts, opts...) }
}

// WithV3Builtin overrides the primitive type a builtin name from a
// demangled ABI-v3 stub maps to, for targets with different widths.
func WithV3Builtin(name string, t V3Builtin) Option {
	return func(o *options) {
		if o.v3Builtins == nil {
			o.v3Builtins = make(map[string]V3Builtin)
		}
		o.v3Builtins[name] = t
	}
}

// WithDemangleCacheSize sets the size of the per session cache of
// demangled method stubs. Zero disables the cache.
func WithDemangleCacheSize(size int) Option {
	return func(o *options) { o.demcacheSize = size }
}

func defaultOptions() *options {
	return &options{demcacheSize: defaultDemangleCacheSize}
}
