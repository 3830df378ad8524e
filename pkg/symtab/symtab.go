// Package symtab resolves global symbol names to addresses from an
// object file's symbol table. Debug records for global variables
// carry no address of their own; the decoder asks a symbol table
// instead.
package symtab

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Symbol is one entry from the object file's symbol table.
type Symbol struct {
	Name  string
	Value uint64
}

// Table answers name lookups over a symbol list. Lookups are
// memoized; a Table may be shared by decoders running concurrently.
type Table struct {
	syms []Symbol
	// Assemblers on some targets prefix every C symbol, usually
	// with an underscore. A lookup that misses retries with the
	// prefix applied.
	leadingChar byte
	cache       cmap.ConcurrentMap[string, uint64]
}

type Option func(*Table)

// WithLeadingChar sets the character the assembler prepends to
// C-level names in the symbol table.
func WithLeadingChar(ch byte) Option {
	return func(t *Table) { t.leadingChar = ch }
}

func New(syms []Symbol, opts ...Option) *Table {
	this := &Table{
		syms:  syms,
		cache: cmap.New[uint64](),
	}
	for _, opt := range opts {
		opt(this)
	}
	return this
}

// Lookup returns the address of the named symbol. The debug record
// name is tried as written first, then with the target's leading
// character.
func (t *Table) Lookup(name string) (uint64, bool) {
	if v, ok := t.cache.Get(name); ok {
		return v, true
	}
	for _, s := range t.syms {
		if s.Name == name || (t.leadingChar != 0 && len(s.Name) > 1 &&
			s.Name[0] == t.leadingChar && s.Name[1:] == name) {
			t.cache.Set(name, s.Value)
			return s.Value, true
		}
	}
	return 0, false
}
