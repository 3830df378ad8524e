// Package stabelf extracts stab debug records from the .stab and
// .stabstr sections of an ELF object.
package stabelf

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	bufra "github.com/avvmoto/buf-readerat"

	"github.com/wdbg/stabs"
	"github.com/wdbg/stabs/pkg/symtab"
)

const (
	stabEntrySize = 12

	// readBufSize is the read-at buffer in front of the file; section
	// reads come in small sequential chunks.
	readBufSize = 1 << 20
)

var (
	ErrNoStabs = errors.New("no .stab section")
	ErrFormat  = errors.New("malformed .stab section")
)

// File is an opened ELF object with stab debug sections.
type File struct {
	f   *os.File
	elf *elf.File
}

func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ef, err := elf.NewFile(bufra.NewBufReaderAt(f, readBufSize))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{f: f, elf: ef}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}

// Records reads the full list of stab records, with continuation
// strings already joined.
func (f *File) Records() ([]stabs.Record, error) {
	stab := f.elf.Section(".stab")
	if stab == nil {
		return nil, ErrNoStabs
	}
	strtab := f.elf.Section(".stabstr")
	if strtab == nil {
		return nil, fmt.Errorf("%w: missing .stabstr", ErrFormat)
	}
	data, err := stab.Data()
	if err != nil {
		return nil, err
	}
	strdata, err := strtab.Data()
	if err != nil {
		return nil, err
	}
	return parseStabData(data, strdata, f.elf.ByteOrder)
}

// SymbolTable builds a lookup table from the object's symbol table
// for resolving global variable addresses.
func (f *File) SymbolTable(opts ...symtab.Option) (*symtab.Table, error) {
	esyms, err := f.elf.Symbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return symtab.New(nil, opts...), nil
		}
		return nil, err
	}
	syms := make([]symtab.Symbol, 0, len(esyms))
	for _, s := range esyms {
		if s.Name == "" {
			continue
		}
		syms = append(syms, symtab.Symbol{Name: s.Name, Value: s.Value})
	}
	return symtab.New(syms, opts...), nil
}

// parseStabData decodes raw .stab entries against .stabstr. Each
// compilation unit opens with a type 0 stab whose value is the size
// of its chunk of the string table; string offsets are relative to
// the running base. A string ending in a backslash continues in the
// next record.
func parseStabData(data, strdata []byte, bo binary.ByteOrder) ([]stabs.Record, error) {
	if len(data)%stabEntrySize != 0 {
		return nil, fmt.Errorf("%w: size %d", ErrFormat, len(data))
	}

	var (
		recs       []stabs.Record
		stroff     uint32
		nextStroff uint32
		pending    *stabs.Record
		pendingStr string
	)
	for off := 0; off < len(data); off += stabEntrySize {
		strx := bo.Uint32(data[off:])
		typ := data[off+4]
		desc := bo.Uint16(data[off+6:])
		value := bo.Uint32(data[off+8:])

		if typ == 0 {
			// Start of a unit: advance the string table base.
			stroff = nextStroff
			nextStroff += value
			continue
		}

		text, err := stabString(strdata, stroff, strx)
		if err != nil {
			return nil, err
		}

		if pending != nil {
			pendingStr += text
			if cont := len(text) > 0 && text[len(text)-1] == '\\'; cont {
				pendingStr = pendingStr[:len(pendingStr)-1]
				continue
			}
			pending.Text = pendingStr
			recs = append(recs, *pending)
			pending = nil
			pendingStr = ""
			continue
		}

		rec := stabs.Record{
			Kind:  stabs.Kind(typ),
			Desc:  desc,
			Value: uint64(value),
			Text:  text,
		}
		if len(text) > 0 && text[len(text)-1] == '\\' {
			rec.Text = ""
			pending = &rec
			pendingStr = text[:len(text)-1]
			continue
		}
		recs = append(recs, rec)
	}
	if pending != nil {
		// A trailing continuation with nothing after it; keep what
		// we have.
		pending.Text = pendingStr
		recs = append(recs, *pending)
	}
	return recs, nil
}

func stabString(strdata []byte, stroff, strx uint32) (string, error) {
	start := uint64(stroff) + uint64(strx)
	if start >= uint64(len(strdata)) {
		return "", fmt.Errorf("%w: string offset %d out of range", ErrFormat, start)
	}
	end := start
	for end < uint64(len(strdata)) && strdata[end] != 0 {
		end++
	}
	return string(strdata[start:end]), nil
}
