// Package stabs decodes stabs debugging records into a caller supplied
// Builder. A Decoder consumes one compilation unit after another from a
// stream of Records, parsing the embedded stab strings (symbol
// descriptors, type definitions, mangled C++ names) and emitting
// structured debug information as it goes.
package stabs

import "fmt"

// Kind is a stab symbol type. The values are the conventional N_* codes
// emitted by a.out, COFF and ELF producers.
type Kind uint8

const (
	N_FN_SEQ  Kind = 0x0c
	N_WARNING Kind = 0x1e
	N_FN      Kind = 0x1f
	N_GSYM    Kind = 0x20
	N_FNAME   Kind = 0x22
	N_FUN     Kind = 0x24
	N_STSYM   Kind = 0x26
	N_LCSYM   Kind = 0x28
	N_MAIN    Kind = 0x2a
	N_ROSYM   Kind = 0x2c
	N_PC      Kind = 0x30
	N_NSYMS   Kind = 0x32
	N_NOMAP   Kind = 0x34
	N_OBJ     Kind = 0x38
	N_OPT     Kind = 0x3c
	N_RSYM    Kind = 0x40
	N_SLINE   Kind = 0x44
	N_DSLINE  Kind = 0x46
	N_BSLINE  Kind = 0x48
	N_DEFD    Kind = 0x4a
	N_EHDECL  Kind = 0x50
	N_CATCH   Kind = 0x54
	N_SSYM    Kind = 0x60
	N_ENDM    Kind = 0x62
	N_SO      Kind = 0x64
	N_LSYM    Kind = 0x80
	N_BINCL   Kind = 0x82
	N_SOL     Kind = 0x84
	N_PSYM    Kind = 0xa0
	N_EINCL   Kind = 0xa2
	N_ENTRY   Kind = 0xa4
	N_LBRAC   Kind = 0xc0
	N_EXCL    Kind = 0xc2
	N_SCOPE   Kind = 0xc4
	N_RBRAC   Kind = 0xe0
	N_BCOMM   Kind = 0xe2
	N_ECOMM   Kind = 0xe4
	N_ECOML   Kind = 0xe8
	N_WITH    Kind = 0xea
)

var kindNames = map[Kind]string{
	N_FN_SEQ:  "N_FN_SEQ",
	N_WARNING: "N_WARNING",
	N_FN:      "N_FN",
	N_GSYM:    "N_GSYM",
	N_FNAME:   "N_FNAME",
	N_FUN:     "N_FUN",
	N_STSYM:   "N_STSYM",
	N_LCSYM:   "N_LCSYM",
	N_MAIN:    "N_MAIN",
	N_ROSYM:   "N_ROSYM",
	N_PC:      "N_PC",
	N_OBJ:     "N_OBJ",
	N_OPT:     "N_OPT",
	N_RSYM:    "N_RSYM",
	N_SLINE:   "N_SLINE",
	N_EHDECL:  "N_EHDECL",
	N_CATCH:   "N_CATCH",
	N_SSYM:    "N_SSYM",
	N_ENDM:    "N_ENDM",
	N_SO:      "N_SO",
	N_LSYM:    "N_LSYM",
	N_BINCL:   "N_BINCL",
	N_SOL:     "N_SOL",
	N_PSYM:    "N_PSYM",
	N_EINCL:   "N_EINCL",
	N_ENTRY:   "N_ENTRY",
	N_LBRAC:   "N_LBRAC",
	N_EXCL:    "N_EXCL",
	N_SCOPE:   "N_SCOPE",
	N_RBRAC:   "N_RBRAC",
	N_BCOMM:   "N_BCOMM",
	N_ECOMM:   "N_ECOMM",
	N_ECOML:   "N_ECOML",
	N_WITH:    "N_WITH",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%#02x)", uint8(k))
}

// Record is a single stab symbol table entry as handed to the Decoder
// by a reader such as pkg/stabelf.
type Record struct {
	Kind  Kind
	Desc  uint16
	Value uint64
	Text  string
}
