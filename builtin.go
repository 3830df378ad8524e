package stabs

import "fmt"

// XCOFF and some AIX producers use negative type numbers for a fixed
// set of builtin types instead of defining them in stab strings.
const xcoffTypeCount = 34

// xcoffBuiltinType builds the builtin for a negative type number,
// memoizing per session.
func (d *Decoder) xcoffBuiltinType(typenum int) (Type, error) {
	if typenum >= 0 || typenum < -xcoffTypeCount {
		return nil, fmt.Errorf("%w: unrecognized XCOFF type %d", ErrBadStab, typenum)
	}
	if t := d.xcoffTypes[-typenum-1]; t != nil {
		return t, nil
	}

	b := d.b
	var (
		t    Type
		name string
	)
	// The size of a boolean and a wchar differs between producers;
	// these are the conventional XCOFF widths.
	switch -typenum {
	case 1:
		name = "int"
		t = b.IntType(4, false)
	case 2:
		name = "char"
		t = b.IntType(1, false)
	case 3:
		name = "short"
		t = b.IntType(2, false)
	case 4:
		name = "long"
		t = b.IntType(4, false)
	case 5:
		name = "unsigned char"
		t = b.IntType(1, true)
	case 6:
		name = "signed char"
		t = b.IntType(1, false)
	case 7:
		name = "unsigned short"
		t = b.IntType(2, true)
	case 8:
		name = "unsigned int"
		t = b.IntType(4, true)
	case 9:
		name = "unsigned"
		t = b.IntType(4, true)
	case 10:
		name = "unsigned long"
		t = b.IntType(4, true)
	case 11:
		name = "void"
		t = b.VoidType()
	case 12:
		name = "float"
		t = b.FloatType(4)
	case 13:
		name = "double"
		t = b.FloatType(8)
	case 14:
		name = "long double"
		t = b.FloatType(8)
	case 15:
		name = "integer"
		t = b.IntType(4, false)
	case 16:
		name = "boolean"
		t = b.BoolType(4)
	case 17:
		name = "short real"
		t = b.FloatType(4)
	case 18:
		name = "real"
		t = b.FloatType(8)
	case 19:
		return nil, fmt.Errorf("%w: stringptr builtin is unsupported", ErrBadStab)
	case 20:
		name = "character"
		t = b.IntType(1, true)
	case 21:
		name = "logical*1"
		t = b.BoolType(1)
	case 22:
		name = "logical*2"
		t = b.BoolType(2)
	case 23:
		name = "logical*4"
		t = b.BoolType(4)
	case 24:
		name = "logical"
		t = b.BoolType(4)
	case 25:
		name = "complex"
		t = b.ComplexType(8)
	case 26:
		name = "double complex"
		t = b.ComplexType(16)
	case 27:
		name = "integer*1"
		t = b.IntType(1, false)
	case 28:
		name = "integer*2"
		t = b.IntType(2, false)
	case 29:
		name = "integer*4"
		t = b.IntType(4, false)
	case 30:
		name = "wchar"
		t = b.IntType(2, true)
	case 31:
		name = "integer*8"
		t = b.IntType(8, false)
	case 32:
		name = "logical*8"
		t = b.BoolType(8)
	case 33:
		name = "long long"
		t = b.IntType(8, false)
	case 34:
		name = "unsigned long long"
		t = b.IntType(8, true)
	}
	if t == nil {
		return nil, builderErr(name)
	}
	t = d.b.NameType(t, name)
	if t == nil {
		return nil, builderErr(name)
	}
	d.xcoffTypes[-typenum-1] = t
	return t, nil
}

// v3BuiltinDefaults maps the builtin print names the ABI-v3 demangler
// can produce onto primitives. Widths assume an LP32 target, matching
// the assumptions made elsewhere for range types; override per name
// with WithV3Builtin.
var v3BuiltinDefaults = map[string]V3Builtin{
	"void":               {Kind: KindVoid},
	"bool":               {Kind: KindBool, Size: 1},
	"char":               {Kind: KindInt, Size: 1},
	"signed char":        {Kind: KindInt, Size: 1},
	"unsigned char":      {Kind: KindInt, Size: 1, Unsigned: true},
	"short":              {Kind: KindInt, Size: 2},
	"unsigned short":     {Kind: KindInt, Size: 2, Unsigned: true},
	"int":                {Kind: KindInt, Size: 4},
	"unsigned int":       {Kind: KindInt, Size: 4, Unsigned: true},
	"long":               {Kind: KindInt, Size: 4},
	"unsigned long":      {Kind: KindInt, Size: 4, Unsigned: true},
	"long long":          {Kind: KindInt, Size: 8},
	"unsigned long long": {Kind: KindInt, Size: 8, Unsigned: true},
	"__int128":           {Kind: KindInt, Size: 16},
	"unsigned __int128":  {Kind: KindInt, Size: 16, Unsigned: true},
	"wchar_t":            {Kind: KindInt, Size: 4, Unsigned: true},
	"char8_t":            {Kind: KindInt, Size: 1, Unsigned: true},
	"char16_t":           {Kind: KindInt, Size: 2, Unsigned: true},
	"char32_t":           {Kind: KindInt, Size: 4, Unsigned: true},
	"float":              {Kind: KindFloat, Size: 4},
	"double":             {Kind: KindFloat, Size: 8},
	"long double":        {Kind: KindFloat, Size: 8},
	"__float128":         {Kind: KindFloat, Size: 16},
}

func (d *Decoder) v3Builtin(name string) (V3Builtin, bool) {
	if t, ok := d.opts.v3Builtins[name]; ok {
		return t, true
	}
	t, ok := v3BuiltinDefaults[name]
	return t, ok
}
