package stabs

import "strings"

// parseType parses a type reference or definition at the cursor.
// typeName is the name the type is being defined under, empty when
// anonymous; a few dialect quirks can only be resolved with it. The
// returned slot is non-nil only when the expression defined a type
// number, so that callers recording a typedef can later replace the
// slot with the named type.
func (d *Decoder) parseType(typeName string, c *cursor) (Type, *Slot, error) {
	orig := c.rest()
	if c.eof() {
		return nil, nil, badStab(c.s)
	}

	size := -1
	stringp := false
	d.selfCrossref = false

	// The type number may be omitted, as in the nested element type
	// of a two dimensional array "ar1;1;10;ar1;1;10;4".
	tn := typeNum{-1, -1}
	var slot *Slot
	if ch := c.peek(); isDigit(ch) || ch == '(' || ch == '-' {
		var err error
		if tn, err = c.typenum(); err != nil {
			return nil, nil, err
		}
		if c.peek() != '=' {
			// Not being defined here: either already known or a
			// forward reference.
			t, err := d.findType(tn)
			return t, nil, err
		}
		// Only expose the slot for definitions. The slot then records
		// the name of the typedef defining the number, which is the
		// only way to recover the right name for later uses.
		if slot, err = d.findSlot(tn); err != nil {
			return nil, nil, err
		}
		c.next()

		// Type attributes precede the definition.
		for c.peek() == '@' {
			if ch := c.peekAt(1); isDigit(ch) || ch == '(' || ch == '-' {
				// A member type, not an attribute.
				break
			}
			c.next()
			attr := c.rest()
			for c.peek() != ';' {
				if c.eof() {
					return nil, nil, badStab(orig)
				}
				c.next()
			}
			c.next()
			switch attr[0] {
			case 's':
				// Size in bits; we keep bytes.
				ac := newCursor(attr[1:])
				size = int(ac.number(nil)) / 8
				if size <= 0 {
					size = -1
				}
			case 'S':
				stringp = true
			default:
				// Ignore unrecognized attributes so future compilers
				// can invent new ones.
			}
		}
	}

	var dtype Type
	descriptor := c.next()
	switch descriptor {
	case 'x':
		// Cross reference to a tagged type.
		var code TypeKind
		switch c.next() {
		case 's':
			code = KindStruct
		case 'u':
			code = KindUnion
		case 'e':
			code = KindEnum
		default:
			warnStab(orig, "unrecognized cross reference type")
			code = KindStruct
		}
		rest := c.rest()
		end := strings.IndexByte(rest, ':')
		if end < 0 {
			return nil, nil, badStab(orig)
		}
		// Template names carry :: pairs; scan for the single colon
		// outside any <> nesting.
		if lt := strings.IndexByte(rest, '<'); lt >= 0 && end > lt &&
			end+1 < len(rest) && rest[end+1] == ':' {
			nest := 0
			end = -1
			for i := lt; i < len(rest); i++ {
				switch rest[i] {
				case '<':
					nest++
				case '>':
					nest--
				case ':':
					if nest == 0 {
						end = i
					}
				}
				if end >= 0 {
					break
				}
			}
			if end < 0 {
				return nil, nil, badStab(orig)
			}
		}
		tag := rest[:end]
		// Some versions of g++ emit "fleep:T20=xsfleep:", defining a
		// structure in terms of itself. The caller has to know so it
		// does not build circular information.
		if typeName != "" && typeName == tag {
			d.selfCrossref = true
		}
		var err error
		if dtype, err = d.findTaggedType(tag, code); err != nil {
			return nil, nil, err
		}
		c.advance(end + 1)

	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '(':
		// Defined as another type.
		c.pos--
		hold := c.pos
		xtn, err := c.typenum()
		if err != nil {
			return nil, nil, err
		}
		if tn == xtn {
			// A type defined as itself is void.
			dtype = d.b.VoidType()
		} else {
			// Re-parse as a full type so that chained definitions
			// like "(1,2)=(3,4)=..." from the Lucid compiler work.
			c.pos = hold
			if dtype, _, err = d.parseType("", c); err != nil {
				return nil, nil, err
			}
		}
		if tn.file != -1 {
			if err := d.recordType(tn, dtype); err != nil {
				return nil, nil, err
			}
		}

	case '*':
		target, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.PointerType(target)

	case '&':
		target, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.ReferenceType(target)

	case 'f':
		// Function returning another type.
		ret, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.FunctionType(ret, nil, false)

	case 'k':
		// Sun const qualifier.
		target, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.ConstType(target)

	case 'B':
		// Sun volatile qualifier.
		target, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.VolatileType(target)

	case '@':
		// Offset type: a pointer relative to an object.
		domain, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		if !c.skip(',') {
			return nil, nil, badStab(orig)
		}
		memtype, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.OffsetType(domain, memtype)

	case '#':
		// Method type. ## abbreviates a method with unknown domain
		// and arguments.
		if c.skip('#') {
			ret, _, err := d.parseType("", c)
			if err != nil {
				return nil, nil, err
			}
			if !c.skip(';') {
				return nil, nil, badStab(orig)
			}
			dtype = d.b.MethodType(ret, nil, nil, false)
		} else {
			domain, _, err := d.parseType("", c)
			if err != nil {
				return nil, nil, err
			}
			if !c.skip(',') {
				return nil, nil, badStab(orig)
			}
			ret, _, err := d.parseType("", c)
			if err != nil {
				return nil, nil, err
			}
			var args []Type
			for !c.skip(';') {
				if !c.skip(',') {
					return nil, nil, badStab(orig)
				}
				arg, _, err := d.parseType("", c)
				if err != nil {
					return nil, nil, err
				}
				args = append(args, arg)
			}
			// A trailing void means a fixed argument list; anything
			// else means varargs.
			varargs := true
			if n := len(args); n > 0 && d.b.Kind(args[n-1]) == KindVoid {
				args = args[:n-1]
				varargs = false
			}
			dtype = d.b.MethodType(ret, domain, args, varargs)
		}

	case 'r':
		var err error
		if dtype, err = d.parseRangeType(typeName, c, tn, orig); err != nil {
			return nil, nil, err
		}

	case 'b':
		// Sun ACC builtin integral type.
		var err error
		if dtype, err = d.parseSunBuiltinType(c, orig); err != nil {
			return nil, nil, err
		}

	case 'R':
		// Sun ACC builtin floating type.
		var err error
		if dtype, err = d.parseSunFloatType(c, orig); err != nil {
			return nil, nil, err
		}

	case 'e':
		var err error
		if dtype, err = d.parseEnumType(c, orig); err != nil {
			return nil, nil, err
		}

	case 's', 'u':
		var err error
		if dtype, err = d.parseStructType(typeName, c, descriptor == 's', tn, orig); err != nil {
			return nil, nil, err
		}

	case 'a':
		if !c.skip('r') {
			return nil, nil, badStab(orig)
		}
		var err error
		if dtype, err = d.parseArrayType(c, stringp, orig); err != nil {
			return nil, nil, err
		}

	case 'S':
		target, _, err := d.parseType("", c)
		if err != nil {
			return nil, nil, err
		}
		dtype = d.b.SetType(target, stringp)

	default:
		return nil, nil, badStab(orig)
	}

	if dtype == nil {
		return nil, nil, builderErr(orig)
	}
	if tn.file != -1 {
		if err := d.recordType(tn, dtype); err != nil {
			return nil, nil, err
		}
	}
	if size != -1 {
		if err := d.b.RecordTypeSize(dtype, size); err != nil {
			return nil, nil, err
		}
	}
	return dtype, slot, nil
}

// gcc emits range bounds for long long as untranslatable literals;
// recognize the raw spellings.
const (
	llLow      = "01000000000000000000000;"
	llLowHex   = "0x8000000000000000;"
	llHigh     = "0777777777777777777777;"
	llHighHex  = "0x7fffffffffffffff;"
	ullHigh    = "01777777777777777777777;"
	ullHighHex = "0xffffffffffffffff;"
)

// parseRangeType handles the r descriptor. The two bound operands
// usually are the range, but a set of magic combinations encode the
// basic types instead.
func (d *Decoder) parseRangeType(typeName string, c *cursor, tn typeNum, orig string) (Type, error) {
	// First comes the type we are a subrange of, in C usually 0, 1 or
	// the type being defined.
	hold := c.pos
	rangenums, err := c.typenum()
	if err != nil {
		return nil, err
	}
	selfSubrange := rangenums == tn

	var indexType Type
	if c.peek() == '=' {
		c.pos = hold
		if indexType, _, err = d.parseType("", c); err != nil {
			return nil, err
		}
	}
	c.skip(';')

	s2 := c.rest()
	var ov2, ov3 bool
	n2 := c.number(&ov2)
	if !c.skip(';') {
		return nil, badStab(orig)
	}
	s3 := c.rest()
	n3 := c.number(&ov3)
	if !c.skip(';') {
		return nil, badStab(orig)
	}

	if ov2 || ov3 {
		// Bounds too wide for the host: only the long long idioms
		// are expected here, and only when no index type spells out
		// what the range really is.
		if indexType == nil {
			if strings.HasPrefix(s2, llLow) || strings.HasPrefix(s2, llLowHex) {
				if strings.HasPrefix(s3, llHigh) || strings.HasPrefix(s3, llHighHex) {
					return d.b.IntType(8, false), nil
				}
			} else if !ov2 && n2 == 0 &&
				(strings.HasPrefix(s3, ullHigh) || strings.HasPrefix(s3, ullHighHex)) {
				return d.b.IntType(8, true), nil
			}
		}
		warnStab(orig, "numeric overflow")
	}

	if indexType == nil {
		switch {
		// A subrange of itself with both bounds zero is void.
		case selfSubrange && n2 == 0 && n3 == 0:
			return d.b.VoidType(), nil
		// A subrange of itself with a positive byte count is complex.
		case selfSubrange && n3 == 0 && n2 > 0:
			return d.b.ComplexType(int(n2)), nil
		// A positive byte count with upper bound zero is floating.
		case n3 == 0 && n2 > 0:
			return d.b.FloatType(int(n2)), nil
		// An upper bound of -1 is unsigned int. With -gstabs gcc
		// describes the whole of a long long as int; trust the name.
		case n2 == 0 && n3 == -1:
			switch typeName {
			case "long long int":
				return d.b.IntType(8, false), nil
			case "long long unsigned int":
				return d.b.IntType(8, true), nil
			}
			return d.b.IntType(4, true), nil
		// 0 to 127 is char.
		case selfSubrange && n2 == 0 && n3 == 127:
			return d.b.IntType(1, false), nil
		}

		if n2 == 0 {
			switch {
			case n3 < 0:
				return d.b.IntType(int(-n3), true), nil
			case n3 == 0xff:
				return d.b.IntType(1, true), nil
			case n3 == 0xffff:
				return d.b.IntType(2, true), nil
			case n3 == 0xffffffff:
				return d.b.IntType(4, true), nil
			case uint64(n3) == 0xffffffffffffffff:
				return d.b.IntType(8, true), nil
			}
		} else if n3 == 0 && n2 < 0 && (selfSubrange || n2 == -8) {
			return d.b.IntType(int(-n2), true), nil
		} else if n2 == -n3-1 || n2 == n3+1 {
			switch n3 {
			case 0x7f:
				return d.b.IntType(1, false), nil
			case 0x7fff:
				return d.b.IntType(2, false), nil
			case 0x7fffffff:
				return d.b.IntType(4, false), nil
			case 0x7fffffffffffffff:
				return d.b.IntType(8, false), nil
			}
		}
	}

	// A self subrange that survived the special cases above is not
	// something we know how to build.
	if selfSubrange {
		return nil, badStab(orig)
	}

	if indexType == nil {
		indexType, err = d.findType(rangenums)
		if err != nil || indexType == nil {
			warnStab(orig, "missing index type")
			indexType = d.b.IntType(4, false)
		}
	}
	return d.b.RangeType(indexType, n2, n3), nil
}

// parseSunBuiltinType handles the b descriptor: signedness, an
// optional char or bool marker, then three numbers of which only the
// bit count matters.
func (d *Decoder) parseSunBuiltinType(c *cursor, orig string) (Type, error) {
	var unsignedp, boolp bool
	switch c.next() {
	case 's':
	case 'u':
		unsignedp = true
	default:
		return nil, badStab(orig)
	}

	// All forms of char put a c here, boolean forms a b. Width alone
	// decides charness, so c carries no information.
	if !c.skip('c') && c.skip('b') {
		boolp = true
	}

	// The first number is the byte count, redundant with the bit
	// count below (and wrong for unsigned short on some producers).
	c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}
	// The second number is always zero.
	c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}
	bits := c.number(nil)
	// Sun's compiler omits the trailing semicolon for void when the
	// type ends the string.
	c.skip(';')

	if bits == 0 {
		return d.b.VoidType(), nil
	}
	if boolp {
		return d.b.BoolType(int(bits / 8)), nil
	}
	return d.b.IntType(int(bits/8), unsignedp), nil
}

// Sun floating type details that mean a complex type.
const (
	nfComplex   = 3
	nfComplex16 = 4
	nfComplex32 = 5
)

func (d *Decoder) parseSunFloatType(c *cursor, orig string) (Type, error) {
	details := c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}
	bytes := c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}
	if details == nfComplex || details == nfComplex16 || details == nfComplex32 {
		return d.b.ComplexType(int(bytes)), nil
	}
	return d.b.FloatType(int(bytes)), nil
}

// parseEnumType reads NAME:VALUE, pairs up to a semicolon or comma.
func (d *Decoder) parseEnumType(c *cursor, orig string) (Type, error) {
	// The aix4 compiler emits an extra leading field; skip it.
	if c.peek() == '-' {
		for c.peek() != ':' {
			if c.eof() {
				return nil, badStab(orig)
			}
			c.next()
		}
		c.next()
	}

	var names []string
	var values []int64
	for {
		switch c.peek() {
		case 0, ';', ',':
			goto done
		}
		rest := c.rest()
		end := strings.IndexByte(rest, ':')
		if end < 0 {
			return nil, badStab(orig)
		}
		names = append(names, rest[:end])
		c.advance(end + 1)
		values = append(values, c.number(nil))
		if !c.skip(',') {
			return nil, badStab(orig)
		}
	}
done:
	c.skip(';')
	return d.b.EnumType(names, values), nil
}

// parseArrayType reads "<index type>;lower;upper;<element type>".
// Fortran adjustable arrays replace a bound with a letter prefixed
// marker; those become open arrays.
func (d *Decoder) parseArrayType(c *cursor, stringp bool, orig string) (Type, error) {
	adjustable := false

	if ch := c.peek(); !isDigit(ch) && ch != '(' {
		return nil, badStab(orig)
	}
	indexType, _, err := d.parseType("", c)
	if err != nil {
		return nil, err
	}
	if !c.skip(';') {
		return nil, badStab(orig)
	}

	if ch := c.peek(); !isDigit(ch) && ch != '-' {
		c.next()
		adjustable = true
	}
	lower := c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}

	if ch := c.peek(); !isDigit(ch) && ch != '-' {
		c.next()
		adjustable = true
	}
	upper := c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}

	elem, _, err := d.parseType("", c)
	if err != nil {
		return nil, err
	}

	if adjustable {
		lower = 0
		upper = -1
	}
	return d.b.ArrayType(elem, indexType, lower, upper, stringp), nil
}
