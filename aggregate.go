package stabs

import (
	"fmt"
	"strings"
)

// parseStructType reads the payload of an s or u descriptor: size,
// optional base classes, fields, member functions and the vtable
// pointer marker. A plain C aggregate comes out as a struct type;
// anything carrying C++ baggage becomes an object type.
func (d *Decoder) parseStructType(tagname string, c *cursor, structp bool, tn typeNum, orig string) (Type, error) {
	size := c.number(nil)

	bases, err := d.parseBaseclasses(c, orig)
	if err != nil {
		return nil, err
	}
	fields, statics, err := d.parseStructFields(c, orig)
	if err != nil {
		return nil, err
	}
	methods, err := d.parseMembers(tagname, c, tn, orig)
	if err != nil {
		return nil, err
	}
	vptrBase, ownVptr, err := d.parseTildeField(c, tn, orig)
	if err != nil {
		return nil, err
	}

	if !statics && bases == nil && methods == nil && vptrBase == nil && !ownVptr {
		return d.b.StructType(structp, size, fields), nil
	}
	return d.b.ObjectType(structp, size, fields, bases, methods, vptrBase, ownVptr), nil
}

// parseBaseclasses reads the !COUNT, prefix of a class with base
// classes: per base a virtual flag, a visibility, the bit offset of
// the subobject and its type.
func (d *Decoder) parseBaseclasses(c *cursor, orig string) ([]Baseclass, error) {
	if !c.skip('!') {
		return nil, nil
	}
	count := int(c.number(nil))
	if !c.skip(',') {
		return nil, badStab(orig)
	}

	classes := make([]Baseclass, 0, count)
	for i := 0; i < count; i++ {
		var virtual bool
		switch c.next() {
		case '0':
		case '1':
			virtual = true
		case 0:
			return nil, badStab(orig)
		default:
			warnStab(orig, "unknown virtual character for baseclass")
		}

		vis := VisibilityPublic
		switch c.next() {
		case '0':
			vis = VisibilityPrivate
		case '1':
			vis = VisibilityProtected
		case '2':
		case 0:
			return nil, badStab(orig)
		default:
			warnStab(orig, "unknown visibility character for baseclass")
		}

		// The bit offset of the subobject within the object; zero
		// without multiple inheritance.
		bitpos := c.number(nil)
		if !c.skip(',') {
			return nil, badStab(orig)
		}

		t, _, err := d.parseType("", c)
		if err != nil {
			return nil, err
		}
		bc := d.b.MakeBaseclass(t, bitpos, virtual, vis)
		if bc == nil {
			return nil, builderErr("baseclass")
		}
		classes = append(classes, bc)

		if !c.skip(';') {
			return nil, badStab(orig)
		}
	}
	return classes, nil
}

// parseStructFields reads data members up to the terminating
// semicolon, stopping early at the double colon that introduces
// member functions.
func (d *Decoder) parseStructFields(c *cursor, orig string) ([]Field, bool, error) {
	var fields []Field
	statics := false

	for c.peek() != ';' {
		if c.eof() {
			return nil, false, badStab(orig)
		}

		// A leading $ or . marks a compiler generated member, unless
		// followed by an underscore, which just names an anonymous
		// type. A real field name can never contain these.
		if ch := c.peek(); (ch == '$' || ch == '.') && c.peekAt(1) != '_' {
			c.next()
			f, err := d.parseCppAbbrev(c, orig)
			if err != nil {
				return nil, false, err
			}
			fields = append(fields, f)
			continue
		}

		// A single colon separates a data member's name from its
		// values; a pair hands over to the member function parser.
		rest := c.rest()
		colon := strings.IndexByte(rest, ':')
		if colon < 0 {
			return nil, false, badStab(orig)
		}
		if colon+1 < len(rest) && rest[colon+1] == ':' {
			break
		}

		f, static, err := d.parseOneStructField(c, colon, orig)
		if err != nil {
			return nil, false, err
		}
		statics = statics || static
		fields = append(fields, f)
	}
	return fields, statics, nil
}

// parseCppAbbrev expands the $vf and $vb abbreviations for virtual
// table and virtual base pointers.
func (d *Decoder) parseCppAbbrev(c *cursor, orig string) (Field, error) {
	if !c.skip('v') {
		return nil, badStab(orig)
	}
	abbrev := c.next()

	if !c.skip(':') {
		return nil, badStab(orig)
	}
	t, _, err := d.parseType("", c)
	if err != nil {
		return nil, err
	}

	var name string
	switch abbrev {
	case 'f':
		name = "_vptr$"
	case 'b':
		name = "_vb$" + d.b.TypeName(t)
	default:
		warnStab(orig, "unrecognized C++ abbreviation")
		name = "INVALID_CPLUSPLUS_ABBREV"
	}

	if !c.skip(',') {
		return nil, badStab(orig)
	}
	bitpos := c.number(nil)
	if !c.skip(';') {
		return nil, badStab(orig)
	}

	f := d.b.MakeField(name, t, bitpos, 0, VisibilityPrivate)
	if f == nil {
		return nil, builderErr("field " + name)
	}
	return f, nil
}

// parseOneStructField reads one data member: name, optional
// visibility, type, then either :PHYSNAME; for a static member or
// ,BITPOS,BITSIZE; for an instance member.
func (d *Decoder) parseOneStructField(c *cursor, colon int, orig string) (Field, bool, error) {
	name := c.rest()[:colon]
	c.advance(colon + 1)

	vis := VisibilityPublic
	if c.skip('/') {
		switch c.next() {
		case '0':
			vis = VisibilityPrivate
		case '1':
			vis = VisibilityProtected
		case '2':
		case '9':
			vis = VisibilityIgnore
		default:
			warnStab(orig, "unknown visibility character for field")
		}
	}

	t, _, err := d.parseType("", c)
	if err != nil {
		return nil, false, err
	}

	if c.skip(':') {
		// Static class member; the name of its variable follows.
		rest := c.rest()
		end := strings.IndexByte(rest, ';')
		if end < 0 {
			return nil, false, badStab(orig)
		}
		varname := rest[:end]
		c.advance(end + 1)
		f := d.b.MakeStaticMember(name, t, varname, vis)
		if f == nil {
			return nil, false, builderErr("static member " + name)
		}
		return f, true, nil
	}

	if !c.skip(',') {
		return nil, false, badStab(orig)
	}
	bitpos := c.number(nil)
	if !c.skip(',') {
		return nil, false, badStab(orig)
	}
	bitsize := c.number(nil)
	if !c.skip(';') {
		return nil, false, badStab(orig)
	}

	// Either a field optimized out by gcc before VISIBILITY_IGNORE
	// existed, or a zero length array; ignoring handles both.
	if bitpos == 0 && bitsize == 0 {
		vis = VisibilityIgnore
	}

	f := d.b.MakeField(name, t, bitpos, bitsize, vis)
	if f == nil {
		return nil, false, builderErr("field " + name)
	}
	return f, false, nil
}

// parseMembers reads the member functions of a class. Each method name
// is followed by one or more variants (overloads); a variant whose
// mangled stub cannot be demangled is dropped with a warning rather
// than poisoning the whole class.
func (d *Decoder) parseMembers(tagname string, c *cursor, tn typeNum, orig string) ([]Method, error) {
	var methods []Method

	for c.peek() != ';' {
		rest := c.rest()
		colon := strings.IndexByte(rest, ':')
		if colon < 0 || colon+1 >= len(rest) || rest[colon+1] != ':' {
			break
		}

		// "op$::NAME." hides an operator name that may itself contain
		// colons behind the marker, an old cfront convention.
		var name string
		if strings.HasPrefix(rest, "op$") {
			c.advance(5)
			rest = c.rest()
			dot := strings.IndexByte(rest, '.')
			if dot < 0 {
				return nil, badStab(orig)
			}
			name = rest[:dot]
			c.advance(dot + 1)
		} else {
			name = rest[:colon]
			c.advance(colon + 2)
		}

		var variants []MethodVariant
		var lookAhead Type

		for {
			var t Type
			var err error
			if lookAhead != nil {
				// g++ version 1 overloaded methods make the type of
				// the next variant visible one step early.
				t = lookAhead
				lookAhead = nil
			} else {
				if t, _, err = d.parseType("", c); err != nil {
					return nil, err
				}
				if c.peek() != ':' {
					return nil, badStab(orig)
				}
			}
			c.next()

			rest := c.rest()
			end := strings.IndexByte(rest, ';')
			if end < 0 {
				return nil, badStab(orig)
			}
			argtypes := rest[:end]
			c.advance(end + 1)

			// A method type with no argument list is a stub: the
			// argtypes string then holds mangled argument types
			// instead of the physical name.
			stub := false
			if d.b.Kind(t) == KindMethod {
				if args, _ := d.b.ParameterTypes(t); args == nil {
					stub = true
				}
			}

			vis := VisibilityPublic
			switch c.next() {
			case '0':
				vis = VisibilityPrivate
			case '1':
				vis = VisibilityProtected
			case '2':
			case 0:
				return nil, badStab(orig)
			}

			constp := false
			volatilep := false
			switch c.peek() {
			case 'A':
				c.next()
			case 'B':
				constp = true
				c.next()
			case 'C':
				volatilep = true
				c.next()
			case 'D':
				constp = true
				volatilep = true
				c.next()
			case '*', '?', '.':
				// Compiled by g++ version 1; no information.
			default:
				warnStab(orig, "const/volatile indicator missing")
			}

			staticp := false
			var voffset int64
			var context Type
			switch c.peek() {
			case '*':
				// Virtual function, followed by its vtable index. The
				// sign bit distinguishes the index from a pointer to
				// method.
				c.next()
				voffset = c.number(nil)
				if !c.skip(';') {
					return nil, badStab(orig)
				}
				voffset &= 0x7fffffff
				if ch := c.peek(); ch != ';' && ch != 0 {
					// The base class whose vtable carries this entry.
					if lookAhead, _, err = d.parseType("", c); err != nil {
						return nil, err
					}
					if c.peek() == ':' {
						// g++ version 1 overloaded methods: what we
						// read is the next variant's type.
						context = nil
					} else {
						context = lookAhead
						lookAhead = nil
						if !c.skip(';') {
							return nil, badStab(orig)
						}
					}
				}
			case '?':
				c.next()
				staticp = true
				if !strings.HasPrefix(argtypes, name) {
					stub = true
				}
			case '.':
				c.next()
			default:
				warnStab(orig, "member function type missing")
			}

			// When the type is a stub, reconstruct the full method
			// type and physical name from the mangled fragments.
			physname := argtypes
			if stub {
				classType, err := d.findType(tn)
				if err != nil {
					return nil, err
				}
				ret := d.b.ReturnType(t)
				if ret == nil {
					return nil, badStab(orig)
				}
				var derr error
				t, physname, derr = d.parseArgtypes(classType, name, tagname, ret, argtypes, constp, volatilep)
				if derr != nil {
					log.WithError(derr).Warnf("dropping method variant %s of %s", name, tagname)
					if ch := c.peek(); ch != ';' && ch != 0 {
						continue
					}
					break
				}
			}

			var mv MethodVariant
			if staticp {
				mv = d.b.MakeStaticMethodVariant(physname, t, vis, constp, volatilep)
			} else {
				mv = d.b.MakeMethodVariant(physname, t, vis, constp, volatilep, voffset, context)
			}
			if mv == nil {
				return nil, builderErr("method variant " + name)
			}
			variants = append(variants, mv)

			if ch := c.peek(); ch == ';' || ch == 0 {
				break
			}
		}
		if c.peek() != 0 {
			c.next()
		}

		m := d.b.MakeMethod(name, variants)
		if m == nil {
			return nil, builderErr("method " + name)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// parseTildeField reads the trailing ~%TYPE; marker naming the class,
// possibly a base class, that supplies the vtable.
func (d *Decoder) parseTildeField(c *cursor, tn typeNum, orig string) (Type, bool, error) {
	c.skip(';')

	if !c.skip('~') {
		return nil, false, nil
	}

	// Obsolete constructor/destructor presence flags.
	if ch := c.peek(); ch == '=' || ch == '+' || ch == '-' {
		c.next()
	}

	if !c.skip('%') {
		return nil, false, nil
	}

	hold := c.pos
	vtn, err := c.typenum()
	if err != nil {
		return nil, false, err
	}

	if vtn == tn {
		// Our own class supplies the vtable.
		if !d.skipToSemi(c) {
			return nil, false, badStab(orig)
		}
		return nil, true, nil
	}

	c.pos = hold
	vtype, _, err := d.parseType("", c)
	if err != nil {
		return nil, false, err
	}
	if !d.skipToSemi(c) {
		return nil, false, badStab(orig)
	}
	return vtype, false, nil
}

func (d *Decoder) skipToSemi(c *cursor) bool {
	rest := c.rest()
	end := strings.IndexByte(rest, ';')
	if end < 0 {
		return false
	}
	c.advance(end + 1)
	return true
}

// parseArgtypes recovers a stubbed method's type. The physical name is
// reconstructed the way g++ mangles it and then demangled to get at
// the argument types.
func (d *Decoder) parseArgtypes(classType Type, fieldname, tagname string,
	returnType Type, argtypes string, constp, volatilep bool) (Type, string, error) {

	// Constructors and destructors arrive with a complete physical
	// name already, as do ABI-v3 names.
	fullConstructor := (strings.HasPrefix(argtypes, "__") && len(argtypes) > 2 &&
		(isDigit(argtypes[2]) || argtypes[2] == 'Q' || argtypes[2] == 't')) ||
		strings.HasPrefix(argtypes, "__ct")
	constructor := fullConstructor || (tagname != "" && fieldname == tagname)
	destructor := strings.HasPrefix(argtypes, "_") && len(argtypes) > 2 &&
		(argtypes[1] == '$' || argtypes[1] == '.') && argtypes[2] == '_'
	v3 := strings.HasPrefix(argtypes, "_Z")

	physname := argtypes
	physnameLen := 0
	if !destructor && !fullConstructor && !v3 {
		if strings.HasPrefix(fieldname, "op") && len(fieldname) > 2 &&
			(fieldname[2] == '$' || fieldname[2] == '.') {
			// Encoded operator names are not supported by the
			// demangler any more.
			return nil, "", fmt.Errorf("%w: encoded operator name %s", ErrBadMangled, fieldname)
		}

		cv := ""
		if constp {
			cv += "C"
		}
		if volatilep {
			cv += "V"
		}
		var sep string
		switch {
		case tagname == "":
			sep = "__" + cv
		case strings.ContainsRune(tagname, '<'):
			// Template methods are fully mangled.
			sep = "__" + cv
			tagname = ""
		default:
			sep = fmt.Sprintf("__%s%d", cv, len(tagname))
		}

		var sb strings.Builder
		if !constructor {
			sb.WriteString(fieldname)
		}
		physnameLen = sb.Len()
		sb.WriteString(sep)
		sb.WriteString(tagname)
		sb.WriteString(argtypes)
		physname = sb.String()
	}

	sa, err := d.demangleArgtypes(physname, physnameLen)
	if err != nil {
		return nil, "", err
	}
	t := d.b.MethodType(returnType, classType, sa.args, sa.varargs)
	if t == nil {
		return nil, "", builderErr("method type " + physname)
	}
	return t, physname, nil
}

// demangleArgtypes extracts a stub's argument types from its physical
// name, caching per session since overloads repeat within a unit.
func (d *Decoder) demangleArgtypes(physname string, physnameLen int) (stubArgs, error) {
	if d.demcache != nil {
		if sa, ok := d.demcache.Get(physname); ok {
			return sa, nil
		}
	}
	var sa stubArgs
	var err error
	if strings.HasPrefix(physname, "_Z") {
		sa, err = d.demangleV3Argtypes(physname)
	} else {
		sa, err = d.demangleV2Argtypes(physname, physnameLen)
	}
	if err != nil {
		return stubArgs{}, err
	}
	if d.demcache != nil {
		d.demcache.Add(physname, sa)
	}
	return sa, nil
}
