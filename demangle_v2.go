package stabs

import "strings"

// Demangler for the old g++ (pre ABI-v3) mangling of method stubs.
// Only the argument types are recovered; names are scanned just far
// enough to find the signature. Back references index a table of
// remembered type substrings which are simply re-parsed on use.
type v2Demangler struct {
	d           *Decoder
	args        []Type
	varargs     bool
	typestrings []string
}

// demangleV2Argtypes extracts argument types from an old style
// physical name. physnameLen is the length of the field name prefix
// when the caller constructed the name itself, zero when the producer
// supplied the whole thing.
func (d *Decoder) demangleV2Argtypes(physname string, physnameLen int) (stubArgs, error) {
	dm := &v2Demangler{d: d}
	c := newCursor(physname)
	if err := dm.prefix(c, physnameLen); err != nil {
		return stubArgs{}, err
	}
	if !c.eof() {
		if err := dm.signature(c); err != nil {
			return stubArgs{}, err
		}
	}
	if dm.args == nil {
		log.Warnf("no argument types in mangled string %s", physname)
	}
	return stubArgs{args: dm.args, varargs: dm.varargs}, nil
}

// prefix positions the cursor after the __ separating the function
// name from the signature.
func (dm *v2Demangler) prefix(c *cursor, physnameLen int) error {
	var scan int
	if physnameLen > 0 {
		scan = physnameLen
	} else {
		// Find the first __, then move to the last contiguous run.
		scan = strings.Index(c.s, "__")
		if scan < 0 {
			return badMangled(c.s)
		}
		i := scan
		for i < len(c.s) && c.s[i] == '_' {
			i++
		}
		if i-scan > 2 {
			scan = i - 2
		}
	}

	if scan+2 > len(c.s) {
		return badMangled(c.s)
	}
	after := byte(0)
	if scan+2 < len(c.s) {
		after = c.s[scan+2]
	}

	if scan == 0 && (isDigit(after) || after == 'Q' || after == 't') {
		// A GNU style constructor name.
		c.pos = scan + 2
		return nil
	}
	if scan == 0 {
		// The whole name starts with __; the separator is a later
		// __ pair.
		i := scan
		for i < len(c.s) && c.s[i] == '_' {
			i++
		}
		sep := strings.Index(c.s[i:], "__")
		if sep < 0 || i+sep+2 >= len(c.s) {
			return badMangled(c.s)
		}
		return dm.functionName(c, i+sep)
	}
	if scan+2 < len(c.s) {
		return dm.functionName(c, scan)
	}
	return badMangled(c.s)
}

// functionName skips the function name part. Type conversion
// operators embed a type which has to be scanned so that later back
// references line up.
func (dm *v2Demangler) functionName(c *cursor, sep int) error {
	name := c.s[:sep]
	c.pos = sep + 2

	if strings.HasPrefix(name, "type") && len(name) > 4 &&
		(name[4] == '$' || name[4] == '.') {
		tem := newCursor(c.rest())
		if _, err := dm.typ(tem, false); err != nil {
			return err
		}
	} else if strings.HasPrefix(name, "__op") {
		tem := newCursor(name[4:])
		if _, err := dm.typ(tem, false); err != nil {
			return err
		}
	}
	return nil
}

// signature walks the qualifiers before the argument list: the class
// name or names the method belongs to, const markers, an explicit F,
// then the arguments themselves.
func (dm *v2Demangler) signature(c *cursor) error {
	orig := c.s
	expectFunc := false
	funcDone := false
	hold := -1

	for !c.eof() {
		switch ch := c.peek(); {
		case ch == 'Q':
			start := c.pos
			if _, err := dm.qualified(c, false); err != nil {
				return err
			}
			dm.remember(c.s[start:c.pos])
			expectFunc = true
			hold = -1

		case ch == 'S', ch == 'C':
			// Static or const member function marker.
			if hold < 0 {
				hold = c.pos
			}
			c.next()

		case isDigit(ch):
			if hold < 0 {
				hold = c.pos
			}
			if _, err := dm.class(c); err != nil {
				return err
			}
			dm.remember(c.s[hold:c.pos])
			expectFunc = true
			hold = -1

		case ch == 'F':
			hold = -1
			funcDone = true
			c.next()
			if err := dm.demangleArgs(c); err != nil {
				return err
			}

		case ch == 't':
			if hold < 0 {
				hold = c.pos
			}
			if _, err := dm.template(c, false); err != nil {
				return err
			}
			dm.remember(c.s[hold:c.pos])
			hold = -1
			expectFunc = true

		case ch == '_':
			// No return type can appear at the outermost level; this
			// is a mangling we do not understand.
			return badMangled(orig)

		default:
			// The first argument token.
			funcDone = true
			if err := dm.demangleArgs(c); err != nil {
				return err
			}
		}

		if expectFunc {
			funcDone = true
			if err := dm.demangleArgs(c); err != nil {
				return err
			}
			expectFunc = false
		}
	}

	if !funcDone {
		// bar__3foo is foo::bar(void); make sure the empty argument
		// list is seen.
		if err := dm.demangleArgs(c); err != nil {
			return err
		}
	}
	return nil
}

// count scans a plain decimal run.
func (dm *v2Demangler) count(c *cursor) int {
	n := 0
	for isDigit(c.peek()) {
		n = n*10 + int(c.peek()-'0')
		c.next()
	}
	return n
}

// getCount scans a repeat or index count: a single digit, or several
// digits terminated by an underscore.
func (dm *v2Demangler) getCount(c *cursor) (int, bool) {
	if !isDigit(c.peek()) {
		return 0, false
	}
	n := int(c.next() - '0')
	if isDigit(c.peek()) {
		i := n
		p := c.pos
		for p < len(c.s) && isDigit(c.s[p]) {
			i = i*10 + int(c.s[p]-'0')
			p++
		}
		if p < len(c.s) && c.s[p] == '_' {
			c.pos = p + 1
			n = i
		}
	}
	return n, true
}

// class skips a <count><name> class reference.
func (dm *v2Demangler) class(c *cursor) (string, error) {
	n := dm.count(c)
	if n == 0 || len(c.rest()) < n {
		return "", badMangled(c.s)
	}
	name := c.rest()[:n]
	c.advance(n)
	return name, nil
}

// demangleArgs reads the argument list, expanding N and T back
// references into the remembered types.
func (dm *v2Demangler) demangleArgs(c *cursor) error {
	orig := c.s
	if dm.args == nil {
		dm.args = make([]Type, 0, 4)
	}

	for {
		switch ch := c.peek(); ch {
		case '_', 0, 'e':
			goto done
		case 'N', 'T':
			c.next()
			r := 1
			if ch == 'N' {
				var ok bool
				if r, ok = dm.getCount(c); !ok {
					return badMangled(orig)
				}
			}
			t, ok := dm.getCount(c)
			if !ok || t >= len(dm.typestrings) {
				return badMangled(orig)
			}
			for ; r > 0; r-- {
				tem := newCursor(dm.typestrings[t])
				if err := dm.arg(tem); err != nil {
					return err
				}
			}
		default:
			if err := dm.arg(c); err != nil {
				return err
			}
		}
	}
done:
	if c.peek() == 'e' {
		dm.varargs = true
		c.next()
	}
	return nil
}

func (dm *v2Demangler) arg(c *cursor) error {
	start := c.pos
	t, err := dm.typ(c, true)
	if err != nil {
		return err
	}
	dm.remember(c.s[start:c.pos])
	if t == nil {
		return badMangled(c.s)
	}
	dm.args = append(dm.args, t)
	return nil
}

func (dm *v2Demangler) remember(s string) {
	dm.typestrings = append(dm.typestrings, s)
}

// typ parses one type. With want false the type is only scanned, no
// builder calls or tag lookups are made; back reference bookkeeping
// still happens.
func (dm *v2Demangler) typ(c *cursor, want bool) (Type, error) {
	orig := c.s
	b := dm.d.b

	switch c.peek() {
	case 'P', 'p':
		c.next()
		t, err := dm.typ(c, want)
		if err != nil {
			return nil, err
		}
		if !want {
			return nil, nil
		}
		return b.PointerType(t), nil

	case 'R':
		c.next()
		t, err := dm.typ(c, want)
		if err != nil {
			return nil, err
		}
		if !want {
			return nil, nil
		}
		return b.ReferenceType(t), nil

	case 'A':
		// An array with its upper bound.
		c.next()
		high := int64(0)
		for c.peek() != '_' {
			if !isDigit(c.peek()) {
				return nil, badMangled(orig)
			}
			high = high*10 + int64(c.next()-'0')
		}
		c.next()
		t, err := dm.typ(c, want)
		if err != nil {
			return nil, err
		}
		if !want {
			return nil, nil
		}
		indexType := b.FindNamedType("int")
		if indexType == nil {
			indexType = b.IntType(4, false)
		}
		return b.ArrayType(t, indexType, 0, high, false), nil

	case 'T':
		// Back reference to a remembered type.
		c.next()
		i, ok := dm.getCount(c)
		if !ok || i >= len(dm.typestrings) {
			return nil, badMangled(orig)
		}
		tem := newCursor(dm.typestrings[i])
		return dm.typ(tem, want)

	case 'F':
		// Function type with explicit return type.
		c.next()
		sub := &v2Demangler{d: dm.d, typestrings: dm.typestrings}
		if err := sub.demangleArgs(c); err != nil {
			return nil, err
		}
		if !c.skip('_') {
			return nil, badMangled(orig)
		}
		ret, err := dm.typ(c, want)
		if err != nil {
			return nil, err
		}
		if !want {
			return nil, nil
		}
		return b.FunctionType(ret, sub.args, sub.varargs), nil

	case 'M', 'O':
		// Pointer to member (M) or offset (O) type.
		memberp := c.next() == 'M'
		var classType Type
		switch {
		case isDigit(c.peek()):
			name, err := dm.class(c)
			if err != nil {
				return nil, err
			}
			if want {
				if classType, err = dm.d.findTaggedType(name, KindClass); err != nil {
					return nil, err
				}
			}
		case c.peek() == 'Q':
			var err error
			if classType, err = dm.qualified(c, want); err != nil {
				return nil, err
			}
		default:
			return nil, badMangled(orig)
		}

		var sub *v2Demangler
		if memberp {
			if !c.skip('C') {
				c.skip('V')
			}
			if !c.skip('F') {
				return nil, badMangled(orig)
			}
			sub = &v2Demangler{d: dm.d, typestrings: dm.typestrings}
			if err := sub.demangleArgs(c); err != nil {
				return nil, err
			}
		}
		if !c.skip('_') {
			return nil, badMangled(orig)
		}
		t, err := dm.typ(c, want)
		if err != nil {
			return nil, err
		}
		if !want {
			return nil, nil
		}
		if !memberp {
			return b.OffsetType(classType, t), nil
		}
		return b.MethodType(t, classType, sub.args, sub.varargs), nil

	case 'G':
		c.next()
		return dm.typ(c, want)

	case 'C':
		c.next()
		t, err := dm.typ(c, want)
		if err != nil {
			return nil, err
		}
		if !want {
			return nil, nil
		}
		return b.ConstType(t), nil

	case 'Q':
		return dm.qualified(c, want)

	default:
		return dm.fundType(c, want)
	}
}

// qualified parses a Q qualified name: a count of nested class names,
// resolved as a chain where each name is looked up within the fields
// of the previous context.
func (dm *v2Demangler) qualified(c *cursor, want bool) (Type, error) {
	orig := c.s
	c.next()

	var qualifiers int
	switch ch := c.peek(); {
	case ch == '_':
		// More than 9 nested names: _COUNT_.
		c.next()
		if !isDigit(c.peek()) || c.peek() == '0' {
			return nil, badMangled(orig)
		}
		qualifiers = dm.count(c)
		if !c.skip('_') {
			return nil, badMangled(orig)
		}
	case ch >= '1' && ch <= '9':
		qualifiers = int(ch - '0')
		c.next()
		// An optional underscore after the count.
		c.skip('_')
	default:
		return nil, badMangled(orig)
	}

	var context Type
	for ; qualifiers > 0; qualifiers-- {
		c.skip('_')
		if c.peek() == 't' {
			name, err := dm.template(c, want)
			if err != nil {
				return nil, err
			}
			if want {
				if context, err = dm.d.findTaggedType(name, KindClass); err != nil {
					return nil, err
				}
			}
			continue
		}

		n := dm.count(c)
		if len(c.rest()) < n {
			return nil, badMangled(orig)
		}
		name := c.rest()[:n]
		c.advance(n)
		if !want {
			continue
		}

		// Search the previous context's fields for a member with a
		// matching type name. Works for a class in a class, not for
		// an enum in a class.
		var next Type
		if context != nil {
			for _, f := range dm.d.b.Fields(context) {
				ft := dm.d.b.FieldType(f)
				if ft == nil {
					return nil, badMangled(orig)
				}
				if dm.d.b.TypeName(ft) == name {
					next = ft
					break
				}
			}
		}
		if next == nil {
			// Fall back on the tag namespace. With several types of
			// the same name this can pick the wrong one.
			var err error
			if next, err = dm.d.findTaggedType(name, KindClass); err != nil {
				return nil, err
			}
		}
		context = next
	}
	return context, nil
}

// template scans a t<name><count><args> template instance, returning
// the printed name<arg,...> form when wanted so that the instance can
// be found in the tag namespace.
func (dm *v2Demangler) template(c *cursor, want bool) (string, error) {
	orig := c.s
	c.next()

	r := dm.count(c)
	if r == 0 || len(c.rest()) < r {
		return "", badMangled(orig)
	}
	base := c.rest()[:r]
	c.advance(r)

	nargs, ok := dm.getCount(c)
	if !ok {
		return "", badMangled(orig)
	}

	var rendered []string
	for i := 0; i < nargs; i++ {
		if c.skip('Z') {
			// A type parameter.
			start := c.pos
			if _, err := dm.typ(c, false); err != nil {
				return "", err
			}
			if want {
				rendered = append(rendered, v2TypeText(c.s[start:c.pos], dm.typestrings))
			}
			continue
		}
		text, err := dm.templateValue(c)
		if err != nil {
			return "", err
		}
		if want {
			rendered = append(rendered, text)
		}
	}

	if !want {
		return "", nil
	}
	// g++ emits the instance name without spaces except between
	// closing angle brackets.
	name := base + "<" + strings.Join(rendered, ",") + ">"
	return stripTemplateSpaces(name), nil
}

// templateValue scans one non-type template argument and returns a
// printable form.
func (dm *v2Demangler) templateValue(c *cursor) (string, error) {
	orig := c.s
	var pointerp, realp, integralp, charp, boolp bool

scan:
	for {
		switch c.peek() {
		case 'P', 'p', 'R':
			pointerp = true
			c.next()
		case 'C', 'S', 'U', 'V', 'F', 'M', 'O':
			c.next()
		case 'Q':
			if _, err := dm.qualified(c, false); err != nil {
				return "", err
			}
			break scan
		case 'T':
			return "", badMangled(orig)
		case 'x', 'l', 'i', 's', 'w':
			integralp = true
			c.next()
			break scan
		case 'b':
			boolp = true
			c.next()
			break scan
		case 'c':
			charp = true
			c.next()
			break scan
		case 'r', 'd', 'f':
			realp = true
			c.next()
			break scan
		default:
			// Assume a user defined integral type.
			integralp = true
			break scan
		}
	}

	switch {
	case integralp:
		neg := c.skip('m')
		ds := c.pos
		for isDigit(c.peek()) {
			c.next()
		}
		text := c.s[ds:c.pos]
		if neg {
			text = "-" + text
		}
		return text, nil
	case charp:
		c.skip('m')
		val := dm.count(c)
		if val == 0 {
			return "", badMangled(orig)
		}
		return "'" + string(rune(val)) + "'", nil
	case boolp:
		switch dm.count(c) {
		case 0:
			return "false", nil
		case 1:
			return "true", nil
		}
		return "", badMangled(orig)
	case realp:
		neg := c.skip('m')
		ds := c.pos
		for isDigit(c.peek()) {
			c.next()
		}
		if c.skip('.') {
			for isDigit(c.peek()) {
				c.next()
			}
		}
		if c.skip('e') {
			for isDigit(c.peek()) {
				c.next()
			}
		}
		text := c.s[ds:c.pos]
		if neg {
			text = "-" + text
		}
		return text, nil
	case pointerp:
		n := dm.count(c)
		if n == 0 || len(c.rest()) < n {
			return "", badMangled(orig)
		}
		sym := c.rest()[:n]
		c.advance(n)
		return "&" + sym, nil
	}
	return "", badMangled(orig)
}

// fundType parses a fundamental type: CUSV qualifiers, then a builtin
// letter, class name, or template instance. Named builtins prefer a
// typedef already seen in the unit so widths line up with the
// producer's.
func (dm *v2Demangler) fundType(c *cursor, want bool) (Type, error) {
	orig := c.s
	b := dm.d.b

	var constp, volatilep, unsignedp, signedp bool
qual:
	for {
		switch c.peek() {
		case 'C':
			constp = true
			c.next()
		case 'U':
			unsignedp = true
			c.next()
		case 'S':
			signedp = true
			c.next()
		case 'V':
			volatilep = true
			c.next()
		default:
			break qual
		}
	}

	named := func(name string, size int, unsigned bool) Type {
		if t := b.FindNamedType(name); t != nil {
			return t
		}
		return b.IntType(size, unsigned)
	}

	var t Type
	switch ch := c.peek(); ch {
	case 0, '_':
		return nil, badMangled(orig)

	case 'v':
		c.next()
		if want {
			if t = b.FindNamedType("void"); t == nil {
				t = b.VoidType()
			}
		}

	case 'x':
		c.next()
		if want {
			if unsignedp {
				t = named("long long unsigned int", 8, true)
			} else {
				t = named("long long int", 8, false)
			}
		}

	case 'l':
		c.next()
		if want {
			if unsignedp {
				t = named("long unsigned int", 4, true)
			} else {
				t = named("long int", 4, false)
			}
		}

	case 'i':
		c.next()
		if want {
			if unsignedp {
				t = named("unsigned int", 4, true)
			} else {
				t = named("int", 4, false)
			}
		}

	case 's':
		c.next()
		if want {
			if unsignedp {
				t = named("short unsigned int", 2, true)
			} else {
				t = named("short int", 2, false)
			}
		}

	case 'b':
		c.next()
		if want {
			if t = b.FindNamedType("bool"); t == nil {
				t = b.BoolType(4)
			}
		}

	case 'c':
		c.next()
		if want {
			switch {
			case signedp:
				t = named("signed char", 1, false)
			case unsignedp:
				t = named("unsigned char", 1, true)
			default:
				t = named("char", 1, false)
			}
		}

	case 'w':
		c.next()
		if want {
			t = named("__wchar_t", 2, true)
		}

	case 'r':
		c.next()
		if want {
			if t = b.FindNamedType("long double"); t == nil {
				t = b.FloatType(8)
			}
		}

	case 'd':
		c.next()
		if want {
			if t = b.FindNamedType("double"); t == nil {
				t = b.FloatType(8)
			}
		}

	case 'f':
		c.next()
		if want {
			if t = b.FindNamedType("float"); t == nil {
				t = b.FloatType(4)
			}
		}

	case 'G':
		c.next()
		if !isDigit(c.peek()) {
			return nil, badMangled(orig)
		}
		fallthrough
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		name, err := dm.class(c)
		if err != nil {
			return nil, err
		}
		if want {
			if t = b.FindNamedType(name); t == nil {
				if t, err = dm.d.findTaggedType(name, KindUnknown); err != nil {
					return nil, err
				}
			}
		}

	case 't':
		name, err := dm.template(c, want)
		if err != nil {
			return nil, err
		}
		if want {
			if t, err = dm.d.findTaggedType(name, KindClass); err != nil {
				return nil, err
			}
		}

	default:
		return nil, badMangled(orig)
	}

	if !want {
		return nil, nil
	}
	if t == nil {
		return nil, builderErr(orig)
	}
	if constp {
		t = b.ConstType(t)
	}
	if volatilep {
		t = b.VolatileType(t)
	}
	return t, nil
}

// v2TypeText renders a mangled type substring as C source text, used
// only to reconstruct template instance names.
func v2TypeText(s string, typestrings []string) string {
	c := newCursor(s)
	return typeText(c, typestrings)
}

func typeText(c *cursor, typestrings []string) string {
	var prefix, suffix string
	for {
		switch c.peek() {
		case 'P', 'p':
			c.next()
			suffix += "*"
			continue
		case 'R':
			c.next()
			suffix += "&"
			continue
		case 'C':
			c.next()
			prefix += "const "
			continue
		case 'V':
			c.next()
			prefix += "volatile "
			continue
		case 'U':
			c.next()
			prefix += "unsigned "
			continue
		case 'S':
			c.next()
			prefix += "signed "
			continue
		}
		break
	}

	var base string
	switch ch := c.peek(); {
	case ch == 'v':
		c.next()
		base = "void"
	case ch == 'x':
		c.next()
		base = "long long"
	case ch == 'l':
		c.next()
		base = "long"
	case ch == 'i':
		c.next()
		base = "int"
	case ch == 's':
		c.next()
		base = "short"
	case ch == 'b':
		c.next()
		base = "bool"
	case ch == 'c':
		c.next()
		base = "char"
	case ch == 'w':
		c.next()
		base = "wchar_t"
	case ch == 'r':
		c.next()
		base = "long double"
	case ch == 'd':
		c.next()
		base = "double"
	case ch == 'f':
		c.next()
		base = "float"
	case ch == 'T':
		c.next()
		dm := &v2Demangler{typestrings: typestrings}
		if i, ok := dm.getCount(c); ok && i < len(typestrings) {
			base = v2TypeText(typestrings[i], typestrings)
		}
	case ch == 't':
		dm := &v2Demangler{typestrings: typestrings}
		name, err := dm.template(c, true)
		if err == nil {
			base = name
		}
	case isDigit(ch):
		dm := &v2Demangler{typestrings: typestrings}
		if name, err := dm.class(c); err == nil {
			base = name
		}
	default:
		// Leave whatever we cannot render as-is.
		base = c.rest()
		c.advance(len(base))
	}
	return prefix + base + suffix
}

// stripTemplateSpaces removes the spaces a pretty printer would put
// in a template name, except the one keeping >> from closing two
// brackets.
func stripTemplateSpaces(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if i+1 < len(s) && s[i+1] == '>' && i > 0 && s[i-1] == '>' {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
