package stabs

import "strings"

// parseString decodes the NAME:DESCRIPTOR payload of a symbol record.
func (d *Decoder) parseString(rec Record) error {
	s := rec.Text
	value := rec.Value

	colon := findColon(s)
	if colon < 0 {
		return nil
	}

	var name string
	if s[0] == '$' {
		// Special g++ local names.
		if len(s) < 2 {
			return badStab(s)
		}
		switch s[1] {
		case 't':
			name = "this"
		case 'v':
			// vtable pointer in some layouts; not useful here.
			return nil
		case 'e':
			name = "eh_throw"
		case '_':
			// Anonymous type that was never fixed up.
			return nil
		case 'X':
			// SunPRO static variable encoding.
			return nil
		default:
			warnStab(s, "unknown C++ encoded name")
			return nil
		}
	} else if colon > 0 && !(s[0] == ' ' && colon == 1) {
		name = s[:colon]
	}

	c := newCursor(s)
	c.pos = colon + 1

	// A digit, open paren or minus sign here means a local variable
	// whose descriptor letter was omitted.
	desc := byte('l')
	switch ch := c.peek(); {
	case isDigit(ch) || ch == '(' || ch == '-':
	default:
		desc = c.next()
	}

	switch desc {
	case 'c':
		// Constant: c=iVALUE, c=rVALUE or c=eTYPE,VALUE.
		if !c.skip('=') {
			return badStab(s)
		}
		switch c.next() {
		case 'r':
			v, _ := c.float()
			return d.b.RecordFloatConst(name, v)
		case 'i':
			return d.b.RecordIntConst(name, c.number(nil))
		case 'e':
			// The type carries the value's interpretation, e.g. an
			// enum constant.
			dtype, _, err := d.parseType("", c)
			if err != nil {
				return err
			}
			if !c.skip(',') {
				return badStab(s)
			}
			return d.b.RecordTypedConst(name, dtype, c.number(nil))
		default:
			return badStab(s)
		}

	case 'C':
		// The name of a caught exception.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.b.RecordLabel(name, dtype, value)

	case 'f', 'F':
		// Function definition; F means globally visible.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		if err := d.b.RecordFunction(name, dtype, desc == 'F', value); err != nil {
			return err
		}
		// Sun acc appends declared argument types. Their values do
		// not matter, but the list may define new type numbers, so it
		// has to be scanned.
		for c.skip(';') {
			if _, _, err := d.parseType("", c); err != nil {
				return err
			}
		}
		return nil

	case 'G':
		// Global variable; the value lives in the symbol table, not
		// the record.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		if name != "" && d.opts.symtab != nil {
			if v, ok := d.opts.symtab.Lookup(name); ok {
				value = v
			}
		}
		return d.recordVariable(name, dtype, VarGlobal, value)

	case 'l', 's':
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.recordVariable(name, dtype, VarLocal, value)

	case 'p':
		// Function parameter on the stack. pF is Fortran's function
		// parameter, carrying the return type; translate to a
		// pointer to function.
		var dtype Type
		var err error
		if c.skip('F') {
			dtype, _, err = d.parseType("", c)
			if err != nil {
				return err
			}
			ftype := d.b.FunctionType(dtype, nil, false)
			if ftype == nil {
				return builderErr("function type")
			}
			if dtype = d.b.PointerType(ftype); dtype == nil {
				return builderErr("pointer type")
			}
		} else {
			dtype, _, err = d.parseType("", c)
			if err != nil {
				return err
			}
		}
		return d.b.RecordParameter(name, dtype, ParamStack, value)

	case 'P':
		if rec.Kind == N_FUN {
			// Prototype of a function referenced by this file; scan
			// for type definitions only.
			for c.skip(';') {
				if _, _, err := d.parseType("", c); err != nil {
					return err
				}
			}
			return nil
		}
		fallthrough
	case 'R':
		// Parameter in a register.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.b.RecordParameter(name, dtype, ParamReg, value)

	case 'r':
		// Register variable, global or local.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.recordVariable(name, dtype, VarRegister, value)

	case 'S':
		// File scope static.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.recordVariable(name, dtype, VarStatic, value)

	case 't':
		// Typedef.
		dtype, slot, err := d.parseType(name, c)
		if err != nil {
			return err
		}
		if name == "" {
			// A nameless type, nothing to do.
			return nil
		}
		if dtype = d.b.NameType(dtype, name); dtype == nil {
			return builderErr("named type " + name)
		}
		if slot != nil {
			slot.Set(dtype)
		}
		return nil

	case 'T':
		// Struct, union or enum tag. Tt means the tag doubles as a
		// typedef, as g++ emits for classes.
		synonym := c.skip('t')
		dtype, slot, err := d.parseType(name, c)
		if err != nil {
			return err
		}
		if name == "" {
			return nil
		}
		// Some versions of g++ define a tag as a cross reference to
		// itself; filling the forward entry then would make the
		// debug information circular.
		selfCrossref := d.selfCrossref
		if dtype = d.b.TagType(dtype, name); dtype == nil {
			return builderErr("tagged type " + name)
		}
		if slot != nil {
			slot.Set(dtype)
		}
		if !selfCrossref {
			d.fillTag(name, dtype)
		}
		if synonym {
			if dtype = d.b.NameType(dtype, name); dtype == nil {
				return builderErr("named type " + name)
			}
			if slot != nil {
				slot.Set(dtype)
			}
		}
		return nil

	case 'V':
		// Function scope static.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.recordVariable(name, dtype, VarLocalStatic, value)

	case 'v':
		// Parameter passed by reference.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.b.RecordParameter(name, dtype, ParamReference, value)

	case 'a':
		// Parameter passed by reference in a register.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.b.RecordParameter(name, dtype, ParamRefReg, value)

	case 'X':
		// Sun FORTRAN function result value.
		dtype, _, err := d.parseType("", c)
		if err != nil {
			return err
		}
		return d.recordVariable(name, dtype, VarLocal, value)

	case 'Y':
		// SunPRO C++ namespace mapping, unused.
		if strings.HasPrefix(c.rest(), "n0") {
			return nil
		}
		warnStab(s, "unknown SunPRO encoding")
		return nil

	default:
		return badStab(s)
	}
}
