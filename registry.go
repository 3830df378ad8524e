package stabs

import "fmt"

// Type number slots are carved out in chunks of contiguous indices so
// that a *Slot handed to an indirect type stays valid for the life of
// the session. Chunks for one file form an ordered list by base index.
const slotsPerChunk = 16

type typeChunk struct {
	next  *typeChunk
	base  int
	slots [slotsPerChunk]Slot
}

// findSlot returns the stable cell for a type number, growing the
// chunk list on first reference. A file number never announced by a
// BINCL or EXCL is fatal.
func (d *Decoder) findSlot(tn typeNum) (*Slot, error) {
	if tn.file < 0 || tn.file >= len(d.files) {
		return nil, fmt.Errorf("%w: type file number %d out of range", ErrBadStab, tn.file)
	}
	var last *typeChunk
	ch := d.files[tn.file]
	for ; ch != nil; last, ch = ch, ch.next {
		if ch.base > tn.index {
			break
		}
		if tn.index < ch.base+slotsPerChunk {
			return &ch.slots[tn.index-ch.base], nil
		}
	}
	n := &typeChunk{next: ch, base: tn.index - mod(tn.index, slotsPerChunk)}
	if last == nil {
		d.files[tn.file] = n
	} else {
		last.next = n
	}
	return &n.slots[tn.index-n.base], nil
}

// findType resolves a type number. An unresolved number yields an
// indirect type over its slot so that the reference is usable before
// the definition arrives.
func (d *Decoder) findType(tn typeNum) (Type, error) {
	if tn.file == 0 && tn.index < 0 {
		return d.xcoffBuiltinType(tn.index)
	}
	slot, err := d.findSlot(tn)
	if err != nil {
		return nil, err
	}
	if !slot.Resolved() {
		return d.b.IndirectType(slot, ""), nil
	}
	return slot.Type(), nil
}

// recordType stores the definition of a type number. Redefinition
// silently overwrites; producers reuse numbers across headers.
func (d *Decoder) recordType(tn typeNum, t Type) error {
	slot, err := d.findSlot(tn)
	if err != nil {
		return err
	}
	slot.Set(t)
	return nil
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// binclFile remembers one header announced by an N_BINCL so that a
// later N_EXCL with the same name and checksum can reuse its type
// definitions instead of reparsing the header.
type binclFile struct {
	name  string
	hash  uint64
	file  int
	types *typeChunk
}

// pushBincl opens a new header file, giving it the next file number.
func (d *Decoder) pushBincl(name string, hash uint64) {
	n := &binclFile{name: name, hash: hash, file: len(d.files)}
	d.binclList = append(d.binclList, n)
	d.binclStack = append(d.binclStack, n)
	d.files = append(d.files, nil)
}

// popBincl closes the innermost header and returns the file name the
// producer is back inside.
func (d *Decoder) popBincl() string {
	if len(d.binclStack) == 0 {
		return d.mainFilename
	}
	o := d.binclStack[len(d.binclStack)-1]
	d.binclStack = d.binclStack[:len(d.binclStack)-1]
	if o.file < len(d.files) {
		o.types = d.files[o.file]
	}
	if len(d.binclStack) == 0 {
		return d.mainFilename
	}
	return d.binclStack[len(d.binclStack)-1].name
}

// findExcl handles an N_EXCL: the header was identical to one already
// seen, so the new file number shares the remembered definitions. A
// miss is only worth a warning; the file number still exists, just
// empty.
func (d *Decoder) findExcl(name string, hash uint64) {
	d.files = append(d.files, nil)
	for i := len(d.binclList) - 1; i >= 0; i-- {
		l := d.binclList[i]
		if l.hash == hash && l.name == name {
			d.files[len(d.files)-1] = l.types
			return
		}
	}
	log.Warnf("%s: no N_BINCL corresponds to this N_EXCL", name)
}

// stabTag is a struct, union or enum tag referenced by a cross
// reference before any definition was seen. The indirect type handed
// out resolves through slot once the definition arrives, or to an
// undefined tagged type at end of session.
type stabTag struct {
	name string
	kind TypeKind
	slot Slot
	typ  Type
}

// findTaggedType resolves a tag reference, creating a forward entry
// when the tag is not yet known to the Builder.
func (d *Decoder) findTaggedType(name string, kind TypeKind) (Type, error) {
	if t := d.b.FindTaggedType(name, kind); t != nil {
		return t, nil
	}
	for _, st := range d.tags {
		if st.name == name {
			if st.kind == KindUnknown {
				st.kind = kind
			}
			return st.typ, nil
		}
	}
	st := &stabTag{name: name, kind: kind}
	st.typ = d.b.IndirectType(&st.slot, name)
	if st.typ == nil {
		return nil, builderErr("indirect type for tag " + name)
	}
	d.tags = append(d.tags, st)
	return st.typ, nil
}

// fillTag resolves a pending forward tag reference with its
// definition and retires the entry.
func (d *Decoder) fillTag(name string, t Type) {
	for i, st := range d.tags {
		if st.name == name {
			st.slot.Set(t)
			d.tags = append(d.tags[:i], d.tags[i+1:]...)
			return
		}
	}
}
