package stabs

import (
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// unknownAddr marks an address not seen yet.
const unknownAddr = ^uint64(0)

// Decoder consumes stab records in file order and pushes the decoded
// debug information into a Builder. A Decoder holds per session state
// only and is not safe for concurrent use; decode different object
// files with different Decoders.
type Decoder struct {
	b    Builder
	opts *options

	// N_SO fragments accumulate until a record that is not part of the
	// unit start arrives.
	soText  string
	haveSo  bool
	soValue uint64

	mainFilename string
	fileStart    uint64
	funcStart    uint64
	funcEnd      uint64
	inFunc       bool
	blockDepth   int
	gccCompiled  int
	nOptFound    bool

	// Type number registry, one chunk list per file.
	files      []*typeChunk
	binclStack []*binclFile
	binclList  []*binclFile
	tags       []*stabTag
	xcoffTypes [xcoffTypeCount]Type

	// Variables seen before their enclosing block opens.
	pending []pendingVar

	// Set while a type definition turns out to be a cross reference to
	// the tag being defined.
	selfCrossref bool

	demcache *lru.Cache[string, stubArgs]
}

type pendingVar struct {
	name string
	t    Type
	kind VarKind
	val  uint64
}

// stubArgs is a demangled method stub: the argument types plus whether
// the list ends in varargs.
type stubArgs struct {
	args    []Type
	varargs bool
}

// NewDecoder returns a Decoder pushing into b.
func NewDecoder(b Builder, opts ...Option) *Decoder {
	this := &Decoder{
		b:       b,
		opts:    defaultOptions(),
		funcEnd: unknownAddr,
		files:   []*typeChunk{nil},
	}
	for _, opt := range opts {
		opt(this.opts)
	}
	if this.opts.demcacheSize > 0 {
		this.demcache, _ = lru.New[string, stubArgs](this.opts.demcacheSize)
	}
	return this
}

// Parse decodes one record. Records must arrive in file order. An
// error means the session is corrupt and should be abandoned.
func (d *Decoder) Parse(rec Record) error {
	// Producers split the unit start into several N_SO records, one
	// for the directory and one for the file name. Collect until a
	// record that is not part of the run.
	if d.haveSo && (rec.Kind != N_SO || rec.Text == "" || rec.Value != d.soValue) {
		if err := d.startUnit(); err != nil {
			return err
		}
	}

	switch rec.Kind {
	case N_FN, N_FN_SEQ, N_OBJ, N_ENDM, N_MAIN, N_WARNING:
		// Nothing to do.

	case N_SO:
		// This always ends a function.
		if d.inFunc {
			endval := rec.Value
			if rec.Text != "" && d.funcEnd != unknownAddr && d.funcEnd < endval {
				endval = d.funcEnd
			}
			if err := d.endFunction(endval); err != nil {
				return err
			}
		}
		// An empty string ends the compilation unit.
		if rec.Text == "" {
			return nil
		}
		switch {
		case !d.haveSo:
			d.soText = rec.Text
			d.haveSo = true
		case filepath.IsAbs(rec.Text):
			// An absolute path discards the accumulated prefix.
			d.soText = rec.Text
		default:
			d.soText += rec.Text
		}
		d.soValue = rec.Value

	case N_SOL:
		return d.b.StartSource(rec.Text)

	case N_BINCL:
		d.pushBincl(rec.Text, rec.Value)
		return d.b.StartSource(rec.Text)

	case N_EINCL:
		return d.b.StartSource(d.popBincl())

	case N_EXCL:
		d.findExcl(rec.Text, rec.Value)

	case N_SLINE, N_DSLINE, N_BSLINE:
		// Line numbers are relative to the start of the function.
		value := rec.Value
		if d.inFunc {
			value += d.funcStart
		}
		return d.b.RecordLine(int(rec.Desc), value)

	case N_LBRAC:
		// SunPRO emits an extra outermost context.
		if d.nOptFound && rec.Desc == 1 {
			break
		}
		if !d.inFunc {
			return ErrUnbalancedBlock
		}
		if err := d.b.StartBlock(rec.Value + d.fileStart + d.funcStart); err != nil {
			return err
		}
		if err := d.emitPendingVars(); err != nil {
			return err
		}
		d.blockDepth++

	case N_RBRAC:
		if d.nOptFound && rec.Desc == 1 {
			break
		}
		// There should be no pending variables here, but flush them
		// before the block closes if there are.
		if err := d.emitPendingVars(); err != nil {
			return err
		}
		if err := d.b.EndBlock(rec.Value + d.fileStart + d.funcStart); err != nil {
			return err
		}
		d.blockDepth--
		if d.blockDepth < 0 {
			return ErrUnbalancedBlock
		}

	case N_BCOMM:
		return d.b.StartCommonBlock(rec.Text)

	case N_ECOMM:
		return d.b.EndCommonBlock(rec.Text)

	case N_OPT:
		switch rec.Text {
		case "gcc2_compiled.":
			d.gccCompiled = 2
		case "gcc_compiled.":
			d.gccCompiled = 1
		default:
			d.nOptFound = true
		}

	case N_FUN:
		if rec.Text == "" {
			// An empty N_FUN marks the end of the current function.
			if d.inFunc {
				value := rec.Value
				if d.opts.sections {
					value += d.funcStart
				}
				if err := d.endFunction(value); err != nil {
					return err
				}
			}
			return nil
		}
		// A const static in the text section also shows up as an
		// N_FUN. Use it to bound the current function for producers
		// that never emit the empty end marker.
		if d.inFunc && (d.funcEnd == unknownAddr || rec.Value < d.funcEnd) {
			d.funcEnd = rec.Value
		}
		return d.parseSymbol(rec)

	default:
		return d.parseSymbol(rec)
	}
	return nil
}

// Close ends the session: the current function, if still open, is
// closed at its best known end address, and every tag that was
// referenced but never defined resolves to an incomplete type.
func (d *Decoder) Close() error {
	if d.haveSo {
		if err := d.startUnit(); err != nil {
			return err
		}
	}
	if d.inFunc {
		if err := d.endFunction(d.funcEnd); err != nil {
			return err
		}
	}
	for _, st := range d.tags {
		kind := st.kind
		if kind == KindUnknown {
			kind = KindStruct
		}
		t := d.b.UndefinedTaggedType(st.name, kind)
		if t == nil {
			return builderErr("undefined tag " + st.name)
		}
		st.slot.Set(t)
	}
	d.tags = nil
	return nil
}

// startUnit closes out an accumulated run of N_SO records, resetting
// per unit state. Type number slots from the previous unit stay alive
// because indirect types may still point at them; the registry just
// starts a fresh file table.
func (d *Decoder) startUnit() error {
	if err := d.b.SetFilename(d.soText); err != nil {
		return err
	}
	d.mainFilename = d.soText
	d.haveSo = false
	d.soText = ""
	d.gccCompiled = 0
	d.nOptFound = false
	if !d.opts.sections {
		d.fileStart = d.soValue
	}
	d.files = append([]*typeChunk(nil), nil)
	return nil
}

func (d *Decoder) endFunction(addr uint64) error {
	if err := d.emitPendingVars(); err != nil {
		return err
	}
	if err := d.b.EndFunction(addr); err != nil {
		return err
	}
	d.inFunc = false
	d.funcEnd = unknownAddr
	return nil
}

// parseSymbol handles the records whose payload is a stab string. A
// descriptor of f or F right after the name means a function
// definition, which implicitly ends the previous function.
func (d *Decoder) parseSymbol(rec Record) error {
	colon := findColon(rec.Text)
	if colon < 0 {
		return nil
	}
	if colon+1 < len(rec.Text) && (rec.Text[colon+1] == 'f' || rec.Text[colon+1] == 'F') {
		if d.inFunc {
			endval := rec.Value
			if d.funcEnd != unknownAddr && d.funcEnd < endval {
				endval = d.funcEnd
			}
			if err := d.emitPendingVars(); err != nil {
				return err
			}
			if err := d.b.EndFunction(endval); err != nil {
				return err
			}
			d.funcEnd = unknownAddr
		}
		// For stabs in sections, line numbers and block addresses are
		// offsets from the start of the function.
		if d.opts.sections {
			d.funcStart = rec.Value
		}
		d.inFunc = true
	}
	return d.parseString(rec)
}

// findColon locates the descriptor colon, skipping the :: of C++
// qualified names.
func findColon(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ':' {
			continue
		}
		if i+1 < len(s) && s[i+1] == ':' {
			i++
			continue
		}
		return i
	}
	return -1
}

// recordVariable pushes a variable now, or queues it until its block
// opens. Variables belong inside the block that follows them, so
// local kinds seen between blocks wait in the pending queue.
func (d *Decoder) recordVariable(name string, t Type, kind VarKind, val uint64) error {
	if kind == VarGlobal || kind == VarStatic || !d.inFunc ||
		(d.gccCompiled == 0 && d.nOptFound) {
		return d.b.RecordVariable(name, t, kind, val)
	}
	d.pending = append(d.pending, pendingVar{name: name, t: t, kind: kind, val: val})
	return nil
}

// emitPendingVars flushes queued variables in arrival order.
func (d *Decoder) emitPendingVars() error {
	for _, v := range d.pending {
		if err := d.b.RecordVariable(v.name, v.t, v.kind, v.val); err != nil {
			return err
		}
	}
	d.pending = d.pending[:0]
	return nil
}
