// Package dbg carries a generic in-memory representation of decoded
// debugging information. It implements stabs.Builder; consumers walk
// the resulting units or print them with Dump.
package dbg

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wdbg/stabs"
	"github.com/wdbg/stabs/pkg/logging"
	"github.com/wdbg/stabs/pkg/logging/logfields"
)

var log = logging.DefaultLogger.WithFields(logrus.Fields{logfields.LogSubsys: "dbg"})

var (
	ErrNoUnit     = errors.New("no current compilation unit")
	ErrNoFunction = errors.New("no current function")
	ErrScope      = errors.New("unbalanced scope")
)

// Unit is one compilation unit: a main source file plus the headers
// pulled into it.
type Unit struct {
	Name      string
	Sources   []*Source
	Functions []*Function
	Variables []*Variable
	Constants []*Constant
}

// Source is one source file within a unit, holding the lines recorded
// while it was current.
type Source struct {
	Name  string
	Lines []Line
}

// Line maps a source line onto the address of its first instruction.
type Line struct {
	Line int
	Addr uint64
}

// Function is a decoded function with its scope tree.
type Function struct {
	Name       string
	ReturnType *TypeNode
	Global     bool
	Addr       uint64
	EndAddr    uint64
	Params     []*Parameter
	Body       *Block
}

// Block is a lexical scope. Start and End are addresses; Vars are the
// variables declared directly in the scope.
type Block struct {
	Start    uint64
	End      uint64
	Vars     []*Variable
	Children []*Block
}

// Variable is a variable at file or block scope.
type Variable struct {
	Name string
	Type *TypeNode
	Kind stabs.VarKind
	Val  uint64
}

// Parameter is one formal parameter of a function.
type Parameter struct {
	Name string
	Type *TypeNode
	Kind stabs.ParamKind
	Val  uint64
}

// Constant is a named constant from a debug record.
type Constant struct {
	Name  string
	Type  *TypeNode
	Int   int64
	Float float64
	IsInt bool
}

// CommonBlock groups the variables of a Fortran common block.
type CommonBlock struct {
	Name string
	Vars []*Variable
}

// Builder accumulates decoded debug information in memory. The zero
// value is not usable; call NewBuilder.
type Builder struct {
	units []*Unit

	unit    *Unit
	source  *Source
	fn      *Function
	blocks  []*Block
	common  *CommonBlock
	commons []*CommonBlock

	named  map[string]*TypeNode
	tagged map[string]*TypeNode
}

func NewBuilder() *Builder {
	this := &Builder{
		named:  make(map[string]*TypeNode),
		tagged: make(map[string]*TypeNode),
	}
	return this
}

// Units returns the decoded compilation units in the order their
// opening records appeared.
func (b *Builder) Units() []*Unit { return b.units }

// CommonBlocks returns the Fortran common blocks seen so far.
func (b *Builder) CommonBlocks() []*CommonBlock { return b.commons }

func (b *Builder) SetFilename(name string) error {
	u := &Unit{Name: name}
	s := &Source{Name: name}
	u.Sources = append(u.Sources, s)
	b.units = append(b.units, u)
	b.unit = u
	b.source = s
	b.fn = nil
	b.blocks = nil
	return nil
}

func (b *Builder) StartSource(name string) error {
	if b.unit == nil {
		return fmt.Errorf("%w: start of include %s", ErrNoUnit, name)
	}
	// Returning to a file already seen reopens it.
	for _, s := range b.unit.Sources {
		if s.Name == name {
			b.source = s
			return nil
		}
	}
	s := &Source{Name: name}
	b.unit.Sources = append(b.unit.Sources, s)
	b.source = s
	return nil
}

func (b *Builder) RecordFunction(name string, returnType stabs.Type, global bool, addr uint64) error {
	if b.unit == nil {
		return fmt.Errorf("%w: function %s", ErrNoUnit, name)
	}
	fn := &Function{
		Name:       name,
		ReturnType: toNode(returnType),
		Global:     global,
		Addr:       addr,
		Body:       &Block{Start: addr},
	}
	b.unit.Functions = append(b.unit.Functions, fn)
	b.fn = fn
	b.blocks = []*Block{fn.Body}
	return nil
}

func (b *Builder) EndFunction(addr uint64) error {
	if b.fn == nil {
		return ErrNoFunction
	}
	if len(b.blocks) > 1 {
		log.WithField("function", b.fn.Name).Warn("function ended inside an open block")
	}
	b.fn.EndAddr = addr
	b.fn.Body.End = addr
	b.fn = nil
	b.blocks = nil
	return nil
}

func (b *Builder) StartBlock(addr uint64) error {
	if len(b.blocks) == 0 {
		return fmt.Errorf("%w: block start at %#x", ErrScope, addr)
	}
	blk := &Block{Start: addr}
	parent := b.blocks[len(b.blocks)-1]
	parent.Children = append(parent.Children, blk)
	b.blocks = append(b.blocks, blk)
	return nil
}

func (b *Builder) EndBlock(addr uint64) error {
	// The outermost block belongs to the function and is closed by
	// EndFunction.
	if len(b.blocks) <= 1 {
		return fmt.Errorf("%w: block end at %#x", ErrScope, addr)
	}
	blk := b.blocks[len(b.blocks)-1]
	blk.End = addr
	b.blocks = b.blocks[:len(b.blocks)-1]
	return nil
}

func (b *Builder) RecordLine(line int, addr uint64) error {
	if b.source == nil {
		return fmt.Errorf("%w: line %d", ErrNoUnit, line)
	}
	b.source.Lines = append(b.source.Lines, Line{Line: line, Addr: addr})
	return nil
}

func (b *Builder) StartCommonBlock(name string) error {
	if b.common != nil {
		return fmt.Errorf("%w: common block %s inside %s", ErrScope, name, b.common.Name)
	}
	b.common = &CommonBlock{Name: name}
	return nil
}

func (b *Builder) EndCommonBlock(name string) error {
	if b.common == nil {
		return fmt.Errorf("%w: end of common block %s", ErrScope, name)
	}
	b.commons = append(b.commons, b.common)
	b.common = nil
	return nil
}

func (b *Builder) RecordVariable(name string, t stabs.Type, kind stabs.VarKind, val uint64) error {
	if b.unit == nil {
		return fmt.Errorf("%w: variable %s", ErrNoUnit, name)
	}
	v := &Variable{Name: name, Type: toNode(t), Kind: kind, Val: val}
	if b.common != nil {
		b.common.Vars = append(b.common.Vars, v)
		return nil
	}
	if len(b.blocks) > 0 && kind != stabs.VarGlobal && kind != stabs.VarStatic {
		blk := b.blocks[len(b.blocks)-1]
		blk.Vars = append(blk.Vars, v)
		return nil
	}
	b.unit.Variables = append(b.unit.Variables, v)
	return nil
}

func (b *Builder) RecordParameter(name string, t stabs.Type, kind stabs.ParamKind, val uint64) error {
	if b.fn == nil {
		return fmt.Errorf("%w: parameter %s", ErrNoFunction, name)
	}
	b.fn.Params = append(b.fn.Params, &Parameter{Name: name, Type: toNode(t), Kind: kind, Val: val})
	return nil
}

func (b *Builder) RecordLabel(name string, t stabs.Type, addr uint64) error {
	// Labels carry no information a consumer of this package has
	// asked for yet; record them as unit level variables.
	return b.RecordVariable(name, t, stabs.VarStatic, addr)
}

func (b *Builder) RecordIntConst(name string, val int64) error {
	if b.unit == nil {
		return fmt.Errorf("%w: constant %s", ErrNoUnit, name)
	}
	b.unit.Constants = append(b.unit.Constants, &Constant{Name: name, Int: val, IsInt: true})
	return nil
}

func (b *Builder) RecordFloatConst(name string, val float64) error {
	if b.unit == nil {
		return fmt.Errorf("%w: constant %s", ErrNoUnit, name)
	}
	b.unit.Constants = append(b.unit.Constants, &Constant{Name: name, Float: val})
	return nil
}

func (b *Builder) RecordTypedConst(name string, t stabs.Type, val int64) error {
	if b.unit == nil {
		return fmt.Errorf("%w: constant %s", ErrNoUnit, name)
	}
	b.unit.Constants = append(b.unit.Constants, &Constant{Name: name, Type: toNode(t), Int: val, IsInt: true})
	return nil
}
