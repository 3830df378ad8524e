package dbg

import (
	"github.com/wdbg/stabs"
)

// TypeNode is the concrete type representation handed to the decoder
// as an opaque stabs.Type. Indirect and named nodes form chains;
// resolve follows them to the defining node.
type TypeNode struct {
	Kind     stabs.TypeKind
	Name     string // named and tagged nodes
	Size     int64
	Unsigned bool

	To         *TypeNode // pointer, reference, const, volatile, named base
	Ret        *TypeNode
	Args       []*TypeNode // nil for a stub method, empty for (void)
	Varargs    bool
	Domain     *TypeNode // method domain, offset base
	Index      *TypeNode // range and array index type
	Low, High  int64
	StringP    bool
	BitStringP bool

	EnumNames  []string
	EnumValues []int64

	StructP  bool
	FieldsV  []*FieldNode
	Bases    []*BaseclassNode
	Methods  []*MethodNode
	VptrBase *TypeNode
	OwnVptr  bool

	slot *stabs.Slot
}

// FieldNode is a data member of an aggregate.
type FieldNode struct {
	Name     string
	Type     *TypeNode
	Bitpos   int64
	Bitsize  int64
	Vis      stabs.Visibility
	Static   bool
	Physname string
}

// BaseclassNode records inheritance from another aggregate.
type BaseclassNode struct {
	Type    *TypeNode
	Bitpos  int64
	Virtual bool
	Vis     stabs.Visibility
}

// MethodNode is a named method with its overloaded variants.
type MethodNode struct {
	Name     string
	Variants []*VariantNode
}

// VariantNode is one overload of a method.
type VariantNode struct {
	Physname string
	Type     *TypeNode
	Vis      stabs.Visibility
	Const    bool
	Volatile bool
	Voffset  int64
	Context  *TypeNode
	Static   bool
}

func toNode(t stabs.Type) *TypeNode {
	if t == nil {
		return nil
	}
	n, ok := t.(*TypeNode)
	if !ok {
		return nil
	}
	return n
}

func wrap(n *TypeNode) stabs.Type {
	if n == nil {
		return nil
	}
	return n
}

// resolve follows named and indirect links to the defining node.
// Cycles terminate at the first repeated node.
func (n *TypeNode) resolve() *TypeNode {
	seen := map[*TypeNode]bool{}
	for n != nil && !seen[n] {
		seen[n] = true
		switch n.Kind {
		case stabs.KindNamed, stabs.KindTagged:
			if n.To == nil {
				return n
			}
			n = n.To
		default:
			if n.slot != nil {
				t := toNode(n.slot.Type())
				if t == nil {
					return n
				}
				n = t
				continue
			}
			return n
		}
	}
	return n
}

func (b *Builder) VoidType() stabs.Type { return &TypeNode{Kind: stabs.KindVoid} }

func (b *Builder) IntType(size int, unsigned bool) stabs.Type {
	return &TypeNode{Kind: stabs.KindInt, Size: int64(size), Unsigned: unsigned}
}

func (b *Builder) FloatType(size int) stabs.Type {
	return &TypeNode{Kind: stabs.KindFloat, Size: int64(size)}
}

func (b *Builder) BoolType(size int) stabs.Type {
	return &TypeNode{Kind: stabs.KindBool, Size: int64(size)}
}

func (b *Builder) ComplexType(size int) stabs.Type {
	return &TypeNode{Kind: stabs.KindComplex, Size: int64(size)}
}

func (b *Builder) PointerType(to stabs.Type) stabs.Type {
	n := toNode(to)
	if n == nil {
		return nil
	}
	return &TypeNode{Kind: stabs.KindPointer, To: n}
}

func (b *Builder) ReferenceType(to stabs.Type) stabs.Type {
	n := toNode(to)
	if n == nil {
		return nil
	}
	return &TypeNode{Kind: stabs.KindReference, To: n}
}

func (b *Builder) FunctionType(ret stabs.Type, args []stabs.Type, varargs bool) stabs.Type {
	rn := toNode(ret)
	if rn == nil {
		return nil
	}
	an, ok := toNodes(args)
	if !ok {
		return nil
	}
	return &TypeNode{Kind: stabs.KindFunction, Ret: rn, Args: an, Varargs: varargs}
}

func (b *Builder) MethodType(ret stabs.Type, domain stabs.Type, args []stabs.Type, varargs bool) stabs.Type {
	rn := toNode(ret)
	if rn == nil {
		return nil
	}
	an, ok := toNodes(args)
	if !ok {
		return nil
	}
	return &TypeNode{Kind: stabs.KindMethod, Ret: rn, Domain: toNode(domain), Args: an, Varargs: varargs}
}

func (b *Builder) ConstType(t stabs.Type) stabs.Type {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &TypeNode{Kind: stabs.KindConst, To: n}
}

func (b *Builder) VolatileType(t stabs.Type) stabs.Type {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &TypeNode{Kind: stabs.KindVolatile, To: n}
}

func (b *Builder) OffsetType(base stabs.Type, target stabs.Type) stabs.Type {
	bn, tn := toNode(base), toNode(target)
	if bn == nil || tn == nil {
		return nil
	}
	return &TypeNode{Kind: stabs.KindOffset, Domain: bn, To: tn}
}

func (b *Builder) RangeType(index stabs.Type, low, high int64) stabs.Type {
	return &TypeNode{Kind: stabs.KindRange, Index: toNode(index), Low: low, High: high}
}

func (b *Builder) ArrayType(elem stabs.Type, index stabs.Type, low, high int64, stringp bool) stabs.Type {
	en := toNode(elem)
	if en == nil {
		return nil
	}
	return &TypeNode{
		Kind: stabs.KindArray, To: en, Index: toNode(index),
		Low: low, High: high, StringP: stringp,
	}
}

func (b *Builder) SetType(t stabs.Type, bitstringp bool) stabs.Type {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &TypeNode{Kind: stabs.KindSet, To: n, BitStringP: bitstringp}
}

func (b *Builder) EnumType(names []string, values []int64) stabs.Type {
	return &TypeNode{Kind: stabs.KindEnum, EnumNames: names, EnumValues: values}
}

func (b *Builder) StructType(structp bool, size int64, fields []stabs.Field) stabs.Type {
	kind := stabs.KindStruct
	if !structp {
		kind = stabs.KindUnion
	}
	return &TypeNode{Kind: kind, StructP: structp, Size: size, FieldsV: toFields(fields)}
}

func (b *Builder) ObjectType(structp bool, size int64, fields []stabs.Field,
	bases []stabs.Baseclass, methods []stabs.Method, vptrBase stabs.Type, ownVptr bool) stabs.Type {
	kind := stabs.KindClass
	if !structp {
		kind = stabs.KindUnionClass
	}
	n := &TypeNode{
		Kind: kind, StructP: structp, Size: size,
		FieldsV: toFields(fields), VptrBase: toNode(vptrBase), OwnVptr: ownVptr,
	}
	for _, bc := range bases {
		if v, ok := bc.(*BaseclassNode); ok && v != nil {
			n.Bases = append(n.Bases, v)
		}
	}
	for _, m := range methods {
		if v, ok := m.(*MethodNode); ok && v != nil {
			n.Methods = append(n.Methods, v)
		}
	}
	return n
}

func (b *Builder) IndirectType(slot *stabs.Slot, tag string) stabs.Type {
	return &TypeNode{Kind: stabs.KindUnknown, Name: tag, slot: slot}
}

func (b *Builder) UndefinedTaggedType(name string, kind stabs.TypeKind) stabs.Type {
	n := &TypeNode{Kind: stabs.KindTagged, Name: name, To: &TypeNode{Kind: kind}}
	b.registerTag(name, n)
	return n
}

func toNodes(ts []stabs.Type) ([]*TypeNode, bool) {
	if ts == nil {
		return nil, true
	}
	out := make([]*TypeNode, 0, len(ts))
	for _, t := range ts {
		n := toNode(t)
		if n == nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func toFields(fs []stabs.Field) []*FieldNode {
	var out []*FieldNode
	for _, f := range fs {
		if v, ok := f.(*FieldNode); ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (b *Builder) MakeField(name string, t stabs.Type, bitpos, bitsize int64, vis stabs.Visibility) stabs.Field {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &FieldNode{Name: name, Type: n, Bitpos: bitpos, Bitsize: bitsize, Vis: vis}
}

func (b *Builder) MakeStaticMember(name string, t stabs.Type, physname string, vis stabs.Visibility) stabs.Field {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &FieldNode{Name: name, Type: n, Vis: vis, Static: true, Physname: physname}
}

func (b *Builder) MakeBaseclass(t stabs.Type, bitpos int64, virtual bool, vis stabs.Visibility) stabs.Baseclass {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &BaseclassNode{Type: n, Bitpos: bitpos, Virtual: virtual, Vis: vis}
}

func (b *Builder) MakeMethod(name string, variants []stabs.MethodVariant) stabs.Method {
	m := &MethodNode{Name: name}
	for _, v := range variants {
		if vn, ok := v.(*VariantNode); ok && vn != nil {
			m.Variants = append(m.Variants, vn)
		}
	}
	return m
}

func (b *Builder) MakeMethodVariant(physname string, t stabs.Type, vis stabs.Visibility,
	constp, volatilep bool, voffset int64, context stabs.Type) stabs.MethodVariant {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &VariantNode{
		Physname: physname, Type: n, Vis: vis,
		Const: constp, Volatile: volatilep,
		Voffset: voffset, Context: toNode(context),
	}
}

func (b *Builder) MakeStaticMethodVariant(physname string, t stabs.Type, vis stabs.Visibility,
	constp, volatilep bool) stabs.MethodVariant {
	n := toNode(t)
	if n == nil {
		return nil
	}
	return &VariantNode{Physname: physname, Type: n, Vis: vis, Const: constp, Volatile: volatilep, Static: true}
}

func (b *Builder) NameType(t stabs.Type, name string) stabs.Type {
	n := toNode(t)
	if n == nil {
		return nil
	}
	named := &TypeNode{Kind: stabs.KindNamed, Name: name, To: n}
	b.named[name] = named
	return named
}

func (b *Builder) TagType(t stabs.Type, tag string) stabs.Type {
	n := toNode(t)
	if n == nil {
		return nil
	}
	tagged := &TypeNode{Kind: stabs.KindTagged, Name: tag, To: n}
	b.registerTag(tag, tagged)
	return tagged
}

func (b *Builder) registerTag(tag string, n *TypeNode) {
	b.tagged[tag] = n
}

func (b *Builder) RecordTypeSize(t stabs.Type, size int) error {
	n := toNode(t)
	if n == nil {
		return ErrScope
	}
	n.resolve().Size = int64(size)
	return nil
}

func (b *Builder) Kind(t stabs.Type) stabs.TypeKind {
	n := toNode(t)
	if n == nil {
		return stabs.KindUnknown
	}
	return n.resolve().Kind
}

func (b *Builder) TypeName(t stabs.Type) string {
	n := toNode(t)
	for n != nil {
		switch n.Kind {
		case stabs.KindNamed, stabs.KindTagged:
			return n.Name
		}
		if n.slot != nil {
			n = toNode(n.slot.Type())
			continue
		}
		return ""
	}
	return ""
}

func (b *Builder) ReturnType(t stabs.Type) stabs.Type {
	n := toNode(t)
	if n == nil {
		return nil
	}
	r := n.resolve()
	switch r.Kind {
	case stabs.KindFunction, stabs.KindMethod:
		return wrap(r.Ret)
	}
	return nil
}

func (b *Builder) ParameterTypes(t stabs.Type) ([]stabs.Type, bool) {
	n := toNode(t)
	if n == nil {
		return nil, false
	}
	r := n.resolve()
	switch r.Kind {
	case stabs.KindFunction, stabs.KindMethod:
		if r.Args == nil {
			return nil, r.Varargs
		}
		out := make([]stabs.Type, len(r.Args))
		for i, a := range r.Args {
			out[i] = a
		}
		return out, r.Varargs
	}
	return nil, false
}

func (b *Builder) Fields(t stabs.Type) []stabs.Field {
	n := toNode(t)
	if n == nil {
		return nil
	}
	r := n.resolve()
	out := make([]stabs.Field, 0, len(r.FieldsV))
	for _, f := range r.FieldsV {
		out = append(out, f)
	}
	return out
}

func (b *Builder) FieldName(f stabs.Field) string {
	if v, ok := f.(*FieldNode); ok && v != nil {
		return v.Name
	}
	return ""
}

func (b *Builder) FieldType(f stabs.Field) stabs.Type {
	if v, ok := f.(*FieldNode); ok && v != nil {
		return wrap(v.Type)
	}
	return nil
}

func (b *Builder) FindNamedType(name string) stabs.Type {
	if n, ok := b.named[name]; ok {
		return n
	}
	return nil
}

func (b *Builder) FindTaggedType(name string, kind stabs.TypeKind) stabs.Type {
	n, ok := b.tagged[name]
	if !ok {
		return nil
	}
	if kind == stabs.KindUnknown {
		return n
	}
	switch rk := n.resolve().Kind; rk {
	case kind:
		return n
	case stabs.KindStruct, stabs.KindClass:
		// struct and class tags share a namespace.
		if kind == stabs.KindStruct || kind == stabs.KindClass {
			return n
		}
	case stabs.KindUnknown:
		return n
	}
	return nil
}
