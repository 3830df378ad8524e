package stabs

// Type is an opaque type handle minted by a Builder. The decoder never
// looks inside one; it only passes handles back into the Builder that
// created them. A nil Type from a constructor means the Builder could
// not build the type, which the decoder treats as fatal.
type Type any

// Field, Baseclass, Method and MethodVariant are opaque aggregate
// member handles, built piecewise and then handed back to the Builder
// in a terminating nil-slot slice.
type (
	Field         any
	Baseclass     any
	Method        any
	MethodVariant any
)

// TypeKind classifies a type handle for the queries the decoder needs
// to make while parsing.
type TypeKind int

const (
	KindUnknown TypeKind = iota
	KindVoid
	KindInt
	KindFloat
	KindComplex
	KindBool
	KindStruct
	KindUnion
	KindClass
	KindUnionClass
	KindEnum
	KindPointer
	KindFunction
	KindReference
	KindRange
	KindArray
	KindSet
	KindOffset
	KindMethod
	KindConst
	KindVolatile
	KindNamed
	KindTagged
)

func (k TypeKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindBool:
		return "bool"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindClass:
		return "class"
	case KindUnionClass:
		return "union class"
	case KindEnum:
		return "enum"
	case KindPointer:
		return "pointer"
	case KindFunction:
		return "function"
	case KindReference:
		return "reference"
	case KindRange:
		return "range"
	case KindArray:
		return "array"
	case KindSet:
		return "set"
	case KindOffset:
		return "offset"
	case KindMethod:
		return "method"
	case KindConst:
		return "const"
	case KindVolatile:
		return "volatile"
	case KindNamed:
		return "named"
	case KindTagged:
		return "tagged"
	}
	return "unknown"
}

// VarKind classifies a recorded variable.
type VarKind int

const (
	VarGlobal VarKind = iota
	VarStatic
	VarLocalStatic
	VarLocal
	VarRegister
)

// ParamKind classifies a recorded function parameter.
type ParamKind int

const (
	ParamStack ParamKind = iota
	ParamReg
	ParamReference
	ParamRefReg
)

// Visibility of an aggregate member.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
	// VisibilityIgnore marks a field the consumer should skip, used for
	// compiler generated fields that carry no location.
	VisibilityIgnore
)

// Slot is a stable cell holding the eventual definition of a type
// number. The registry hands out *Slot before the definition has been
// seen; an indirect type built over the slot resolves to whatever the
// slot holds when the consumer finally looks.
type Slot struct {
	t Type
}

// Set stores the definition. A later Set overwrites an earlier one;
// producers are allowed to redefine a type number and the last
// definition wins.
func (s *Slot) Set(t Type) { s.t = t }

// Type returns the current definition, nil if none has been recorded.
func (s *Slot) Type() Type { return s.t }

// Resolved reports whether a definition has been recorded.
func (s *Slot) Resolved() bool { return s.t != nil }

// Builder receives the decoded debug information. pkg/dbg carries an
// in-memory implementation; callers wanting a different representation
// (DWARF emission, direct indexing) implement their own.
//
// Record methods return an error to abort the session. Type
// constructors report failure by returning a nil Type.
type Builder interface {
	// Compilation unit and scope lifecycle.
	SetFilename(name string) error
	StartSource(name string) error
	RecordFunction(name string, returnType Type, global bool, addr uint64) error
	EndFunction(addr uint64) error
	StartBlock(addr uint64) error
	EndBlock(addr uint64) error
	RecordLine(line int, addr uint64) error
	StartCommonBlock(name string) error
	EndCommonBlock(name string) error

	// Symbols.
	RecordVariable(name string, t Type, kind VarKind, val uint64) error
	RecordParameter(name string, t Type, kind ParamKind, val uint64) error
	RecordLabel(name string, t Type, addr uint64) error
	RecordIntConst(name string, val int64) error
	RecordFloatConst(name string, val float64) error
	RecordTypedConst(name string, t Type, val int64) error

	// Type constructors.
	VoidType() Type
	IntType(size int, unsigned bool) Type
	FloatType(size int) Type
	BoolType(size int) Type
	ComplexType(size int) Type
	PointerType(to Type) Type
	ReferenceType(to Type) Type
	FunctionType(ret Type, args []Type, varargs bool) Type
	MethodType(ret Type, domain Type, args []Type, varargs bool) Type
	ConstType(t Type) Type
	VolatileType(t Type) Type
	OffsetType(base Type, target Type) Type
	RangeType(index Type, low, high int64) Type
	ArrayType(elem Type, index Type, low, high int64, stringp bool) Type
	SetType(t Type, bitstringp bool) Type
	EnumType(names []string, values []int64) Type
	StructType(structp bool, size int64, fields []Field) Type
	ObjectType(structp bool, size int64, fields []Field, bases []Baseclass,
		methods []Method, vptrBase Type, ownVptr bool) Type
	// IndirectType builds a type that resolves through slot each time it
	// is examined. tag is the struct tag the reference was made under,
	// empty when none.
	IndirectType(slot *Slot, tag string) Type
	// UndefinedTaggedType closes out a tag that was referenced but never
	// defined in the unit.
	UndefinedTaggedType(name string, kind TypeKind) Type

	// Aggregate members.
	MakeField(name string, t Type, bitpos, bitsize int64, vis Visibility) Field
	MakeStaticMember(name string, t Type, physname string, vis Visibility) Field
	MakeBaseclass(t Type, bitpos int64, virtual bool, vis Visibility) Baseclass
	MakeMethod(name string, variants []MethodVariant) Method
	MakeMethodVariant(physname string, t Type, vis Visibility,
		constp, volatilep bool, voffset int64, context Type) MethodVariant
	MakeStaticMethodVariant(physname string, t Type, vis Visibility,
		constp, volatilep bool) MethodVariant

	// Naming.
	NameType(t Type, name string) Type
	TagType(t Type, tag string) Type
	RecordTypeSize(t Type, size int) error

	// Queries used while parsing.
	Kind(t Type) TypeKind
	TypeName(t Type) string
	ReturnType(t Type) Type
	ParameterTypes(t Type) ([]Type, bool)
	Fields(t Type) []Field
	FieldName(f Field) string
	FieldType(f Field) Type
	FindNamedType(name string) Type
	FindTaggedType(name string, kind TypeKind) Type
}
