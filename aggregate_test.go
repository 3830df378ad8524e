package stabs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wdbg/stabs"
	"github.com/wdbg/stabs/pkg/dbg"
)

// classNode decodes a unit and returns the definition node behind a
// tag.
func classNode(t *testing.T, tag string, kind stabs.TypeKind, stabstrs ...string) (*dbg.Builder, *dbg.TypeNode) {
	t.Helper()
	recs := unitHeader("/t/", "cls.C")
	recs = append(recs, rec(stabs.N_LSYM, 0, 0, intTypedef))
	for _, s := range stabstrs {
		recs = append(recs, rec(stabs.N_LSYM, 0, 0, s))
	}
	b := decode(t, recs)
	tagged := b.FindTaggedType(tag, kind)
	require.NotNilf(t, tagged, "tag %s", tag)
	return b, tagged.(*dbg.TypeNode).To
}

func Test_PlainStruct(t *testing.T) {
	_, node := classNode(t, "Point", stabs.KindStruct,
		"Point:T(0,20)=s8x:(0,1),0,32;y:(0,1),32,32;;")

	require.Equal(t, stabs.KindStruct, node.Kind)
	require.Equal(t, int64(8), node.Size)
	require.Len(t, node.FieldsV, 2)

	require.Equal(t, "x", node.FieldsV[0].Name)
	require.Equal(t, int64(0), node.FieldsV[0].Bitpos)
	require.Equal(t, int64(32), node.FieldsV[0].Bitsize)
	require.Equal(t, "int", node.FieldsV[0].Type.Name)

	require.Equal(t, "y", node.FieldsV[1].Name)
	require.Equal(t, int64(32), node.FieldsV[1].Bitpos)
}

func Test_Union(t *testing.T) {
	_, node := classNode(t, "U", stabs.KindUnion,
		"U:T(0,20)=u4i:(0,1),0,32;c:(0,1),0,8;;")
	require.Equal(t, stabs.KindUnion, node.Kind)
	require.Len(t, node.FieldsV, 2)
}

func Test_FieldVisibility(t *testing.T) {
	_, node := classNode(t, "V", stabs.KindStruct,
		"V:T(0,20)=s12a:/0(0,1),0,32;b:/1(0,1),32,32;c:/2(0,1),64,32;;")
	require.Len(t, node.FieldsV, 3)
	require.Equal(t, stabs.VisibilityPrivate, node.FieldsV[0].Vis)
	require.Equal(t, stabs.VisibilityProtected, node.FieldsV[1].Vis)
	require.Equal(t, stabs.VisibilityPublic, node.FieldsV[2].Vis)
}

func Test_OptimizedOutFieldIgnored(t *testing.T) {
	_, node := classNode(t, "Z", stabs.KindStruct,
		"Z:T(0,20)=s4gone:(0,1),0,0;kept:(0,1),0,32;;")
	require.Len(t, node.FieldsV, 2)
	require.Equal(t, stabs.VisibilityIgnore, node.FieldsV[0].Vis)
	require.Equal(t, stabs.VisibilityPublic, node.FieldsV[1].Vis)
}

func Test_StaticMember(t *testing.T) {
	_, node := classNode(t, "S", stabs.KindClass,
		"S:T(0,20)=s4count:(0,1):_ZN1S5countE;;")
	require.Len(t, node.FieldsV, 1)
	f := node.FieldsV[0]
	require.Equal(t, "count", f.Name)
	require.True(t, f.Static)
	require.Equal(t, "_ZN1S5countE", f.Physname)
}

func Test_Baseclasses(t *testing.T) {
	_, node := classNode(t, "Derived", stabs.KindClass,
		"Base:Tt(0,20)=s4b:(0,1),0,32;;",
		"Derived:Tt(0,21)=s8!1,020,(0,20);d:(0,1),32,32;;")

	require.Len(t, node.Bases, 1)
	bc := node.Bases[0]
	require.False(t, bc.Virtual)
	require.Equal(t, stabs.VisibilityPublic, bc.Vis)
	require.Equal(t, int64(0), bc.Bitpos)
	require.Equal(t, "Base", bc.Type.Name)
	require.Len(t, node.FieldsV, 1)
}

func Test_MethodStubV2(t *testing.T) {
	_, node := classNode(t, "Foo", stabs.KindClass,
		"Foo:Tt(0,20)=s8x:(0,1),0,32;y:(0,1),32,32;bar::(0,21)=##(0,1);:i;2A.;;")

	require.Len(t, node.Methods, 1)
	m := node.Methods[0]
	require.Equal(t, "bar", m.Name)
	require.Len(t, m.Variants, 1)

	v := m.Variants[0]
	require.Equal(t, "bar__3Fooi", v.Physname)
	require.Equal(t, stabs.VisibilityPublic, v.Vis)
	require.False(t, v.Const)
	require.False(t, v.Static)

	require.Equal(t, stabs.KindMethod, v.Type.Kind)
	require.Len(t, v.Type.Args, 1)
	require.Equal(t, "int", v.Type.Args[0].Name)
	require.False(t, v.Type.Varargs)
}

func Test_MethodStubV2Overloads(t *testing.T) {
	_, node := classNode(t, "Box", stabs.KindClass,
		"Box:Tt(0,20)=s4v:(0,1),0,32;"+
			"set::(0,21)=##(0,1);:i;2A."+
			"(0,22)=##(0,1);:ii;2A.;;")

	require.Len(t, node.Methods, 1)
	m := node.Methods[0]
	require.Len(t, m.Variants, 2)
	require.Len(t, m.Variants[0].Type.Args, 1)
	require.Len(t, m.Variants[1].Type.Args, 2)
	require.Equal(t, "set__3Boxi", m.Variants[0].Physname)
	require.Equal(t, "set__3Boxii", m.Variants[1].Physname)
}

func Test_MethodOperatorName(t *testing.T) {
	// cfront encodes operator names as "op$::NAME." so the mangled
	// name can carry colons; the class must survive with the operator
	// recovered.
	_, node := classNode(t, "OpC", stabs.KindClass,
		"OpC:Tt(0,20)=s4v:(0,1),0,32;op$::__ml.(0,21)=##(0,1);:i;2A.;;")

	require.Len(t, node.Methods, 1)
	m := node.Methods[0]
	require.Equal(t, "__ml", m.Name)
	require.Len(t, m.Variants, 1)
	require.Equal(t, "__ml__3OpCi", m.Variants[0].Physname)
	require.Len(t, m.Variants[0].Type.Args, 1)
	require.Equal(t, "int", m.Variants[0].Type.Args[0].Name)
}

func Test_MethodStubV2BackRef(t *testing.T) {
	_, node := classNode(t, "TB", stabs.KindClass,
		"TB:Tt(0,20)=s4v:(0,1),0,32;two::(0,21)=##(0,1);:iT1;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Equal(t, "two__2TBiT1", v.Physname)
	require.Len(t, v.Type.Args, 2)
	require.Equal(t, "int", v.Type.Args[0].Name)
	require.Equal(t, "int", v.Type.Args[1].Name)
}

func Test_MethodStubV2RepeatedBackRef(t *testing.T) {
	_, node := classNode(t, "RX", stabs.KindClass,
		"RX:Tt(0,20)=s4v:(0,1),0,32;sum::(0,21)=##(0,1);:iN21;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Len(t, v.Type.Args, 3)
}

func Test_MethodStubV2PointerArg(t *testing.T) {
	_, node := classNode(t, "PS", stabs.KindClass,
		"PS:Tt(0,20)=s4v:(0,1),0,32;put::(0,21)=##(0,1);:Pci;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Len(t, v.Type.Args, 2)
	require.Equal(t, stabs.KindPointer, v.Type.Args[0].Kind)
	require.Equal(t, int64(1), v.Type.Args[0].To.Size)
	require.Equal(t, "int", v.Type.Args[1].Name)
}

func Test_MethodStubV2TemplateArg(t *testing.T) {
	b, node := classNode(t, "TU", stabs.KindClass,
		"TU:Tt(0,20)=s4v:(0,1),0,32;use::(0,21)=##(0,1);:t3Map2ZiZi;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Len(t, v.Type.Args, 1)
	require.Equal(t, "Map<int,int>", b.TypeName(v.Type.Args[0]))
	require.NotNil(t, b.FindTaggedType("Map<int,int>", stabs.KindClass))
}

func Test_MethodStubV2Varargs(t *testing.T) {
	_, node := classNode(t, "Log", stabs.KindClass,
		"Log:Tt(0,20)=s4v:(0,1),0,32;put::(0,21)=##(0,1);:ie;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Len(t, v.Type.Args, 1)
	require.True(t, v.Type.Varargs)
}

func Test_MethodStubV2ConstMethod(t *testing.T) {
	_, node := classNode(t, "CM", stabs.KindClass,
		"CM:Tt(0,20)=s4v:(0,1),0,32;get::(0,21)=##(0,1);:v;2B.;;")

	v := node.Methods[0].Variants[0]
	require.True(t, v.Const)
	require.Equal(t, "get__C2CMv", v.Physname)
	// The mangling spells an empty list as a single void argument.
	require.Len(t, v.Type.Args, 1)
	require.Equal(t, stabs.KindVoid, v.Type.Args[0].Kind)
}

func Test_MethodStubV3(t *testing.T) {
	_, node := classNode(t, "Baz", stabs.KindClass,
		"Baz:Tt(0,20)=s4x:(0,1),0,32;bar::(0,21)=##(0,1);:_ZN3Baz3barEid;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Equal(t, "_ZN3Baz3barEid", v.Physname)
	require.Len(t, v.Type.Args, 2)
	require.Equal(t, stabs.KindInt, v.Type.Args[0].Kind)
	require.Equal(t, int64(4), v.Type.Args[0].Size)
	require.Equal(t, stabs.KindFloat, v.Type.Args[1].Kind)
	require.Equal(t, int64(8), v.Type.Args[1].Size)
}

func Test_MethodStubV3PointerArg(t *testing.T) {
	_, node := classNode(t, "P3", stabs.KindClass,
		"P3:Tt(0,20)=s4x:(0,1),0,32;take::(0,21)=##(0,1);:_ZN2P34takeEPKc;2A.;;")

	v := node.Methods[0].Variants[0]
	require.Len(t, v.Type.Args, 1)
	arg := v.Type.Args[0]
	require.Equal(t, stabs.KindPointer, arg.Kind)
	require.Equal(t, stabs.KindConst, arg.To.Kind)
	require.Equal(t, stabs.KindInt, arg.To.To.Kind)
	require.Equal(t, int64(1), arg.To.To.Size)
}

func Test_VirtualMethod(t *testing.T) {
	_, node := classNode(t, "VC", stabs.KindClass,
		"VC:Tt(0,20)=s8x:(0,1),0,32;"+
			"go::(0,21)=##(0,1);:v;2A*3;(0,20);;~%(0,20);")

	require.Len(t, node.Methods, 1)
	v := node.Methods[0].Variants[0]
	require.Equal(t, int64(3), v.Voffset)
	require.NotNil(t, v.Context)
	require.True(t, node.OwnVptr)
}

func Test_StaticMethod(t *testing.T) {
	_, node := classNode(t, "SM", stabs.KindClass,
		"SM:Tt(0,20)=s4x:(0,1),0,32;make::(0,21)=##(0,1);:v;2A?;;")

	v := node.Methods[0].Variants[0]
	require.True(t, v.Static)
}

func Test_UndemanglableVariantDropped(t *testing.T) {
	_, node := classNode(t, "BadM", stabs.KindClass,
		"BadM:Tt(0,20)=s4x:(0,1),0,32;bad::(0,21)=##(0,1);:zzz$;2A.;;")

	// The variant is dropped, the class survives.
	require.Len(t, node.Methods, 1)
	require.Empty(t, node.Methods[0].Variants)
	require.Len(t, node.FieldsV, 1)
}

func Test_VtableAbbrev(t *testing.T) {
	_, node := classNode(t, "VT", stabs.KindStruct,
		"VT:T(0,20)=s8$vf:(0,21)=*(0,1),0;x:(0,1),32,32;;")

	require.Len(t, node.FieldsV, 2)
	require.Equal(t, "_vptr$", node.FieldsV[0].Name)
	require.Equal(t, stabs.VisibilityPrivate, node.FieldsV[0].Vis)
}

func Test_SelfCrossref(t *testing.T) {
	// Some g++ versions define a tag as a reference to itself.
	recs := append(unitHeader("/t/", "x.C"),
		rec(stabs.N_LSYM, 0, 0, "fleep:T(0,20)=xsfleep:"),
	)
	b := decode(t, recs)
	require.NotNil(t, b.FindTaggedType("fleep", stabs.KindStruct))
}

func Test_NestedBlocksWithClassMethods(t *testing.T) {
	b, _ := classNode(t, "Foo", stabs.KindClass,
		"Foo:Tt(0,20)=s8x:(0,1),0,32;y:(0,1),32,32;bar::(0,21)=##(0,1);:i;2A.;;")

	// The typedef half of Tt is also registered.
	named := b.FindNamedType("Foo")
	require.NotNil(t, named)
	require.Equal(t, stabs.KindClass, b.Kind(named))
}
