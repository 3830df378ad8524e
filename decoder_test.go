package stabs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wdbg/stabs"
	"github.com/wdbg/stabs/pkg/dbg"
)

func rec(kind stabs.Kind, desc uint16, value uint64, text string) stabs.Record {
	return stabs.Record{Kind: kind, Desc: desc, Value: value, Text: text}
}

// decode runs a record sequence through a fresh decoder backed by the
// in-memory builder.
func decode(t *testing.T, recs []stabs.Record, opts ...stabs.Option) *dbg.Builder {
	t.Helper()
	b := dbg.NewBuilder()
	dec := stabs.NewDecoder(b, opts...)
	for i, r := range recs {
		require.NoErrorf(t, dec.Parse(r), "record %d (%s %q)", i, r.Kind, r.Text)
	}
	require.NoError(t, dec.Close())
	return b
}

func unitHeader(dir, file string) []stabs.Record {
	return []stabs.Record{
		rec(stabs.N_SO, 0, 0, dir),
		rec(stabs.N_SO, 0, 0, file),
	}
}

const intTypedef = "int:t(0,1)=r(0,1);-2147483648;2147483647;"

func Test_UnitStart(t *testing.T) {
	testcases := []struct {
		name string
		recs []stabs.Record
		want string
	}{
		{
			name: "directory and file accumulate",
			recs: unitHeader("/work/src/", "main.c"),
			want: "/work/src/main.c",
		},
		{
			name: "absolute path discards the prefix",
			recs: []stabs.Record{
				rec(stabs.N_SO, 0, 0, "/work/src/"),
				rec(stabs.N_SO, 0, 0, "/tmp/gen.c"),
			},
			want: "/tmp/gen.c",
		},
		{
			name: "single record",
			recs: []stabs.Record{rec(stabs.N_SO, 0, 0, "alone.c")},
			want: "alone.c",
		},
	}
	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			b := decode(t, append(tt.recs, rec(stabs.N_LSYM, 0, 0, intTypedef)))
			units := b.Units()
			require.Len(t, units, 1)
			require.Equal(t, tt.want, units[0].Name)
		})
	}
}

func Test_MultipleUnits(t *testing.T) {
	recs := append(unitHeader("/a/", "one.c"), rec(stabs.N_LSYM, 0, 0, intTypedef))
	recs = append(recs, rec(stabs.N_SO, 0, 0, ""))
	recs = append(recs, unitHeader("/b/", "two.c")...)
	recs = append(recs, rec(stabs.N_LSYM, 0, 0, intTypedef))

	b := decode(t, recs)
	units := b.Units()
	require.Len(t, units, 2)
	require.Equal(t, "/a/one.c", units[0].Name)
	require.Equal(t, "/b/two.c", units[1].Name)
}

func Test_FunctionLifecycle(t *testing.T) {
	recs := append(unitHeader("/x/", "f.c"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
		rec(stabs.N_FUN, 0, 0x1000, "main:F(0,1)"),
		rec(stabs.N_SLINE, 10, 0x1000, ""),
		rec(stabs.N_SLINE, 11, 0x1008, ""),
		rec(stabs.N_PSYM, 0, 8, "argc:p(0,1)"),
		rec(stabs.N_LSYM, 0, 4, "a:(0,1)"),
		rec(stabs.N_LSYM, 0, 8, "b:(0,1)"),
		rec(stabs.N_LBRAC, 0, 0x1004, ""),
		rec(stabs.N_RBRAC, 0, 0x1020, ""),
		rec(stabs.N_FUN, 0, 0x1040, ""),
	)
	b := decode(t, recs)
	units := b.Units()
	require.Len(t, units, 1)
	require.Len(t, units[0].Functions, 1)

	fn := units[0].Functions[0]
	require.Equal(t, "main", fn.Name)
	require.True(t, fn.Global)
	require.Equal(t, uint64(0x1000), fn.Addr)
	require.Equal(t, uint64(0x1040), fn.EndAddr)

	require.Len(t, fn.Params, 1)
	require.Equal(t, "argc", fn.Params[0].Name)
	require.Equal(t, stabs.ParamStack, fn.Params[0].Kind)

	// Locals declared before the block opens belong inside it, in
	// declaration order.
	require.Len(t, fn.Body.Children, 1)
	blk := fn.Body.Children[0]
	require.Equal(t, uint64(0x1004), blk.Start)
	require.Equal(t, uint64(0x1020), blk.End)
	require.Len(t, blk.Vars, 2)
	require.Equal(t, "a", blk.Vars[0].Name)
	require.Equal(t, "b", blk.Vars[1].Name)

	require.Equal(t, []dbg.Line{{Line: 10, Addr: 0x1000}, {Line: 11, Addr: 0x1008}}, units[0].Sources[0].Lines)
}

func Test_PendingVarsFlushOnce(t *testing.T) {
	recs := append(unitHeader("/x/", "f.c"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
		rec(stabs.N_FUN, 0, 0x1000, "f:f(0,1)"),
		rec(stabs.N_LSYM, 0, 4, "a:(0,1)"),
		rec(stabs.N_LBRAC, 0, 0x1004, ""),
		rec(stabs.N_LSYM, 0, 8, "b:(0,1)"),
		rec(stabs.N_LBRAC, 0, 0x1008, ""),
		rec(stabs.N_RBRAC, 0, 0x1010, ""),
		rec(stabs.N_RBRAC, 0, 0x1018, ""),
		rec(stabs.N_FUN, 0, 0x1020, ""),
	)
	b := decode(t, recs)
	fn := b.Units()[0].Functions[0]
	require.False(t, fn.Global)

	require.Len(t, fn.Body.Children, 1)
	outer := fn.Body.Children[0]
	require.Equal(t, []string{"a"}, varNames(outer.Vars))
	require.Len(t, outer.Children, 1)
	require.Equal(t, []string{"b"}, varNames(outer.Children[0].Vars))
}

func varNames(vars []*dbg.Variable) []string {
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		names = append(names, v.Name)
	}
	return names
}

func Test_UnbalancedBlocks(t *testing.T) {
	b := dbg.NewBuilder()
	dec := stabs.NewDecoder(b)
	require.NoError(t, dec.Parse(rec(stabs.N_SO, 0, 0, "u.c")))
	require.ErrorIs(t, dec.Parse(rec(stabs.N_LBRAC, 0, 0x10, "")), stabs.ErrUnbalancedBlock)

	b = dbg.NewBuilder()
	dec = stabs.NewDecoder(b)
	require.NoError(t, dec.Parse(rec(stabs.N_SO, 0, 0, "u.c")))
	require.NoError(t, dec.Parse(rec(stabs.N_LSYM, 0, 0, intTypedef)))
	require.NoError(t, dec.Parse(rec(stabs.N_FUN, 0, 0x1000, "f:F(0,1)")))
	require.Error(t, dec.Parse(rec(stabs.N_RBRAC, 0, 0x1010, "")))
}

func Test_GlobalVariable(t *testing.T) {
	recs := append(unitHeader("/x/", "g.c"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
		rec(stabs.N_GSYM, 0, 0, "counter:G(0,1)"),
	)
	b := decode(t, recs, stabs.WithSymbolTable(mapSymtab{"counter": 0x2000}))

	vars := b.Units()[0].Variables
	require.Len(t, vars, 1)
	require.Equal(t, "counter", vars[0].Name)
	require.Equal(t, stabs.VarGlobal, vars[0].Kind)
	require.Equal(t, uint64(0x2000), vars[0].Val)
	require.Equal(t, "int", vars[0].Type.Name)
}

type mapSymtab map[string]uint64

func (m mapSymtab) Lookup(name string) (uint64, bool) {
	v, ok := m[name]
	return v, ok
}

func Test_Constants(t *testing.T) {
	recs := append(unitHeader("/x/", "c.c"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
		rec(stabs.N_LSYM, 0, 0, "answer:c=i42"),
		rec(stabs.N_LSYM, 0, 0, "pi:c=r3.14159"),
		rec(stabs.N_LSYM, 0, 0, "mode:c=e(0,1),3"),
	)
	b := decode(t, recs)
	consts := b.Units()[0].Constants
	require.Len(t, consts, 3)

	require.Equal(t, "answer", consts[0].Name)
	require.Equal(t, int64(42), consts[0].Int)

	require.Equal(t, "pi", consts[1].Name)
	require.InDelta(t, 3.14159, consts[1].Float, 1e-9)

	require.Equal(t, "mode", consts[2].Name)
	require.Equal(t, int64(3), consts[2].Int)
	require.NotNil(t, consts[2].Type)
}

func Test_CommonBlock(t *testing.T) {
	recs := append(unitHeader("/x/", "f.f"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
		rec(stabs.N_BCOMM, 0, 0, "shared_"),
		rec(stabs.N_GSYM, 0, 0, "total:G(0,1)"),
		rec(stabs.N_ECOMM, 0, 0, "shared_"),
	)
	b := decode(t, recs)
	commons := b.CommonBlocks()
	require.Len(t, commons, 1)
	require.Equal(t, "shared_", commons[0].Name)
	require.Equal(t, []string{"total"}, varNames(commons[0].Vars))
}

func Test_BadStabString(t *testing.T) {
	b := dbg.NewBuilder()
	dec := stabs.NewDecoder(b)
	require.NoError(t, dec.Parse(rec(stabs.N_SO, 0, 0, "u.c")))
	require.ErrorIs(t, dec.Parse(rec(stabs.N_LSYM, 0, 0, "x:")), stabs.ErrBadStab)
}

func Test_TypeBeforeUnitStart(t *testing.T) {
	// Some producers emit typedefs ahead of the first N_SO; the file 0
	// type table has to exist from the start.
	b := dbg.NewBuilder()
	dec := stabs.NewDecoder(b)
	require.NoError(t, dec.Parse(rec(stabs.N_LSYM, 0, 0, intTypedef)))
	require.NoError(t, dec.Close())
	require.NotNil(t, b.FindNamedType("int"))
}

func Test_CloseEndsOpenFunction(t *testing.T) {
	recs := append(unitHeader("/x/", "f.c"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
		rec(stabs.N_FUN, 0, 0x1000, "f:F(0,1)"),
	)
	b := decode(t, recs)
	fn := b.Units()[0].Functions[0]
	require.Equal(t, "f", fn.Name)
}
