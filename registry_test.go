package stabs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wdbg/stabs"
	"github.com/wdbg/stabs/pkg/dbg"
)

const myintTypedef = "myint:t(1,1)=r(1,1);-2147483648;2147483647;"

func Test_IncludeFileTypes(t *testing.T) {
	recs := append(unitHeader("/i/", "a.c"),
		rec(stabs.N_BINCL, 0, 0x1234, "defs.h"),
		rec(stabs.N_LSYM, 0, 0, myintTypedef),
		rec(stabs.N_EINCL, 0, 0, ""),
		rec(stabs.N_GSYM, 0, 0, "g:G(1,1)"),
	)
	b := decode(t, recs)
	vars := b.Units()[0].Variables
	require.Len(t, vars, 1)
	require.Equal(t, "myint", vars[0].Type.Name)

	// The include shows up as a source of the unit.
	sources := b.Units()[0].Sources
	require.Len(t, sources, 2)
	require.Equal(t, "defs.h", sources[1].Name)
}

func Test_ExcludedIncludeSharesTypes(t *testing.T) {
	recs := append(unitHeader("/i/", "a.c"),
		rec(stabs.N_BINCL, 0, 0x1234, "defs.h"),
		rec(stabs.N_LSYM, 0, 0, myintTypedef),
		rec(stabs.N_EINCL, 0, 0, ""),
		rec(stabs.N_SO, 0, 0, ""),
	)
	recs = append(recs, unitHeader("/i/", "b.c")...)
	recs = append(recs,
		// Same header, elided: type numbers of file 1 must resolve
		// to the definitions from the first unit.
		rec(stabs.N_EXCL, 0, 0x1234, "defs.h"),
		rec(stabs.N_GSYM, 0, 0, "h:G(1,1)"),
	)
	b := decode(t, recs)
	units := b.Units()
	require.Len(t, units, 2)

	vars := units[1].Variables
	require.Len(t, vars, 1)
	require.Equal(t, "myint", vars[0].Type.Name)
}

func Test_ExcludeWithoutMatchIsNotFatal(t *testing.T) {
	recs := append(unitHeader("/i/", "a.c"),
		rec(stabs.N_EXCL, 0, 0x9999, "ghost.h"),
		rec(stabs.N_LSYM, 0, 0, intTypedef),
	)
	b := decode(t, recs)
	require.Len(t, b.Units(), 1)
}

func Test_NestedIncludes(t *testing.T) {
	recs := append(unitHeader("/i/", "a.c"),
		rec(stabs.N_BINCL, 0, 0x1, "outer.h"),
		rec(stabs.N_BINCL, 0, 0x2, "inner.h"),
		rec(stabs.N_LSYM, 0, 0, "deep:t(2,1)=r(2,1);0;255;"),
		rec(stabs.N_EINCL, 0, 0, ""),
		rec(stabs.N_LSYM, 0, 0, "mid:t(1,1)=*(2,1)"),
		rec(stabs.N_EINCL, 0, 0, ""),
		rec(stabs.N_GSYM, 0, 0, "g:G(1,1)"),
	)
	b := decode(t, recs)
	v := b.Units()[0].Variables[0]
	require.Equal(t, "mid", v.Type.Name)
	require.Equal(t, stabs.KindPointer, v.Type.To.Kind)
}

func Test_TypeNumberOutOfRangeFileIsFatal(t *testing.T) {
	dec := stabs.NewDecoder(dbg.NewBuilder())
	require.NoError(t, dec.Parse(rec(stabs.N_SO, 0, 0, "a.c")))
	// File 5 was never introduced by an N_BINCL.
	require.ErrorIs(t, dec.Parse(rec(stabs.N_LSYM, 0, 0, "x:t(5,1)=r(5,1);0;255;")), stabs.ErrBadStab)
}
