package stabelf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wdbg/stabs"
)

// entry encodes one raw 12-byte .stab entry.
func entry(strx uint32, typ byte, desc uint16, value uint32) []byte {
	var buf [stabEntrySize]byte
	binary.LittleEndian.PutUint32(buf[0:], strx)
	buf[4] = typ
	binary.LittleEndian.PutUint16(buf[6:], desc)
	binary.LittleEndian.PutUint32(buf[8:], value)
	return buf[:]
}

// strtab lays the strings out NUL terminated starting with the empty
// string at offset 0 and returns the data plus each string's offset.
func strtab(strs ...string) ([]byte, []uint32) {
	data := []byte{0}
	offs := make([]uint32, len(strs))
	for i, s := range strs {
		offs[i] = uint32(len(data))
		data = append(data, s...)
		data = append(data, 0)
	}
	return data, offs
}

func Test_ParseStabData(t *testing.T) {
	strdata, offs := strtab("main.c", "main:F(0,1)")

	var data []byte
	data = append(data, entry(0, 0, 0, uint32(len(strdata)))...)
	data = append(data, entry(offs[0], byte(stabs.N_SO), 0, 0x1000)...)
	data = append(data, entry(offs[1], byte(stabs.N_FUN), 3, 0x1000)...)

	recs, err := parseStabData(data, strdata, binary.LittleEndian)
	require.NoError(t, err)
	require.Equal(t, []stabs.Record{
		{Kind: stabs.N_SO, Value: 0x1000, Text: "main.c"},
		{Kind: stabs.N_FUN, Desc: 3, Value: 0x1000, Text: "main:F(0,1)"},
	}, recs)
}

func Test_ParseStabDataUnitBase(t *testing.T) {
	// Two units, each with its own chunk of the string table. The
	// second unit's offsets are relative to its own chunk.
	chunk1, offs1 := strtab("a.c")
	chunk2, offs2 := strtab("b.c")
	strdata := append(append([]byte{}, chunk1...), chunk2...)

	var data []byte
	data = append(data, entry(0, 0, 0, uint32(len(chunk1)))...)
	data = append(data, entry(offs1[0], byte(stabs.N_SO), 0, 0x1000)...)
	data = append(data, entry(0, 0, 0, uint32(len(chunk2)))...)
	data = append(data, entry(offs2[0], byte(stabs.N_SO), 0, 0x2000)...)

	recs, err := parseStabData(data, strdata, binary.LittleEndian)
	require.NoError(t, err)
	require.Equal(t, []stabs.Record{
		{Kind: stabs.N_SO, Value: 0x1000, Text: "a.c"},
		{Kind: stabs.N_SO, Value: 0x2000, Text: "b.c"},
	}, recs)
}

func Test_ParseStabDataContinuation(t *testing.T) {
	strdata, offs := strtab("big:T(0,1)=s128a:\\", "(0,2),0,32;\\", "b:(0,2),32,32;;")

	var data []byte
	data = append(data, entry(0, 0, 0, uint32(len(strdata)))...)
	data = append(data, entry(offs[0], byte(stabs.N_LSYM), 7, 0)...)
	data = append(data, entry(offs[1], byte(stabs.N_LSYM), 0, 0)...)
	data = append(data, entry(offs[2], byte(stabs.N_LSYM), 0, 0)...)

	recs, err := parseStabData(data, strdata, binary.LittleEndian)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// Kind, desc and value come from the first piece.
	require.Equal(t, stabs.Record{
		Kind: stabs.N_LSYM,
		Desc: 7,
		Text: "big:T(0,1)=s128a:(0,2),0,32;b:(0,2),32,32;;",
	}, recs[0])
}

func Test_ParseStabDataTrailingContinuation(t *testing.T) {
	strdata, offs := strtab("cut:t(0,1)=\\")

	var data []byte
	data = append(data, entry(0, 0, 0, uint32(len(strdata)))...)
	data = append(data, entry(offs[0], byte(stabs.N_LSYM), 0, 0)...)

	recs, err := parseStabData(data, strdata, binary.LittleEndian)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "cut:t(0,1)=", recs[0].Text)
}

func Test_ParseStabDataErrors(t *testing.T) {
	strdata, offs := strtab("x")

	t.Run("truncated entry", func(t *testing.T) {
		data := entry(offs[0], byte(stabs.N_SO), 0, 0)[:10]
		_, err := parseStabData(data, strdata, binary.LittleEndian)
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("string offset out of range", func(t *testing.T) {
		data := entry(uint32(len(strdata)), byte(stabs.N_SO), 0, 0)
		_, err := parseStabData(data, strdata, binary.LittleEndian)
		require.ErrorIs(t, err, ErrFormat)
	})
}

func Test_StabString(t *testing.T) {
	strdata := []byte("\x00abc\x00def")

	s, err := stabString(strdata, 0, 1)
	require.NoError(t, err)
	require.Equal(t, "abc", s)

	// A string running to the end of the section without a NUL is
	// taken as is.
	s, err = stabString(strdata, 5, 0)
	require.NoError(t, err)
	require.Equal(t, "def", s)

	_, err = stabString(strdata, 9, 0)
	require.ErrorIs(t, err, ErrFormat)
}
