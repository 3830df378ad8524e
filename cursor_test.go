package stabs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_CursorNumber(t *testing.T) {
	testcases := []struct {
		name string
		in   string
		want int64
		rest string
		ov   bool
	}{
		{name: "decimal", in: "123;", want: 123, rest: ";"},
		{name: "negative", in: "-42,", want: -42, rest: ","},
		{name: "octal", in: "0777;", want: 511, rest: ";"},
		{name: "hex", in: "0x7fffffff;", want: 0x7fffffff, rest: ";"},
		{name: "bare zero", in: "0;", want: 0, rest: ";"},
		{name: "no digits", in: "abc", want: 0, rest: "abc"},
		{name: "min int64 octal", in: "01000000000000000000000;", want: -9223372036854775808, rest: ";"},
		{name: "unsigned wraps", in: "0xffffffffffffffff;", want: -1, rest: ";"},
		{name: "overflow", in: "0xffffffffffffffffff;", want: 0, rest: ";", ov: true},
	}
	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor(tt.in)
			var ov bool
			got := c.number(&ov)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.ov, ov)
			require.Equal(t, tt.rest, c.rest())
		})
	}
}

func Test_CursorTypenum(t *testing.T) {
	c := newCursor("(3,7)=")
	tn, err := c.typenum()
	require.NoError(t, err)
	require.Equal(t, typeNum{3, 7}, tn)
	require.Equal(t, "=", c.rest())

	c = newCursor("12;")
	tn, err = c.typenum()
	require.NoError(t, err)
	require.Equal(t, typeNum{0, 12}, tn)

	c = newCursor("(3;7)")
	_, err = c.typenum()
	require.ErrorIs(t, err, ErrBadStab)
}

func Test_CursorFloat(t *testing.T) {
	testcases := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{name: "plain", in: "3.14", want: 3.14, ok: true},
		{name: "exponent", in: "1.5e3;", want: 1500, ok: true},
		{name: "negative", in: "-2.5", want: -2.5, ok: true},
		{name: "integer", in: "7;", want: 7, ok: true},
		{name: "not a number", in: "x", ok: false},
	}
	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor(tt.in)
			got, ok := c.float()
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func Test_FindColon(t *testing.T) {
	require.Equal(t, 4, findColon("name:t(0,1)"))
	require.Equal(t, 9, findColon("Foo::bar_:f(0,1)"))
	require.Equal(t, -1, findColon("nocolon"))
	require.Equal(t, -1, findColon("only::double"))
}
