package stabs

import (
	"math"
	"strconv"
)

// cursor scans a stab string. Parsing routines share one cursor so
// that position survives across the recursive descent, the same way
// the string pointer threads through a hand written C parser.
type cursor struct {
	s   string
	pos int
}

func newCursor(s string) *cursor {
	return &cursor{s: s}
}

func (c *cursor) eof() bool { return c.pos >= len(c.s) }

// peek returns the current byte, 0 at end of string.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.s[c.pos]
}

// peekAt returns the byte n positions ahead, 0 past the end.
func (c *cursor) peekAt(n int) byte {
	if c.pos+n >= len(c.s) {
		return 0
	}
	return c.s[c.pos+n]
}

// next consumes and returns the current byte, 0 at end of string.
func (c *cursor) next() byte {
	ch := c.peek()
	if ch != 0 {
		c.pos++
	}
	return ch
}

func (c *cursor) advance(n int) {
	c.pos += n
	if c.pos > len(c.s) {
		c.pos = len(c.s)
	}
}

// skip consumes the current byte if it equals ch.
func (c *cursor) skip(ch byte) bool {
	if c.peek() == ch {
		c.pos++
		return true
	}
	return false
}

// rest returns the unconsumed tail.
func (c *cursor) rest() string { return c.s[c.pos:] }

// number scans an optionally signed integer in C syntax: a leading 0
// selects octal, 0x hex, otherwise decimal. No digits yields 0 without
// moving. A value that does not fit reports overflow through ov when
// non-nil and yields 0, leaving the cursor past the digits so the
// caller can inspect the raw text.
func (c *cursor) number(ov *bool) int64 {
	if ov != nil {
		*ov = false
	}
	start := c.pos
	neg := false
	switch c.peek() {
	case '-':
		neg = true
		c.pos++
	case '+':
		c.pos++
	}
	base := uint64(10)
	if c.peek() == '0' {
		base = 8
		c.pos++
		if ch := c.peek(); ch == 'x' || ch == 'X' {
			base = 16
			c.pos++
		}
	}
	var v uint64
	overflow := false
	digits := base == 8 // a bare "0" already scanned one digit
	for {
		var d uint64
		switch ch := c.peek(); {
		case ch >= '0' && ch <= '9':
			d = uint64(ch - '0')
		case base == 16 && ch >= 'a' && ch <= 'f':
			d = uint64(ch-'a') + 10
		case base == 16 && ch >= 'A' && ch <= 'F':
			d = uint64(ch-'A') + 10
		default:
			goto done
		}
		if d >= base {
			goto done
		}
		digits = true
		if v > (math.MaxUint64-d)/base {
			overflow = true
		}
		v = v*base + d
		c.pos++
	}
done:
	if !digits {
		c.pos = start
		return 0
	}
	if overflow {
		if ov != nil {
			*ov = true
		}
		return 0
	}
	if neg {
		return -int64(v)
	}
	return int64(v)
}

// typeNum identifies a type within the registry. Plain numbers map to
// file 0; the parenthesized form carries an explicit file number.
type typeNum struct {
	file  int
	index int
}

// typenum scans a type number: either NUMBER or (FILE,INDEX).
func (c *cursor) typenum() (typeNum, error) {
	if !c.skip('(') {
		return typeNum{0, int(c.number(nil))}, nil
	}
	file := int(c.number(nil))
	if !c.skip(',') {
		return typeNum{}, badStab(c.s)
	}
	index := int(c.number(nil))
	if !c.skip(')') {
		return typeNum{}, badStab(c.s)
	}
	return typeNum{file, index}, nil
}

// float scans a C float literal and returns its value along with
// whether anything was consumed.
func (c *cursor) float() (float64, bool) {
	start := c.pos
	if ch := c.peek(); ch == '+' || ch == '-' {
		c.pos++
	}
	digits := false
	for isDigit(c.peek()) {
		c.pos++
		digits = true
	}
	if c.peek() == '.' {
		c.pos++
		for isDigit(c.peek()) {
			c.pos++
			digits = true
		}
	}
	if !digits {
		c.pos = start
		return 0, false
	}
	if ch := c.peek(); ch == 'e' || ch == 'E' {
		save := c.pos
		c.pos++
		if ch := c.peek(); ch == '+' || ch == '-' {
			c.pos++
		}
		if !isDigit(c.peek()) {
			c.pos = save
		} else {
			for isDigit(c.peek()) {
				c.pos++
			}
		}
	}
	v, err := strconv.ParseFloat(c.s[start:c.pos], 64)
	if err != nil {
		c.pos = start
		return 0, false
	}
	return v, true
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
