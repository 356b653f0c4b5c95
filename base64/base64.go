// Package base64 provides a Base64 codec with configurable symbols for
// alphabet indices 62 and 63 and optional '=' padding.
//
// A Codec holds only immutable lookup tables, so a single value may be
// shared between goroutines. The Encode and Decode methods write into a
// caller-supplied buffer and never grow it; EncodeToString, DecodeString and
// the Append variants allocate on the caller's behalf.
package base64

import (
	"fmt"
)

// Padding selects whether encoded output is padded with '=' to a multiple of 4.
type Padding int

const (
	// Unpadded omits trailing '=' characters.
	Unpadded Padding = iota
	// Padded fills the final 4-character group with '='.
	Padded
)

func (p Padding) String() string {
	switch p {
	case Padded:
		return "padded"
	case Unpadded:
		return "unpadded"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// PadChar is the padding character used in Padded mode.
const PadChar = '='

const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// invalidIndex marks bytes that are not part of the alphabet in decodeMap.
const invalidIndex = 0xFF

// Codec encodes and decodes Base64 text for one alphabet and padding mode.
type Codec struct {
	encode    [64]byte
	decodeMap [256]byte
	padding   Padding
}

// Predefined codecs for the RFC 4648 alphabets.
var (
	StdEncoding    = MustNew('+', '/', Padded)
	URLEncoding    = MustNew('-', '_', Padded)
	RawStdEncoding = MustNew('+', '/', Unpadded)
	RawURLEncoding = MustNew('-', '_', Unpadded)
)

// New returns a Codec that maps index 62 to symbol62 and index 63 to symbol63.
// It returns a *ConfigurationError if the symbols collide with each other, with
// the alphanumeric part of the alphabet, or with the pad character in Padded mode.
func New(symbol62, symbol63 byte, padding Padding) (*Codec, error) {
	if err := validate(symbol62, symbol63, padding); err != nil {
		return nil, err
	}

	c := &Codec{padding: padding}
	copy(c.encode[:], alnum)
	c.encode[62] = symbol62
	c.encode[63] = symbol63

	for i := range c.decodeMap {
		c.decodeMap[i] = invalidIndex
	}
	for i, ch := range c.encode {
		c.decodeMap[ch] = byte(i)
	}
	return c, nil
}

// MustNew is like New but panics if the configuration is invalid.
func MustNew(symbol62, symbol63 byte, padding Padding) *Codec {
	c, err := New(symbol62, symbol63, padding)
	if err != nil {
		panic(err)
	}
	return c
}

func validate(symbol62, symbol63 byte, padding Padding) error {
	if padding != Padded && padding != Unpadded {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown padding mode %d", int(padding))}
	}
	for _, s := range []byte{symbol62, symbol63} {
		switch {
		case s <= ' ' || s >= 0x7F:
			return &ConfigurationError{Symbol: s, Reason: "symbol must be a printable ASCII character"}
		case isAlnum(s):
			return &ConfigurationError{Symbol: s, Reason: "symbol collides with the alphanumeric alphabet"}
		case s == PadChar && padding == Padded:
			return &ConfigurationError{Symbol: s, Reason: "symbol collides with the pad character"}
		}
	}
	if symbol62 == symbol63 {
		return &ConfigurationError{Symbol: symbol62, Reason: "symbol62 and symbol63 must differ"}
	}
	return nil
}

func isAlnum(b byte) bool {
	return ('A' <= b && b <= 'Z') || ('a' <= b && b <= 'z') || ('0' <= b && b <= '9')
}

// Symbols returns the characters used for alphabet indices 62 and 63.
func (c *Codec) Symbols() (byte, byte) {
	return c.encode[62], c.encode[63]
}

// Padding returns the codec's padding mode.
func (c *Codec) Padding() Padding {
	return c.padding
}

// Alphabet returns the 64 characters of the alphabet in index order.
func (c *Codec) Alphabet() string {
	return string(c.encode[:])
}

// EncodedLength returns the number of characters produced by encoding n bytes,
// including padding when enabled.
func (c *Codec) EncodedLength(n int) int {
	if n < 0 {
		panic("base64: negative input length")
	}
	length := n / 3 * 4
	switch rem := n % 3; {
	case rem == 0:
	case c.padding == Padded:
		length += 4
	default:
		// 1 leftover byte needs 2 characters, 2 need 3
		length += rem + 1
	}
	return length
}

// DecodedLength returns the number of bytes encoded by src. The result is only
// meaningful for well-formed input; use Decode to validate.
func (c *Codec) DecodedLength(src []byte) int {
	n := len(src)
	length := n / 4 * 3
	if c.padding == Padded {
		if n > 0 && src[n-1] == PadChar {
			if n > 1 && src[n-2] == PadChar {
				length -= 2
			} else {
				length--
			}
		}
		if length < 0 {
			length = 0
		}
		return length
	}
	switch n % 4 {
	case 2:
		length++
	case 3:
		length += 2
	}
	return length
}

// DecodedLenString is DecodedLength for string input.
func (c *Codec) DecodedLenString(s string) int {
	return c.DecodedLength([]byte(s))
}

// Encode writes the encoding of src into dst and returns the number of
// characters written. If len(dst) is smaller than EncodedLength(len(src)), it
// returns a *BufferTooSmallError and leaves dst untouched.
func (c *Codec) Encode(dst, src []byte) (int, error) {
	required := c.EncodedLength(len(src))
	if len(dst) < required {
		return 0, &BufferTooSmallError{Required: required, Available: len(dst)}
	}

	di, si := 0, 0
	for full := len(src) / 3 * 3; si < full; si += 3 {
		group := uint(src[si])<<16 | uint(src[si+1])<<8 | uint(src[si+2])
		dst[di+0] = c.encode[group>>18&0x3F]
		dst[di+1] = c.encode[group>>12&0x3F]
		dst[di+2] = c.encode[group>>6&0x3F]
		dst[di+3] = c.encode[group&0x3F]
		di += 4
	}

	switch len(src) - si {
	case 1:
		group := uint(src[si]) << 16
		dst[di+0] = c.encode[group>>18&0x3F]
		dst[di+1] = c.encode[group>>12&0x3F]
		di += 2
		if c.padding == Padded {
			dst[di+0] = PadChar
			dst[di+1] = PadChar
			di += 2
		}
	case 2:
		group := uint(src[si])<<16 | uint(src[si+1])<<8
		dst[di+0] = c.encode[group>>18&0x3F]
		dst[di+1] = c.encode[group>>12&0x3F]
		dst[di+2] = c.encode[group>>6&0x3F]
		di += 3
		if c.padding == Padded {
			dst[di] = PadChar
			di++
		}
	}
	return di, nil
}

// EncodeToString returns the encoding of src.
func (c *Codec) EncodeToString(src []byte) string {
	buf := make([]byte, c.EncodedLength(len(src)))
	// buf is sized exactly, so Encode cannot fail.
	_, _ = c.Encode(buf, src)
	return string(buf)
}

// AppendEncode appends the encoding of src to dst and returns the extended slice.
func (c *Codec) AppendEncode(dst, src []byte) []byte {
	n := c.EncodedLength(len(src))
	start := len(dst)
	dst = grow(dst, n)
	_, _ = c.Encode(dst[start:start+n], src)
	return dst[:start+n]
}

// Decode writes the bytes represented by src into dst and returns the number
// of bytes written. Malformed input yields an *InvalidEncodingError and a dst
// smaller than DecodedLength(src) yields a *BufferTooSmallError; in both cases
// dst is left untouched.
func (c *Codec) Decode(dst, src []byte) (int, error) {
	if err := c.check(src); err != nil {
		return 0, err
	}
	required := c.DecodedLength(src)
	if len(dst) < required {
		return 0, &BufferTooSmallError{Required: required, Available: len(dst)}
	}

	di, si := 0, 0
	for groups := required / 3; groups > 0; groups-- {
		group := uint(c.decodeMap[src[si]])<<18 |
			uint(c.decodeMap[src[si+1]])<<12 |
			uint(c.decodeMap[src[si+2]])<<6 |
			uint(c.decodeMap[src[si+3]])
		dst[di+0] = byte(group >> 16)
		dst[di+1] = byte(group >> 8)
		dst[di+2] = byte(group)
		si += 4
		di += 3
	}

	switch required % 3 {
	case 1:
		group := uint(c.decodeMap[src[si]])<<18 | uint(c.decodeMap[src[si+1]])<<12
		dst[di] = byte(group >> 16)
		di++
	case 2:
		group := uint(c.decodeMap[src[si]])<<18 |
			uint(c.decodeMap[src[si+1]])<<12 |
			uint(c.decodeMap[src[si+2]])<<6
		dst[di+0] = byte(group >> 16)
		dst[di+1] = byte(group >> 8)
		di += 2
	}
	return di, nil
}

// DecodeString returns the bytes represented by s.
func (c *Codec) DecodeString(s string) ([]byte, error) {
	src := []byte(s)
	buf := make([]byte, c.DecodedLength(src))
	n, err := c.Decode(buf, src)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// AppendDecode appends the bytes represented by src to dst and returns the
// extended slice. On error dst is returned unchanged.
func (c *Codec) AppendDecode(dst, src []byte) ([]byte, error) {
	n := c.DecodedLength(src)
	start := len(dst)
	out := grow(dst, n)
	if _, err := c.Decode(out[start:start+n], src); err != nil {
		return dst, err
	}
	return out[:start+n], nil
}

// check reports the first structural or alphabet violation in src.
func (c *Codec) check(src []byte) error {
	n := len(src)
	data := n
	if c.padding == Padded {
		if n%4 != 0 {
			return &InvalidEncodingError{Offset: n - n%4, Reason: "length is not a multiple of 4"}
		}
		for data > 0 && n-data < 2 && src[data-1] == PadChar {
			data--
		}
	} else if n%4 == 1 {
		return &InvalidEncodingError{Offset: n - 1, Reason: "dangling character"}
	}

	for i := 0; i < data; i++ {
		if c.decodeMap[src[i]] == invalidIndex {
			if src[i] == PadChar {
				return &InvalidEncodingError{Offset: i, Reason: "unexpected padding"}
			}
			return &InvalidEncodingError{Offset: i, Reason: fmt.Sprintf("illegal character %q", src[i])}
		}
	}

	return nil
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b[:len(b)+n]
	}
	out := make([]byte, len(b)+n)
	copy(out, b)
	return out
}
