package base64

import (
	"bytes"
	"crypto/rand"
	stdbase64 "encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foxText = "The Quick Brown Fox Jumps Over The Lazy Dog."

func TestEncodeKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		padding Padding
		input   string
		want    string
	}{
		{"Empty Padded", Padded, "", ""},
		{"Empty Unpadded", Unpadded, "", ""},
		{"One Byte Padded", Padded, "a", "YQ=="},
		{"One Byte Unpadded", Unpadded, "a", "YQ"},
		{"Two Bytes Padded", Padded, "ab", "YWI="},
		{"Two Bytes Unpadded", Unpadded, "ab", "YWI"},
		{"Three Bytes Padded", Padded, "abc", "YWJj"},
		{"Three Bytes Unpadded", Unpadded, "abc", "YWJj"},
		{"Four Bytes Padded", Padded, "abcd", "YWJjZA=="},
		{"Four Bytes Unpadded", Unpadded, "abcd", "YWJjZA"},
		{"Fox Unpadded", Unpadded, foxText, "VGhlIFF1aWNrIEJyb3duIEZveCBKdW1wcyBPdmVyIFRoZSBMYXp5IERvZy4"},
		{"Fox Padded", Padded, foxText, "VGhlIFF1aWNrIEJyb3duIEZveCBKdW1wcyBPdmVyIFRoZSBMYXp5IERvZy4="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNew('+', '/', tt.padding)
			dst := make([]byte, c.EncodedLength(len(tt.input)))

			n, err := c.Encode(dst, []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, string(dst[:n]))
			assert.Equal(t, tt.want, c.EncodeToString([]byte(tt.input)))
		})
	}
}

func TestDecodeKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		padding Padding
		input   string
		want    string
	}{
		{"Empty Padded", Padded, "", ""},
		{"One Byte Padded", Padded, "YQ==", "a"},
		{"One Byte Unpadded", Unpadded, "YQ", "a"},
		{"Two Bytes Padded", Padded, "YWI=", "ab"},
		{"Two Bytes Unpadded", Unpadded, "YWI", "ab"},
		{"Three Bytes", Padded, "YWJj", "abc"},
		{"Four Bytes Padded", Padded, "YWJjZA==", "abcd"},
		{"Four Bytes Unpadded", Unpadded, "YWJjZA", "abcd"},
		{"Fox Unpadded", Unpadded, "VGhlIFF1aWNrIEJyb3duIEZveCBKdW1wcyBPdmVyIFRoZSBMYXp5IERvZy4", foxText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustNew('+', '/', tt.padding)
			src := []byte(tt.input)
			require.Equal(t, len(tt.want), c.DecodedLength(src))

			dst := make([]byte, c.DecodedLength(src))
			n, err := c.Decode(dst, src)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, string(dst[:n]))
		})
	}
}

func TestEncodedLength(t *testing.T) {
	padded := MustNew('+', '/', Padded)
	unpadded := MustNew('+', '/', Unpadded)

	for _, tc := range []struct{ n, padded, unpadded int }{
		{0, 0, 0},
		{1, 4, 2},
		{2, 4, 3},
		{3, 4, 4},
		{4, 8, 6},
		{5, 8, 7},
		{6, 8, 8},
	} {
		assert.Equal(t, tc.padded, padded.EncodedLength(tc.n), "padded n=%d", tc.n)
		assert.Equal(t, tc.unpadded, unpadded.EncodedLength(tc.n), "unpadded n=%d", tc.n)
	}

	prevPadded, prevUnpadded := 0, 0
	for n := 0; n < 1024; n++ {
		p, u := padded.EncodedLength(n), unpadded.EncodedLength(n)
		assert.Zero(t, p%4, "padded length must be a multiple of 4 for n=%d", n)
		assert.GreaterOrEqual(t, p, prevPadded)
		assert.GreaterOrEqual(t, u, prevUnpadded)
		prevPadded, prevUnpadded = p, u
	}

	assert.Panics(t, func() { padded.EncodedLength(-1) })
}

func TestDecodedLengthRoundTrip(t *testing.T) {
	for _, c := range []*Codec{StdEncoding, URLEncoding, RawStdEncoding, RawURLEncoding} {
		for n := 0; n < 512; n++ {
			encoded := c.EncodeToString(bytes.Repeat([]byte{0xA5}, n))
			require.Len(t, encoded, c.EncodedLength(n))
			require.Equal(t, n, c.DecodedLenString(encoded), "%s n=%d", c.Padding(), n)
		}
	}
}

func TestDecodedLengthShortInput(t *testing.T) {
	assert.Equal(t, 0, StdEncoding.DecodedLength(nil))
	assert.Equal(t, 0, StdEncoding.DecodedLength([]byte("=")))
	assert.Equal(t, 0, StdEncoding.DecodedLength([]byte("Y")))
	assert.Equal(t, 0, RawStdEncoding.DecodedLength([]byte("Y")))
}

func TestRoundTripRandom(t *testing.T) {
	sizes := []int{0, 1, 2, 3, 4, 5, 10, 16, 20, 32, 64, 100, 127, 128, 129, 255, 256, 257, 1000}
	codecs := map[string]*Codec{
		"std":      StdEncoding,
		"url":      URLEncoding,
		"raw-std":  RawStdEncoding,
		"raw-url":  RawURLEncoding,
		"custom":   MustNew('.', '~', Padded),
		"raw-pad=": MustNew('=', '!', Unpadded),
	}

	for name, c := range codecs {
		for _, size := range sizes {
			data := make([]byte, size)
			_, err := io.ReadFull(rand.Reader, data)
			require.NoError(t, err)

			encoded := c.EncodeToString(data)
			decoded, err := c.DecodeString(encoded)
			require.NoError(t, err, "%s size %d", name, size)
			require.True(t, bytes.Equal(data, decoded), "%s size %d", name, size)
		}
	}
}

func TestMatchesStandardLibrary(t *testing.T) {
	data := make([]byte, 300)
	_, err := io.ReadFull(rand.Reader, data)
	require.NoError(t, err)

	for i := 0; i <= len(data); i++ {
		src := data[:i]
		assert.Equal(t, stdbase64.StdEncoding.EncodeToString(src), StdEncoding.EncodeToString(src))
		assert.Equal(t, stdbase64.URLEncoding.EncodeToString(src), URLEncoding.EncodeToString(src))
		assert.Equal(t, stdbase64.RawStdEncoding.EncodeToString(src), RawStdEncoding.EncodeToString(src))
		assert.Equal(t, stdbase64.RawURLEncoding.EncodeToString(src), RawURLEncoding.EncodeToString(src))
	}
}

func TestEncodeBufferTooSmall(t *testing.T) {
	for _, c := range []*Codec{StdEncoding, RawStdEncoding} {
		src := []byte(foxText)
		dst := bytes.Repeat([]byte{'#'}, c.EncodedLength(len(src))-1)

		n, err := c.Encode(dst, src)
		assert.Zero(t, n)
		require.ErrorIs(t, err, ErrBufferTooSmall)

		var tooSmall *BufferTooSmallError
		require.True(t, errors.As(err, &tooSmall))
		assert.Equal(t, c.EncodedLength(len(src)), tooSmall.Required)
		assert.Equal(t, len(dst), tooSmall.Available)
		assert.Equal(t, bytes.Repeat([]byte{'#'}, len(dst)), dst, "no partial output")
	}
}

func TestDecodeBufferTooSmall(t *testing.T) {
	for _, tc := range []struct {
		c   *Codec
		src string
	}{
		{StdEncoding, "YWJjZA=="},
		{RawStdEncoding, "YWJjZA"},
		{StdEncoding, "YQ=="},
	} {
		src := []byte(tc.src)
		dst := bytes.Repeat([]byte{'#'}, tc.c.DecodedLength(src)-1)

		n, err := tc.c.Decode(dst, src)
		assert.Zero(t, n)
		require.ErrorIs(t, err, ErrBufferTooSmall)
		assert.Equal(t, bytes.Repeat([]byte{'#'}, len(dst)), dst, "no partial output")
	}
}

func TestDecodeInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		codec   *Codec
		encoded string
		offset  int
	}{
		{"Illegal Character", StdEncoding, "YW#j", 2},
		{"URL Symbol In Std", StdEncoding, "YW-j", 2},
		{"Std Symbol In URL", RawURLEncoding, "YW+j", 2},
		{"Whitespace", RawStdEncoding, "YW j", 2},
		{"Padded Wrong Length", StdEncoding, "YWJ", 0},
		{"Unpadded Dangling", RawStdEncoding, "YWJjZ", 4},
		{"Padding In Unpadded", RawStdEncoding, "YQ==", 2},
		{"Padding Mid Group", StdEncoding, "YQ=A", 2},
		{"Three Pad Characters", StdEncoding, "Y===", 1},
		{"Only Padding", StdEncoding, "====", 0},
		{"Padding Before End", StdEncoding, "YQ==YWJj", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := bytes.Repeat([]byte{'#'}, 16)
			n, err := tt.codec.Decode(dst, []byte(tt.encoded))
			assert.Zero(t, n)
			require.ErrorIs(t, err, ErrInvalidEncoding)

			var invalid *InvalidEncodingError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.offset, invalid.Offset)
			assert.Equal(t, bytes.Repeat([]byte{'#'}, 16), dst)

			_, err = tt.codec.DecodeString(tt.encoded)
			assert.ErrorIs(t, err, ErrInvalidEncoding)
		})
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		s62, s63 byte
		padding  Padding
	}{
		{"Same Symbols", '+', '+', Padded},
		{"Uppercase", 'A', '/', Padded},
		{"Lowercase", '+', 'z', Unpadded},
		{"Digit", '7', '/', Padded},
		{"Pad Char When Padded", '=', '/', Padded},
		{"Control Char", '\n', '/', Unpadded},
		{"Non ASCII", 0xC3, '/', Unpadded},
		{"Unknown Padding", '+', '/', Padding(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.s62, tt.s63, tt.padding)
			assert.Nil(t, c)
			require.ErrorIs(t, err, ErrConfiguration)

			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
			assert.Panics(t, func() { MustNew(tt.s62, tt.s63, tt.padding) })
		})
	}

	c, err := New('=', '!', Unpadded)
	require.NoError(t, err)
	assert.Equal(t, "YQ", c.EncodeToString([]byte("a")))
}

func TestCodecAccessors(t *testing.T) {
	s62, s63 := URLEncoding.Symbols()
	assert.Equal(t, byte('-'), s62)
	assert.Equal(t, byte('_'), s63)
	assert.Equal(t, Padded, URLEncoding.Padding())
	assert.Equal(t, Unpadded, RawURLEncoding.Padding())
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/", StdEncoding.Alphabet())
	assert.Equal(t, "padded", Padded.String())
	assert.Equal(t, "unpadded", Unpadded.String())
	assert.Equal(t, "Padding(9)", Padding(9).String())
}

func TestAppendEncodeDecode(t *testing.T) {
	out := StdEncoding.AppendEncode([]byte("prefix:"), []byte("ab"))
	assert.Equal(t, "prefix:YWI=", string(out))

	decoded, err := StdEncoding.AppendDecode([]byte("x"), []byte("YWI="))
	require.NoError(t, err)
	assert.Equal(t, "xab", string(decoded))

	orig := []byte("keep")
	decoded, err = StdEncoding.AppendDecode(orig, []byte("Y#=="))
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Equal(t, "keep", string(decoded))
}

func TestAllocatingHelpersValidateOnce(t *testing.T) {
	decoded, err := StdEncoding.DecodeString("YW#j")
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Nil(t, decoded)

	decoded, err = RawStdEncoding.DecodeString("YWJjZ")
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Nil(t, decoded)

	// Spare capacity must stay untouched when decoding fails
	buf := make([]byte, 1, 16)
	buf[0] = 'x'
	out, err := StdEncoding.AppendDecode(buf, []byte("YQ=A"))
	require.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Equal(t, "x", string(out))
	assert.Equal(t, make([]byte, 15), buf[1:16])

	out = RawURLEncoding.AppendEncode(buf, []byte{0xFB, 0xFF})
	assert.Equal(t, "x-_8", string(out))
	assert.Equal(t, "-_8", RawURLEncoding.EncodeToString([]byte{0xFB, 0xFF}))
}

func TestSymbolsMapToHighIndices(t *testing.T) {
	c := MustNew('.', '~', Unpadded)
	// 0xFB 0xFF -> sextets 62, 63, 60
	assert.Equal(t, ".~8", c.EncodeToString([]byte{0xFB, 0xFF}))

	decoded, err := c.DecodeString(".~8")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFB, 0xFF}, decoded)
}

func BenchmarkEncode(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		data := make([]byte, size)
		_, err := io.ReadFull(rand.Reader, data)
		if err != nil {
			b.Fatalf("Failed to generate random data: %v", err)
		}
		dst := make([]byte, StdEncoding.EncodedLength(size))

		b.Run("Size", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = StdEncoding.Encode(dst, data)
			}
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		data := make([]byte, size)
		_, err := io.ReadFull(rand.Reader, data)
		if err != nil {
			b.Fatalf("Failed to generate random data: %v", err)
		}
		encoded := StdEncoding.AppendEncode(nil, data)
		dst := make([]byte, size)

		b.Run("Size", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = StdEncoding.Decode(dst, encoded)
			}
		})
	}
}
