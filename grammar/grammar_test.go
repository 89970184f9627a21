package grammar

import (
	"testing"

	"github.com/bulwark-proxy/bulwark/http/status"
	"github.com/stretchr/testify/require"
)

const tokenAlphabet = "!#$%&'*+-.0123456789ABCDEFGHIJKLMNOPQ" +
	"RSTUVWXYZ^_`abcdefghijklmnopqrstuvwxyz|~"

func TestAlphabets(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		for i := 0; i < len(tokenAlphabet); i++ {
			require.True(t, IsToken(tokenAlphabet[i]), "%q", tokenAlphabet[i])
		}

		for _, c := range []byte{' ', '"', '(', ')', ',', '/', ':', ';', '<',
			'=', '>', '?', '@', '[', '\\', ']', '{', '}', 0x00, 0x1f, 0x7f, 0x80, 0xff} {
			require.False(t, IsToken(c), "%q", c)
		}
	})

	t.Run("obs-text", func(t *testing.T) {
		for c := 0x80; c <= 0xff; c++ {
			require.True(t, IsObsText(byte(c)))
		}
		require.False(t, IsObsText(0x7f))
		require.False(t, IsObsText('a'))
	})

	t.Run("etagc", func(t *testing.T) {
		for _, c := range []byte("(),/:;<=>?@[\\]{}") {
			require.True(t, IsETagChar(c))
		}
		for i := 0; i < len(tokenAlphabet); i++ {
			require.True(t, IsETagChar(tokenAlphabet[i]))
		}
		for _, c := range []byte{0x80, 0x90, 0xC8, 0xAE, 0xFE, 0xFF} {
			require.True(t, IsETagChar(c))
		}
		for _, c := range []byte{'"', ' ', '\t', 0x00, 0x0f, 0x7f} {
			require.False(t, IsETagChar(c), "%q", c)
		}
	})

	t.Run("field chars", func(t *testing.T) {
		for _, c := range []byte{' ', '\t', '"', 'a', '~', 0x80, 0xff} {
			require.True(t, IsFieldChar(c))
		}
		for _, c := range []byte{0x00, '\r', '\n', 0x0b, 0x7f} {
			require.False(t, IsFieldChar(c))
		}
	})
}

func TestParseUint(t *testing.T) {
	type testcase struct {
		input string
		width Width
		value uint64
		err   error
	}

	pass := func(input string, w Width, value uint64) testcase {
		return testcase{input, w, value, nil}
	}
	block := func(input string, w Width, err error) testcase {
		return testcase{input, w, 0, err}
	}

	cases := []testcase{
		pass("0", Bit32, 0),
		pass("65535", Bit32, 65535),
		pass("65535", Bit16, 65535),
		pass("4294967295", Bit32, 4294967295),
		pass("9223372036854775807", Bit63, 1<<63-1),
		pass("18446744073709551615", Bit64, 1<<64-1),

		block("", Bit32, status.ErrMalformedNumber),
		block(" ", Bit32, status.ErrMalformedNumber),
		block("  ", Bit32, status.ErrMalformedNumber),
		block("5a", Bit32, status.ErrMalformedNumber),
		block("\"", Bit32, status.ErrMalformedNumber),
		block("=", Bit32, status.ErrMalformedNumber),
		block("-1", Bit32, status.ErrMalformedNumber),
		block("+1", Bit32, status.ErrMalformedNumber),
		block("0.99", Bit32, status.ErrMalformedNumber),
		block("dummy", Bit32, status.ErrMalformedNumber),
		block(" 42", Bit32, status.ErrMalformedNumber),
		block("42 ", Bit32, status.ErrMalformedNumber),

		block("65536", Bit16, status.ErrNumberOutOfRange),
		block("2147483647", Bit16, status.ErrNumberOutOfRange),
		block("4294967296", Bit32, status.ErrNumberOutOfRange),
		block("9223372036854775807", Bit32, status.ErrNumberOutOfRange),
		block("9223372036854775808", Bit63, status.ErrNumberOutOfRange),
		block("18446744073709551615", Bit63, status.ErrNumberOutOfRange),
		block("18446744073709551616", Bit64, status.ErrNumberOutOfRange),
		block("99999999999999999999999999", Bit64, status.ErrNumberOutOfRange),
	}

	for _, tc := range cases {
		v, err := ParseUint([]byte(tc.input), tc.width)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err, "input %q", tc.input)
			continue
		}

		require.NoError(t, err, "input %q", tc.input)
		require.Equal(t, tc.value, v, "input %q", tc.input)
	}
}

func TestETag(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tag, err := ValidateETag([]byte(`"dummy"`))
		require.NoError(t, err)
		require.False(t, tag.Weak)
		require.Equal(t, "dummy", string(tag.Opaque))

		tag, err = ValidateETag([]byte(`W/"dummy"`))
		require.NoError(t, err)
		require.True(t, tag.Weak)
		require.Equal(t, "dummy", string(tag.Opaque))

		// delimiters and obs-text are legal inside the quotes
		_, err = ValidateETag([]byte("\"et@g,/with[delims]\x80\xff\""))
		require.NoError(t, err)
	})

	t.Run("block", func(t *testing.T) {
		for _, input := range []string{
			`"dummy`,
			`dummy"`,
			`'dummy'`,
			`W/ "dummy"`,
			`w/"dummy"`,
			"\"\x00\"",
			"\"\x0f\"",
			"\"\x7f\"",
			`" "`,
			`"""`,
			`""`,
			``,
		} {
			_, err := ValidateETag([]byte(input))
			require.ErrorIs(t, err, status.ErrBadETag, "input %q", input)
		}
	})

	t.Run("list", func(t *testing.T) {
		var tags []ETag
		err := ParseETagList([]byte(`"one", W/"two",  "three"`), func(tag ETag) error {
			tags = append(tags, tag)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, tags, 3)
		require.Equal(t, "one", string(tags[0].Opaque))
		require.True(t, tags[1].Weak)
		require.Equal(t, "two", string(tags[1].Opaque))
		require.Equal(t, "three", string(tags[2].Opaque))
	})

	t.Run("wildcard", func(t *testing.T) {
		calls := 0
		err := ParseETagList([]byte(`*`), func(tag ETag) error {
			calls++
			require.Equal(t, "*", string(tag.Opaque))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("bad lists", func(t *testing.T) {
		for _, input := range []string{
			`"one",`,
			`"one" "two"`,
			`"one"; "two"`,
			`*, "two"`,
		} {
			err := ParseETagList([]byte(input), func(ETag) error { return nil })
			require.ErrorIs(t, err, status.ErrBadETag, "input %q", input)
		}
	})
}
