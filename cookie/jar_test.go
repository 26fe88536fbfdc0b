package cookie_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/cookie"
	"github.com/hanabi-drive/hanabi/wire"
)

func TestRead(t *testing.T) {
	headers := wire.Headers{
		{Name: "Host", Value: "localhost"},
		{Name: "Cookie", Value: "tkn=abc; theme=dark"},
		{Name: "cookie", Value: `quoted="v1";`},
	}

	jar, err := cookie.Read(headers)
	require.NoError(t, err)

	assert.Equal(t, 3, jar.Len())
	assert.True(t, jar.Has("tkn"))
	v, ok := jar.Get("quoted")
	assert.True(t, ok)
	assert.Equal(t, `"v1"`, v, "quotes are part of the value")
	assert.False(t, jar.Has("missing"))
}

func TestRead_NoCookies(t *testing.T) {
	jar, err := cookie.Read(wire.Headers{{Name: "Host", Value: "localhost"}})
	require.NoError(t, err)
	assert.Zero(t, jar.Len())
	assert.False(t, jar.Has("tkn"))
}

func TestRead_DuplicateNames(t *testing.T) {
	jar, err := cookie.Read(wire.Headers{{Name: "Cookie", Value: "tkn=first; tkn=second"}})
	require.NoError(t, err)

	v, _ := jar.Get("tkn")
	assert.Equal(t, "first", v)
	assert.Equal(t, 2, jar.Len())
}

func TestRead_Malformed(t *testing.T) {
	for _, value := range []string{
		"tkn",
		"=abc",
		"t kn=abc",
		"tkn=a b",
		"tkn=abc; broken",
	} {
		_, err := cookie.Read(wire.Headers{{Name: "Cookie", Value: value}})
		assert.ErrorIs(t, err, hanabi.ErrMalformedInput, "value %q", value)
	}
}

func TestRead_WrittenCookie(t *testing.T) {
	h, err := cookie.SetCookie("tkn", "abc", cookie.Attributes{Secure: true, MaxAge: 183})
	require.NoError(t, err)

	// A browser echoes only the pair, never the attributes.
	pair, _, _ := strings.Cut(h.Value, ";")
	jar, err := cookie.Read(wire.Headers{{Name: "Cookie", Value: pair}})
	require.NoError(t, err)

	v, ok := jar.Get("tkn")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}
