package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaesar(t *testing.T) {
	assert.Equal(t, "Khoor, Zruog!", Caesar("Hello, World!", 3))
	assert.Equal(t, "abc", Caesar("xyz", 3))
	assert.Equal(t, "xyz", Caesar("abc", -3))
	assert.Equal(t, "abc", Caesar("abc", 26))
	assert.Equal(t, "Hello, World!", Uncaesar(Caesar("Hello, World!", 11), 11))
}

func TestMorseRoundTrip(t *testing.T) {
	code := EncodeMorse("sos help")
	assert.Equal(t, "... --- ... / .... . .-.. .--.", code)

	plain, err := DecodeMorse(code)
	require.NoError(t, err)
	assert.Equal(t, "SOS HELP", plain)
}

func TestMorseDropsUnknownAndRejectsBadCode(t *testing.T) {
	assert.Equal(t, ".- -...", EncodeMorse("a#b"))

	_, err := DecodeMorse("... ......-")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestMorseKey(t *testing.T) {
	assert.Equal(t, "H=.... I=..", MorseKey("hi hi"))
}
