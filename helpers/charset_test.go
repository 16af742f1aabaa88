package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUTF8PassesThroughUTF8(t *testing.T) {
	in := []byte(`{"title":"Crucial 16GB DDR4 – 3200MHz"}`)
	out, err := ToUTF8(in, "application/json; charset=utf-8")
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestToUTF8StripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`[]`)...)
	out, err := ToUTF8(in, "application/json")
	assert.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestToUTF8ConvertsLatin1(t *testing.T) {
	// "Mémoire" in ISO-8859-1
	in := []byte{'M', 0xE9, 'm', 'o', 'i', 'r', 'e'}
	out, err := ToUTF8(in, "text/plain; charset=iso-8859-1")
	assert.NoError(t, err)
	assert.Equal(t, "Mémoire", string(out))
}
