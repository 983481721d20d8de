package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordAndCompare(t *testing.T) {
	encoded, err := Password("hunter22secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := Compare("hunter22secret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Compare("hunter23secret", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordSaltsDiffer(t *testing.T) {
	first, err := Password("same input")
	require.NoError(t, err)
	second, err := Password("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCompareMalformedHash(t *testing.T) {
	_, err := Compare("whatever", "not-an-encoded-hash")
	assert.ErrorIs(t, err, ErrMalformedHash)

	_, err = Compare("whatever", "$argon2id$v=19$m=65536,t=3,p=2$bogus")
	assert.Error(t, err)
}

func TestCustomParams(t *testing.T) {
	p := Params{Memory: 16 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	encoded, err := PasswordWithParams("lightweight", p)
	require.NoError(t, err)

	ok, err := Compare("lightweight", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}
