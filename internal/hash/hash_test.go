package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_SaltedAndVerifiable(t *testing.T) {
	t.Parallel()

	const plain = "Passw0rd1"

	// low cost keeps the test fast; production cost is configured separately
	h1, err := Password(plain, 4)
	require.NoError(t, err)
	h2, err := Password(plain, 4)
	require.NoError(t, err)

	// salting: same plaintext, different hashes, both verify
	assert.NotEqual(t, h1, h2)
	assert.True(t, Check(h1, plain))
	assert.True(t, Check(h2, plain))
}

func TestCheck_WrongPassword(t *testing.T) {
	t.Parallel()

	h, err := Password("correct horse 1", 4)
	require.NoError(t, err)

	assert.False(t, Check(h, "wrong horse 1"))
	assert.False(t, Check(h, ""))
	assert.False(t, Check("", "correct horse 1"))
}

func TestPassword_DefaultCost(t *testing.T) {
	t.Parallel()

	h, err := Password("Some Passw0rd", 0)
	require.NoError(t, err)
	assert.True(t, Check(h, "Some Passw0rd"))
}
