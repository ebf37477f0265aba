package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptEncoder_HashVerify(t *testing.T) {
	enc := NewBcryptEncoder(bcrypt.MinCost)

	h, err := enc.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", h)
	assert.True(t, strings.HasPrefix(h, "$2a$"))

	assert.True(t, enc.Verify(h, "s3cret"))
	assert.False(t, enc.Verify(h, "wrong"))
	assert.False(t, enc.Verify("", "s3cret"))
}

func TestBcryptEncoder_LongPasswords(t *testing.T) {
	enc := NewBcryptEncoder(bcrypt.MinCost)
	long := strings.Repeat("a", 100)

	h, err := enc.Hash(long)
	require.NoError(t, err)

	assert.True(t, enc.Verify(h, long))
	assert.False(t, enc.Verify(h, long[:99]+"b"))
}

func TestBcryptEncoder_RejectsEmpty(t *testing.T) {
	_, err := NewBcryptEncoder(bcrypt.MinCost).Hash("")
	require.Error(t, err)
}

func TestNewBcryptEncoder_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptEncoder(0).Cost)
}
