package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStringToSign(t *testing.T) {
	got := BuildStringToSign("POST", "/hooks/upload", 1700000000, EmptyBodyHash)
	assert.Equal(t, "POST\n/hooks/upload\n1700000000\n"+EmptyBodyHash, got)
}

func TestComputeHMACSHA256Deterministic(t *testing.T) {
	sig1 := ComputeHMACSHA256("secret", "message")
	sig2 := ComputeHMACSHA256("secret", "message")
	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 64)

	assert.NotEqual(t, sig1, ComputeHMACSHA256("other-secret", "message"))
	assert.NotEqual(t, sig1, ComputeHMACSHA256("secret", "other message"))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("abc", "abc"))
	assert.False(t, SecureCompare("abc", "abd"))
	assert.False(t, SecureCompare("abc", "abcd"))
}

func TestHashBodySHA256(t *testing.T) {
	assert.Equal(t, EmptyBodyHash, HashBodySHA256(nil))
	assert.Equal(t, EmptyBodyHash, HashBodySHA256([]byte{}))

	// sha256("hello")
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashBodySHA256([]byte("hello")))
}
