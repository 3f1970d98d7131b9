package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewRandomKey returns a fresh ed25519 public key for use as a wallet or
// mint address in tests.
func NewRandomKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return pub
}
