package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := DeriveKey([]byte("device-secret"), []byte("salt-salt-salt-1"))
	k2 := DeriveKey([]byte("device-secret"), []byte("salt-salt-salt-1"))

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	k1 := DeriveKey([]byte("device-secret"), []byte("salt-1"))
	k2 := DeriveKey([]byte("device-secret"), []byte("salt-2"))

	assert.NotEqual(t, k1, k2)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("token-value"), []byte("userToken"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, []byte("token-value")))

	plain, err := Open(key, sealed, []byte("userToken"))
	require.NoError(t, err)
	assert.Equal(t, []byte("token-value"), plain)
}

func TestSeal_FreshNonceEachTime(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)

	a, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)
	b, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpen_Failures(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)
	other, err := RandomBytes(KeySize)
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("v"), []byte("k1"))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := Open(other, sealed, []byte("k1"))
		require.Error(t, err)
	})

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := Open(key, sealed, []byte("k2"))
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Open(key, sealed[:4], []byte("k1"))
		require.ErrorIs(t, err, ErrCiphertextTooShort)
	})

	t.Run("bad key size", func(t *testing.T) {
		_, err := Seal([]byte("short"), []byte("v"), nil)
		require.Error(t, err)
	})
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
	Wipe(nil)
}
