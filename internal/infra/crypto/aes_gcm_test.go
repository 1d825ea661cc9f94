package crypto

import (
	"strings"
	"testing"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCipher(t *testing.T) service.Cipher {
	t.Helper()
	c, err := NewAESGCMCipher(testKey)
	require.NoError(t, err)

	return c
}

func TestNewAESGCMCipher_RejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "too short", key: testKey[:62]},
		{name: "too long", key: testKey + "00"},
		{name: "not hex", key: strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewAESGCMCipher(tt.key)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestNewCipher_FromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Encryption.Key = testKey

	c, err := NewCipher(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{"", "sk-test123", "unicode ✓ 測試", strings.Repeat("x", 4096)} {
		payload, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.Len(t, payload.IV, ivSize)
		assert.Len(t, payload.AuthTag, tagSize)

		got, err := c.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestCipher_FreshIVPerCall(t *testing.T) {
	c := newTestCipher(t)

	first, err := c.Encrypt("same input")
	require.NoError(t, err)
	second, err := c.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first.IV, second.IV)
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
}

func TestCipher_TamperDetection(t *testing.T) {
	c := newTestCipher(t)
	original, err := c.Encrypt("sk-test123")
	require.NoError(t, err)

	flip := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0x01

		return out
	}

	tests := []struct {
		name    string
		payload entity.EncryptedPayload
	}{
		{name: "ciphertext bit", payload: entity.EncryptedPayload{Ciphertext: flip(original.Ciphertext, 0), IV: original.IV, AuthTag: original.AuthTag}},
		{name: "iv bit", payload: entity.EncryptedPayload{Ciphertext: original.Ciphertext, IV: flip(original.IV, 15), AuthTag: original.AuthTag}},
		{name: "tag bit", payload: entity.EncryptedPayload{Ciphertext: original.Ciphertext, IV: original.IV, AuthTag: flip(original.AuthTag, 7)}},
		{name: "short tag", payload: entity.EncryptedPayload{Ciphertext: original.Ciphertext, IV: original.IV, AuthTag: original.AuthTag[:8]}},
		{name: "short iv", payload: entity.EncryptedPayload{Ciphertext: original.Ciphertext, IV: original.IV[:12], AuthTag: original.AuthTag}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(tt.payload)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, domainerrors.ErrIntegrity))
		})
	}
}

func TestCipher_MismatchedTriple(t *testing.T) {
	c := newTestCipher(t)
	a, err := c.Encrypt("access-token")
	require.NoError(t, err)
	b, err := c.Encrypt("refresh-token")
	require.NoError(t, err)

	_, err = c.Decrypt(entity.EncryptedPayload{Ciphertext: a.Ciphertext, IV: b.IV, AuthTag: a.AuthTag})
	assert.True(t, errors.Is(err, domainerrors.ErrIntegrity))

	_, err = c.Decrypt(entity.EncryptedPayload{Ciphertext: a.Ciphertext, IV: a.IV, AuthTag: b.AuthTag})
	assert.True(t, errors.Is(err, domainerrors.ErrIntegrity))
}

func TestCipher_WrongKey(t *testing.T) {
	c := newTestCipher(t)
	other, err := NewAESGCMCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	payload, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(payload)
	assert.True(t, errors.Is(err, domainerrors.ErrIntegrity))
}

func TestCipher_JSONRoundTrip(t *testing.T) {
	c := newTestCipher(t)
	data := map[string]any{
		"apiKey": "sk-test123",
		"name":   "OpenAI API Key",
		"nested": map[string]any{"teamId": "T1"},
	}

	payload, err := c.EncryptJSON(data)
	require.NoError(t, err)

	got, err := c.DecryptJSON(payload)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCipher_DecryptJSON_NotJSON(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{"not json", "null", "[1,2]"} {
		payload, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		_, err = c.DecryptJSON(payload)
		assert.True(t, errors.Is(err, domainerrors.ErrDeserialization), plaintext)
		assert.False(t, errors.Is(err, domainerrors.ErrIntegrity), plaintext)
	}
}

func TestCipher_HashToken(t *testing.T) {
	c := newTestCipher(t)

	assert.Equal(t, c.HashToken("token"), c.HashToken("token"))
	assert.NotEqual(t, c.HashToken("token"), c.HashToken("token2"))
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", c.HashToken("abc"))
}

func TestCipher_GenerateToken(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.GenerateToken(32)
	require.NoError(t, err)
	b, err := c.GenerateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	_, err = c.GenerateToken(0)
	assert.Error(t, err)
}
