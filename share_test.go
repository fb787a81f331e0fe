package folders

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareSigner(t *testing.T) {
	t.Parallel()
	signer := NewShareSigner("test-secret", time.Hour)

	t.Run("round_trip", func(t *testing.T) {
		token, expires, err := signer.Sign("output", "result.bin")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

		folder, file, err := signer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "output", folder)
		assert.Equal(t, "result.bin", file)
	})

	t.Run("tampered", func(t *testing.T) {
		token, _, err := signer.Sign("output", "result.bin")
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		raw[len(raw)/3] ^= 0x01

		_, _, err = signer.Verify(base64.RawURLEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other_secret", func(t *testing.T) {
		token, _, err := NewShareSigner("other-secret", time.Hour).Sign("output", "result.bin")
		require.NoError(t, err)

		_, _, err = signer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, token := range []string{"", "!!!", "bm90LWEtdG9rZW4"} {
			_, _, err := signer.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken, "Verify(%q)", token)
		}
	})
}

func TestShareSigner_Expired(t *testing.T) {
	t.Parallel()
	signer := NewShareSigner("test-secret", time.Minute)
	issued := time.Now()
	signer.now = func() time.Time { return issued }

	token, _, err := signer.Sign("output", "result.bin")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, _, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
