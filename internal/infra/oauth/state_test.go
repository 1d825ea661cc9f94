package oauth

import (
	"encoding/base64"
	"testing"
	"time"

	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixedCodec(now time.Time) *stateCodec {
	return &stateCodec{now: func() time.Time { return now }}
}

func TestStateCodec_RoundTrip(t *testing.T) {
	now := time.UnixMilli(1_760_000_000_000)
	codec := newFixedCodec(now)
	userID := uuid.New()

	raw, err := codec.Encode(entity.OAuthState{
		UserID:    userID,
		Provider:  entity.ProviderGoogle,
		ReturnURL: "http://localhost:3000/credentials",
	})
	require.NoError(t, err)

	state, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, state.UserID)
	assert.Equal(t, entity.ProviderGoogle, state.Provider)
	assert.Equal(t, now, state.IssuedAt)
	assert.Equal(t, "http://localhost:3000/credentials", state.ReturnURL)
}

func TestStateCodec_WireFormat(t *testing.T) {
	userID := uuid.MustParse("7b0c8d1e-2f3a-4b5c-8d9e-0f1a2b3c4d5e")
	json := `{"userId":"7b0c8d1e-2f3a-4b5c-8d9e-0f1a2b3c4d5e","provider":"slack","timestamp":1760000000000}`
	now := time.UnixMilli(1_760_000_000_000).Add(time.Minute)

	for _, raw := range []string{
		base64.RawURLEncoding.EncodeToString([]byte(json)),
		base64.URLEncoding.EncodeToString([]byte(json)),
	} {
		state, err := newFixedCodec(now).Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, userID, state.UserID)
		assert.Equal(t, entity.ProviderSlack, state.Provider)
		assert.Empty(t, state.ReturnURL)
	}
}

func TestStateCodec_Expired(t *testing.T) {
	issued := time.UnixMilli(1_760_000_000_000)
	raw, err := newFixedCodec(issued).Encode(entity.OAuthState{UserID: uuid.New(), Provider: entity.ProviderGoogle})
	require.NoError(t, err)

	_, err = newFixedCodec(issued.Add(14 * time.Minute)).Decode(raw)
	require.NoError(t, err)

	_, err = newFixedCodec(issued.Add(16 * time.Minute)).Decode(raw)
	assert.True(t, errors.Is(err, domainerrors.ErrExpiredState))
}

func TestStateCodec_RejectsFutureTimestamp(t *testing.T) {
	now := time.UnixMilli(1_760_000_000_000)
	userID := uuid.New()

	slightlyAhead, err := newFixedCodec(now).Encode(entity.OAuthState{
		UserID: userID, Provider: entity.ProviderGoogle, IssuedAt: now.Add(30 * time.Second),
	})
	require.NoError(t, err)
	_, err = newFixedCodec(now).Decode(slightlyAhead)
	require.NoError(t, err)

	farAhead, err := newFixedCodec(now).Encode(entity.OAuthState{
		UserID: userID, Provider: entity.ProviderGoogle, IssuedAt: now.Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = newFixedCodec(now).Decode(farAhead)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidState))
}

func TestStateCodec_Invalid(t *testing.T) {
	codec := newFixedCodec(time.Now())
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not base64", raw: "%%%"},
		{name: "not json", raw: enc("hello")},
		{name: "bad user id", raw: enc(`{"userId":"nope","provider":"google","timestamp":1}`)},
		{name: "missing provider", raw: enc(`{"userId":"` + uuid.NewString() + `","timestamp":1}`)},
		{name: "missing timestamp", raw: enc(`{"userId":"` + uuid.NewString() + `","provider":"google"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.raw)
			assert.True(t, errors.Is(err, domainerrors.ErrInvalidState))
		})
	}
}
