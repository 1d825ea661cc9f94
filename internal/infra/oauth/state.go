// Package oauth wires the OAuth provider adapters and the redirect state codec.
package oauth

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"

	"github.com/google/uuid"
)

// StateTTL is how long an issued state stays acceptable on callback.
const StateTTL = 15 * time.Minute

// stateClockSkew is how far in the future a timestamp may be before the state is rejected.
const stateClockSkew = time.Minute

// statePayload is the wire form: base64url of {"userId","provider","timestamp","returnUrl"?}.
type statePayload struct {
	UserID    string `json:"userId"`
	Provider  string `json:"provider"`
	Timestamp int64  `json:"timestamp"`
	ReturnURL string `json:"returnUrl,omitempty"`
}

type stateCodec struct {
	now func() time.Time
}

// NewStateCodec returns the codec used by the connect flow.
func NewStateCodec() service.OAuthStateCodec {
	return &stateCodec{now: time.Now}
}

func (c *stateCodec) Encode(state entity.OAuthState) (string, error) {
	issuedAt := state.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = c.now()
	}

	raw, err := json.Marshal(statePayload{
		UserID:    state.UserID.String(),
		Provider:  state.Provider.String(),
		Timestamp: issuedAt.UnixMilli(),
		ReturnURL: state.ReturnURL,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal oauth state")
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (c *stateCodec) Decode(raw string) (*entity.OAuthState, error) {
	decoded, err := decodeBase64URL(raw)
	if err != nil {
		return nil, domainerrors.ErrInvalidState.WrapMessage("state is not base64url")
	}

	var payload statePayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, domainerrors.ErrInvalidState.WrapMessage("state is not JSON")
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return nil, domainerrors.ErrInvalidState.WrapMessage("state has no valid user id")
	}
	if payload.Provider == "" || payload.Timestamp <= 0 {
		return nil, domainerrors.ErrInvalidState.WrapMessage("state is missing provider or timestamp")
	}

	issuedAt := time.UnixMilli(payload.Timestamp)
	now := c.now()
	if issuedAt.Sub(now) > stateClockSkew {
		return nil, domainerrors.ErrInvalidState.WrapMessage("state issued in the future")
	}
	if now.Sub(issuedAt) > StateTTL {
		return nil, domainerrors.ErrExpiredState.WrapMessage("state issued more than 15 minutes ago")
	}

	return &entity.OAuthState{
		UserID:    userID,
		Provider:  entity.Provider(payload.Provider),
		IssuedAt:  issuedAt,
		ReturnURL: payload.ReturnURL,
	}, nil
}

// decodeBase64URL accepts both padded and unpadded base64url.
func decodeBase64URL(raw string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
		return decoded, nil
	}

	return base64.URLEncoding.DecodeString(raw)
}
