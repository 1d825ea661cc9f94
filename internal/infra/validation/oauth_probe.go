package validation

import (
	"context"

	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
)

type probeMessages struct {
	valid   string
	invalid string
	failed  string
}

var (
	googleMessages = probeMessages{
		valid:   "Google credential is valid",
		invalid: "Google credential is invalid or expired",
		failed:  "Failed to validate Google credential",
	}
	slackMessages = probeMessages{
		valid:   "Slack credential is valid",
		invalid: "Slack credential is invalid or revoked",
		failed:  "Failed to validate Slack credential",
	}
)

// newOAuthProbe validates an OAuth access token by asking the provider who owns it.
func newOAuthProbe(providers service.OAuthProviders, provider entity.Provider, msgs probeMessages) Probe {
	return func(ctx context.Context, secret entity.CredentialSecret) (entity.ValidationResult, error) {
		oauthSecret, ok := secret.(entity.OAuthSecret)
		if !ok || oauthSecret.AccessToken == "" {
			return entity.ValidationResult{IsValid: false, Message: msgs.invalid}, nil
		}

		adapter, err := providers.Get(provider)
		if err != nil {
			return entity.ValidationResult{IsValid: false, Message: msgs.failed}, err
		}

		identity, err := adapter.WhoAmI(ctx, oauthSecret.AccessToken)
		switch {
		case err == nil:
		case errors.Is(err, domainerrors.ErrProviderUnauthorized):
			return entity.ValidationResult{IsValid: false, Message: msgs.invalid}, err
		default:
			return entity.ValidationResult{IsValid: false, Message: msgs.failed}, err
		}

		return entity.ValidationResult{
			IsValid: true,
			Message: msgs.valid,
			Details: identityDetails(provider, identity),
		}, nil
	}
}

func identityDetails(provider entity.Provider, identity *entity.OAuthIdentity) map[string]any {
	if identity == nil {
		return nil
	}
	if provider == entity.ProviderSlack {
		return map[string]any{
			"team":   identity.Team,
			"teamId": identity.TeamID,
			"userId": identity.UserID,
		}
	}

	return map[string]any{
		"email": identity.Email,
		"name":  identity.Name,
	}
}
