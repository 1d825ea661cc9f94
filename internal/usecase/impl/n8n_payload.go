package impl

import (
	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
)

// n8nCredentialTypes maps app slugs to the credential type names n8n validates against.
var n8nCredentialTypes = map[string]string{
	"google":    "googleOAuth2Api",
	"slack":     "slackOAuth2Api",
	"openai":    "openAiApi",
	"hubspot":   "hubspotOAuth2Api",
	"notion":    "notionOAuth2Api",
	"airtable":  "airtableOAuth2Api",
	"typeform":  "typeformApi",
	"mailchimp": "mailchimpOAuth2Api",
	"stripe":    "stripeApi",
}

// remoteUserName is used when the owner has no display name.
const remoteUserName = "User"

// buildRemoteCredential shapes a decrypted secret into the payload n8n expects for the app.
func buildRemoteCredential(app *entity.App, user *entity.User, secret entity.CredentialSecret, oauthCfg config.OAuthConfig) (service.RemoteCredential, error) {
	credType, ok := n8nCredentialTypes[app.Slug]
	if !ok {
		return service.RemoteCredential{}, errors.Wrapf(domainerrors.ErrSync, "no n8n credential type for app %q", app.Slug)
	}

	data, err := remoteData(app, secret, oauthCfg)
	if err != nil {
		return service.RemoteCredential{}, err
	}

	ownerName := remoteUserName
	if user != nil && user.Name != "" {
		ownerName = user.Name
	}

	return service.RemoteCredential{
		Name: ownerName + " - " + app.Name,
		Type: credType,
		Data: data,
	}, nil
}

func remoteData(app *entity.App, secret entity.CredentialSecret, oauthCfg config.OAuthConfig) (map[string]any, error) {
	switch s := secret.(type) {
	case entity.OAuthSecret:
		provider, _ := app.Provider()
		switch provider {
		case entity.ProviderGoogle:
			return googlePayload(s, oauthCfg.Google), nil
		case entity.ProviderSlack:
			return slackPayload(s), nil
		default:
			return map[string]any{
				"accessToken":  s.AccessToken,
				"refreshToken": s.RefreshToken,
			}, nil
		}
	case entity.APIKeySecret:
		return map[string]any{"apiKey": s.Key}, nil
	default:
		return nil, errors.Wrapf(domainerrors.ErrSync, "unsupported secret %T", secret)
	}
}

func googlePayload(s entity.OAuthSecret, client config.OAuthClientConfig) map[string]any {
	var refreshToken any
	if s.RefreshToken != "" {
		refreshToken = s.RefreshToken
	}

	return map[string]any{
		"accessToken":  s.AccessToken,
		"refreshToken": s.RefreshToken,
		"clientId":     client.ClientID,
		"clientSecret": client.ClientSecret,
		"oauthTokenData": map[string]any{
			"access_token":  s.AccessToken,
			"refresh_token": refreshToken,
			"token_type":    "Bearer",
		},
	}
}

func slackPayload(s entity.OAuthSecret) map[string]any {
	data := map[string]any{"accessToken": s.AccessToken}
	if teamID := s.MetadataString("teamId"); teamID != "" {
		data["teamId"] = teamID
	}
	if teamName := s.MetadataString("teamName"); teamName != "" {
		data["teamName"] = teamName
	}

	return data
}
