// Package slack implements the Slack OAuth provider adapter.
package slack

import (
	"context"
	"net/http"
	"strings"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"

	"github.com/slack-go/slack"
	"golang.org/x/oauth2"
)

const defaultAuthURL = "https://slack.com/oauth/v2/authorize"

var (
	// DefaultScopes are the bot scopes requested when none are configured.
	DefaultScopes = []string{"chat:write", "channels:read", "users:read", "files:write"}

	userScopes = []string{"identity.basic", "identity.email"}

	// unauthorizedErrors are auth.test error codes meaning the token is unusable.
	unauthorizedErrors = map[string]bool{
		"invalid_auth":     true,
		"not_authed":       true,
		"token_revoked":    true,
		"token_expired":    true,
		"account_inactive": true,
	}
)

type provider struct {
	cfg        config.OAuthClientConfig
	httpClient *http.Client
}

// NewProvider builds the adapter. Missing client settings only fail on first use.
func NewProvider(cfg config.OAuthClientConfig, httpClient *http.Client) service.OAuthProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &provider{cfg: cfg, httpClient: httpClient}
}

func (p *provider) Provider() entity.Provider {
	return entity.ProviderSlack
}

func (p *provider) configured() error {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" || p.cfg.CallbackURL == "" {
		return domainerrors.ErrProviderNotConfigured.WrapMessage("slack client id, secret or callback url missing")
	}

	return nil
}

// AuthorizationURL joins scopes with commas as Slack expects.
func (p *provider) AuthorizationURL(state string, scopes []string) (string, error) {
	if err := p.configured(); err != nil {
		return "", err
	}
	if len(scopes) == 0 {
		scopes = p.cfg.Scopes
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL := defaultAuthURL
	if p.cfg.AuthURL != "" {
		authURL = p.cfg.AuthURL
	}
	conf := &oauth2.Config{
		ClientID:    p.cfg.ClientID,
		RedirectURL: p.cfg.CallbackURL,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}

	return conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", strings.Join(scopes, ",")),
		oauth2.SetAuthURLParam("user_scope", strings.Join(userScopes, ",")),
	), nil
}

func (p *provider) ExchangeCode(ctx context.Context, code string) (*entity.OAuthTokens, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}

	resp, err := slack.GetOAuthV2ResponseContext(ctx, p.httpClient, p.cfg.ClientID, p.cfg.ClientSecret, code, p.cfg.CallbackURL)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenExchange, err.Error())
	}

	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "bot"
	}

	return &entity.OAuthTokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
		TokenType:    tokenType,
		Extra: map[string]any{
			"teamId":    resp.Team.ID,
			"teamName":  resp.Team.Name,
			"botUserId": resp.BotUserID,
			"appId":     resp.AppID,
		},
	}, nil
}

// Refresh is not supported: Slack bot tokens do not expire.
func (p *provider) Refresh(_ context.Context, _ string) (*entity.OAuthTokens, error) {
	return nil, domainerrors.ErrRefreshNotSupported.WrapMessage("slack bot tokens are long-lived")
}

func (p *provider) WhoAmI(ctx context.Context, accessToken string) (*entity.OAuthIdentity, error) {
	opts := []slack.Option{slack.OptionHTTPClient(p.httpClient)}
	if p.cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(p.cfg.APIURL))
	}

	resp, err := slack.New(accessToken, opts...).AuthTestContext(ctx)
	if err != nil {
		var slackErr slack.SlackErrorResponse
		if errors.As(err, &slackErr) && unauthorizedErrors[slackErr.Err] {
			return nil, errors.Wrap(domainerrors.ErrProviderUnauthorized, slackErr.Err)
		}
		var statusErr slack.StatusCodeError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized {
			return nil, errors.Wrap(domainerrors.ErrProviderUnauthorized, statusErr.Status)
		}

		return nil, errors.Wrap(err, "slack auth.test failed")
	}

	return &entity.OAuthIdentity{
		ID:     resp.UserID,
		Name:   resp.User,
		Team:   resp.Team,
		TeamID: resp.TeamID,
		UserID: resp.UserID,
	}, nil
}
