// Package google implements the Google OAuth provider adapter.
package google

import (
	"context"
	"net/http"
	"time"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"

	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultScopes are requested when neither the caller nor configuration name any.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/spreadsheets",
}

type provider struct {
	cfg        config.OAuthClientConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewProvider builds the adapter. Missing client settings only fail on first use.
func NewProvider(cfg config.OAuthClientConfig, httpClient *http.Client) service.OAuthProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &provider{cfg: cfg, httpClient: httpClient, now: time.Now}
}

func (p *provider) Provider() entity.Provider {
	return entity.ProviderGoogle
}

func (p *provider) configured() error {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" || p.cfg.CallbackURL == "" {
		return domainerrors.ErrProviderNotConfigured.WrapMessage("google client id, secret or callback url missing")
	}

	return nil
}

func (p *provider) oauthConfig(scopes []string) *oauth2.Config {
	endpoint := googleendpoint.Endpoint
	if p.cfg.AuthURL != "" {
		endpoint.AuthURL = p.cfg.AuthURL
	}
	if p.cfg.TokenURL != "" {
		endpoint.TokenURL = p.cfg.TokenURL
	}

	return &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  p.cfg.CallbackURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

func (p *provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

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

	return p.oauthConfig(scopes).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

func (p *provider) ExchangeCode(ctx context.Context, code string) (*entity.OAuthTokens, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}

	token, err := p.oauthConfig(nil).Exchange(p.withClient(ctx), code)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenExchange, retrieveErrorDetail(err))
	}

	return p.toTokens(token), nil
}

func (p *provider) Refresh(ctx context.Context, refreshToken string) (*entity.OAuthTokens, error) {
	if err := p.configured(); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, domainerrors.ErrTokenRefresh.WrapMessage("no refresh token")
	}

	source := p.oauthConfig(nil).TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenRefresh, retrieveErrorDetail(err))
	}

	return p.toTokens(token), nil
}

func (p *provider) WhoAmI(ctx context.Context, accessToken string) (*entity.OAuthIdentity, error) {
	client := oauth2.NewClient(p.withClient(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.cfg.APIURL != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.APIURL))
	}

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create google oauth2 service")
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
			return nil, errors.Wrap(domainerrors.ErrProviderUnauthorized, apiErr.Message)
		}

		return nil, errors.Wrap(err, "google userinfo request failed")
	}

	return &entity.OAuthIdentity{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

func (p *provider) toTokens(token *oauth2.Token) *entity.OAuthTokens {
	expiresIn := int(token.ExpiresIn)
	if expiresIn <= 0 && !token.Expiry.IsZero() {
		expiresIn = int(token.Expiry.Sub(p.now()).Seconds())
	}
	scope, _ := token.Extra("scope").(string)

	return &entity.OAuthTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
		Scope:        scope,
		TokenType:    token.TokenType,
	}
}

func retrieveErrorDetail(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode != "" {
			return retrieveErr.ErrorCode + ": " + retrieveErr.ErrorDescription
		}

		return string(retrieveErr.Body)
	}

	return err.Error()
}
