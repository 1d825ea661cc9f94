// Package oauth wires the OAuth provider adapters and the redirect state codec.
package oauth

import (
	"log/slog"
	"net/http"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/infra/oauth/google"
	"conduit/internal/infra/oauth/slack"

	"go.uber.org/fx"
)

// RegistryParams holds dependencies for the provider registry, injected by Fx.
type RegistryParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type registry struct {
	providers map[entity.Provider]service.OAuthProvider
}

// NewRegistry builds every OAuth adapter once. Unconfigured providers are still
// registered and report ErrProviderNotConfigured when used.
func NewRegistry(params RegistryParams) service.OAuthProviders {
	cfg := params.Config.OAuth
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	providers := []service.OAuthProvider{
		google.NewProvider(cfg.Google, httpClient),
		slack.NewProvider(cfg.Slack, httpClient),
	}

	return NewRegistryFrom(params.Logger, providers...)
}

// NewRegistryFrom registers the given adapters by their Provider key.
func NewRegistryFrom(logger *slog.Logger, providers ...service.OAuthProvider) service.OAuthProviders {
	r := &registry{providers: make(map[entity.Provider]service.OAuthProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Provider()] = p
		if logger != nil {
			logger.Debug("OAuth provider registered", slog.String("provider", p.Provider().String()))
		}
	}

	return r
}

func (r *registry) Get(provider entity.Provider) (service.OAuthProvider, error) {
	p, ok := r.providers[provider]
	if !ok {
		return nil, domainerrors.ErrUnknownProvider.WrapMessage("no oauth flow for provider " + provider.String())
	}

	return p, nil
}

// Module provides the OAuth FX module.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewRegistry,
		NewStateCodec,
	),
)
