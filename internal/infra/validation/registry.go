// Package validation probes providers to check whether a stored secret still works.
package validation

import (
	"context"
	"log/slog"
	"net/http"

	"conduit/config"
	deliverycontext "conduit/internal/delivery/context"
	"conduit/internal/domain/entity"
	"conduit/internal/domain/service"

	"go.uber.org/fx"
)

const msgNoValidator = "no validator for provider"

// Probe checks one provider's secret. The returned error is the provider
// failure behind a negative result; it is logged, never surfaced to callers.
type Probe func(ctx context.Context, secret entity.CredentialSecret) (entity.ValidationResult, error)

// RegistryParams holds dependencies for the validator registry, injected by Fx.
type RegistryParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Providers service.OAuthProviders
}

type registry struct {
	probes map[string]Probe
	logger *slog.Logger
}

// NewRegistry builds the validators for every provider with a probe.
func NewRegistry(params RegistryParams) service.CredentialValidator {
	httpClient := &http.Client{Timeout: params.Config.OAuth.HTTPTimeout}

	return NewRegistryFrom(params.Logger, map[string]Probe{
		entity.ProviderGoogle.String(): newOAuthProbe(params.Providers, entity.ProviderGoogle, googleMessages),
		entity.ProviderSlack.String():  newOAuthProbe(params.Providers, entity.ProviderSlack, slackMessages),
		entity.ProviderOpenAI.String(): NewOpenAIProbe(params.Config.OpenAI.BaseURL, httpClient),
	})
}

// NewRegistryFrom registers probes keyed by app slug.
func NewRegistryFrom(logger *slog.Logger, probes map[string]Probe) service.CredentialValidator {
	if logger == nil {
		logger = slog.Default()
	}

	return &registry{probes: probes, logger: logger}
}

func (r *registry) HasValidator(appSlug string) bool {
	_, ok := r.probes[appSlug]

	return ok
}

func (r *registry) Validate(ctx context.Context, appSlug string, secret entity.CredentialSecret) entity.ValidationResult {
	probe, ok := r.probes[appSlug]
	if !ok {
		return entity.ValidationResult{IsValid: false, Message: msgNoValidator}
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, r.logger)

	result, cause := probe(ctx, secret)
	if cause != nil {
		logger.Warn("Credential probe failed",
			slog.String("app", appSlug),
			slog.String("result", result.Message),
			slog.Any("error", cause),
		)

		return result
	}

	logger.Debug("Credential probed",
		slog.String("app", appSlug),
		slog.Bool("valid", result.IsValid),
	)

	return result
}

// Module provides the validation FX module.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewRegistry),
)
