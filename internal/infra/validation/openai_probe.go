package validation

import (
	"context"
	"net/http"

	"conduit/internal/domain/entity"
	"conduit/internal/errors"

	"github.com/sashabaranov/go-openai"
)

const (
	msgOpenAIValid   = "OpenAI API key is valid"
	msgOpenAIInvalid = "Invalid OpenAI API key"
	msgOpenAIFailed  = "Failed to validate OpenAI API key"
)

// NewOpenAIProbe validates an API key by listing the models it can see.
// An empty baseURL selects the public OpenAI endpoint.
func NewOpenAIProbe(baseURL string, httpClient *http.Client) Probe {
	return func(ctx context.Context, secret entity.CredentialSecret) (entity.ValidationResult, error) {
		key, ok := secret.(entity.APIKeySecret)
		if !ok || key.Key == "" {
			return entity.ValidationResult{IsValid: false, Message: msgOpenAIInvalid}, nil
		}

		clientConfig := openai.DefaultConfig(key.Key)
		if baseURL != "" {
			clientConfig.BaseURL = baseURL
		}
		if httpClient != nil {
			clientConfig.HTTPClient = httpClient
		}

		models, err := openai.NewClientWithConfig(clientConfig).ListModels(ctx)
		if err != nil {
			if unauthorized(err) {
				return entity.ValidationResult{IsValid: false, Message: msgOpenAIInvalid}, err
			}

			return entity.ValidationResult{IsValid: false, Message: msgOpenAIFailed}, err
		}

		return entity.ValidationResult{
			IsValid: true,
			Message: msgOpenAIValid,
			Details: map[string]any{"modelCount": len(models.Models)},
		}, nil
	}
}

func unauthorized(err error) bool {
	if apiErr, ok := errors.AsType[*openai.APIError](err); ok {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized
	}
	if reqErr, ok := errors.AsType[*openai.RequestError](err); ok {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized
	}

	return false
}
