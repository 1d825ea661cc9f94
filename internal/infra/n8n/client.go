// Package n8n talks to the n8n public REST API to mirror credentials.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"conduit/config"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"

	"go.uber.org/fx"
)

const (
	apiKeyHeader = "X-N8N-API-KEY"

	msgAuthFailed  = "n8n authentication failed. Check API key."
	msgNotFound    = "n8n resource not found."
	msgServerError = "n8n server error. Please try again."
)

// ClientParams holds dependencies for the n8n client, injected by Fx.
type ClientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type createCredentialRequest struct {
	Name string         `json:"name"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type createCredentialResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewClient creates the workflow engine client from configuration.
func NewClient(params ClientParams) service.WorkflowEngine {
	cfg := params.Config.N8N

	return New(cfg.APIURL, cfg.APIKey, &http.Client{Timeout: cfg.Timeout}, params.Logger)
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:5678/api/v1.
func New(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) service.WorkflowEngine {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *client) CreateCredential(ctx context.Context, cred service.RemoteCredential) (string, error) {
	body, err := json.Marshal(createCredentialRequest{Name: cred.Name, Type: cred.Type, Data: cred.Data})
	if err != nil {
		return "", errors.WithStack(err)
	}

	var created createCredentialResponse
	if err := c.do(ctx, http.MethodPost, "/credentials", body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", domainerrors.ErrEngineUnavailable.WrapMessage("n8n returned no credential id")
	}

	c.logger.Info("n8n credential created",
		slog.String("n8n_credential_id", created.ID),
		slog.String("type", cred.Type),
	)

	return created.ID, nil
}

func (c *client) DeleteCredential(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/credentials/"+id, nil, nil); err != nil {
		return err
	}

	c.logger.Info("n8n credential deleted", slog.String("n8n_credential_id", id))

	return nil
}

// HealthCheck lists one workflow to prove the URL and API key work.
func (c *client) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/workflows?limit=1", nil, nil)
}

func (c *client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(domainerrors.ErrEngineUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(domainerrors.ErrEngineUnavailable, "decode n8n response: "+err.Error())
	}

	return nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return domainerrors.ErrEngineUnavailable.WrapMessage(msgAuthFailed)
	case code == http.StatusNotFound:
		return domainerrors.ErrEngineUnavailable.WrapMessage(msgNotFound)
	case code >= http.StatusInternalServerError:
		return domainerrors.ErrEngineUnavailable.WrapMessage(msgServerError)
	default:
		return errors.Wrapf(domainerrors.ErrEngineUnavailable, "n8n returned status %d", code)
	}
}

// Module provides the n8n FX module.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewClient),
)
