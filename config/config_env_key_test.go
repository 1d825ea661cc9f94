package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"encryption": map[string]any{
			"key": "",
		},
		"oauth": map[string]any{
			"google": map[string]any{
				"clientId":     "",
				"clientSecret": "",
				"callbackUrl":  "",
			},
		},
		"n8n": map[string]any{
			"apiUrl": "",
			"apiKey": "",
		},
		"secretKey": map[string]any{
			"access": "",
		},
		"frontendUrl": "",
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "ENCRYPTION_KEY", want: "encryption.key"},
		{envKey: "OAUTH_GOOGLE_CLIENTID", want: "oauth.google.clientId"},
		{envKey: "OAUTH_GOOGLE_CALLBACKURL", want: "oauth.google.callbackUrl"},
		{envKey: "N8N_APIKEY", want: "n8n.apiKey"},
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "FRONTENDURL", want: "frontendUrl"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, 10*time.Second, cfg.OAuth.HTTPTimeout)
	assert.Equal(t, 30*time.Second, cfg.N8N.Timeout)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, "@every 5m", cfg.TokenRefresh.Spec)

	cfg = &Config{FrontendURL: "https://app.example.com"}
	cfg.N8N.Timeout = time.Second
	applyDefaults(cfg)

	assert.Equal(t, "https://app.example.com", cfg.FrontendURL)
	assert.Equal(t, time.Second, cfg.N8N.Timeout)
}

func TestOAuthClientConfig_Enabled(t *testing.T) {
	assert.False(t, OAuthClientConfig{}.Enabled())
	assert.False(t, OAuthClientConfig{ClientID: "id"}.Enabled())
	assert.True(t, OAuthClientConfig{ClientID: "id", ClientSecret: "secret"}.Enabled())
}
