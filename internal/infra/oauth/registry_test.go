package oauth

import (
	"testing"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	reg := NewRegistry(RegistryParams{Config: &config.Config{}})

	for _, p := range entity.OAuthProviders {
		got, err := reg.Get(p)
		require.NoError(t, err)
		assert.Equal(t, p, got.Provider())
	}

	_, err := reg.Get(entity.ProviderOpenAI)
	assert.True(t, errors.Is(err, domainerrors.ErrUnknownProvider))

	_, err = reg.Get(entity.Provider("dropbox"))
	assert.True(t, errors.Is(err, domainerrors.ErrUnknownProvider))
}

func TestRegistry_UnconfiguredProviderFailsOnUse(t *testing.T) {
	reg := NewRegistry(RegistryParams{Config: &config.Config{}})

	p, err := reg.Get(entity.ProviderGoogle)
	require.NoError(t, err)

	_, err = p.AuthorizationURL("state", nil)
	assert.True(t, errors.Is(err, domainerrors.ErrProviderNotConfigured))
}
