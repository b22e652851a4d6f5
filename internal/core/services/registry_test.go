package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

func TestNewConnectorRegistry(t *testing.T) {
	registry := NewConnectorRegistry()

	require.NotNil(t, registry)

	types := registry.Types()
	assert.Len(t, types, 2)

	ids := make(map[string]bool)
	for _, ct := range types {
		ids[ct.ID] = true
	}
	assert.True(t, ids[domain.SourceTypeUpload])
	assert.True(t, ids[domain.SourceTypeDrive])
}

func TestConnectorRegistry_Get_Upload(t *testing.T) {
	registry := NewConnectorRegistry()

	ct, ok := registry.Get(domain.SourceTypeUpload)

	require.True(t, ok)
	require.NotNil(t, ct)
	assert.Equal(t, domain.SourceTypeUpload, ct.ID)
	assert.False(t, ct.RequiresAuth)

	var pathKey *domain.ConfigKey
	for i := range ct.ConfigKeys {
		if ct.ConfigKeys[i].Key == "path" {
			pathKey = &ct.ConfigKeys[i]
		}
	}
	require.NotNil(t, pathKey)
	assert.True(t, pathKey.Required)
}

func TestConnectorRegistry_Get_Drive(t *testing.T) {
	registry := NewConnectorRegistry()

	ct, ok := registry.Get(domain.SourceTypeDrive)

	require.True(t, ok)
	assert.True(t, ct.RequiresAuth)
}

func TestConnectorRegistry_Get_Unknown(t *testing.T) {
	registry := NewConnectorRegistry()

	ct, ok := registry.Get("sharepoint")

	assert.False(t, ok)
	assert.Nil(t, ct)
}

func TestConnectorRegistry_ValidateConfig_Valid(t *testing.T) {
	registry := NewConnectorRegistry()

	err := registry.ValidateConfig(domain.SourceTypeUpload, map[string]string{
		"path": "/srv/docs",
	})

	assert.NoError(t, err)
}

func TestConnectorRegistry_ValidateConfig_MissingRequired(t *testing.T) {
	registry := NewConnectorRegistry()

	err := registry.ValidateConfig(domain.SourceTypeUpload, map[string]string{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "path")
}

func TestConnectorRegistry_ValidateConfig_EmptyValueCountsAsMissing(t *testing.T) {
	registry := NewConnectorRegistry()

	err := registry.ValidateConfig(domain.SourceTypeUpload, map[string]string{
		"path": "",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConnectorRegistry_ValidateConfig_UnknownType(t *testing.T) {
	registry := NewConnectorRegistry()

	err := registry.ValidateConfig("sharepoint", nil)

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestConnectorRegistry_ValidateConfig_DriveRequiresToken(t *testing.T) {
	registry := NewConnectorRegistry()

	err := registry.ValidateConfig(domain.SourceTypeDrive, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "token")
}

func TestConnectorRegistry_ValidateConfig_DriveWithToken(t *testing.T) {
	registry := NewConnectorRegistry()

	// Drive syncs the whole corpus when no folder is configured, so a
	// token alone is a complete configuration.
	err := registry.ValidateConfig(domain.SourceTypeDrive, map[string]string{
		"token": `{"access_token":"ya29.x"}`,
	})

	assert.NoError(t, err)
}
