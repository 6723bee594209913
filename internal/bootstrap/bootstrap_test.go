package bootstrap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/bootstrap"
	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/domain"
)

func TestEnabledModes(t *testing.T) {
	modes, err := bootstrap.EnabledModes([]string{"metro", "bicing", "metro", "fgc"})
	require.NoError(t, err)
	assert.Equal(t, []domain.TransportType{
		domain.TransportTypeMetro,
		domain.TransportTypeBicing,
		domain.TransportTypeFGC,
	}, modes)

	_, err = bootstrap.EnabledModes([]string{"metro", "ferry"})
	assert.ErrorIs(t, err, domain.ErrUnknownTransportType)
}

func TestNewSource_EveryMode(t *testing.T) {
	sources := bootstrap.NewSources(config.ProvidersConfig{}, zap.NewNop())
	for _, mode := range []domain.TransportType{
		domain.TransportTypeMetro,
		domain.TransportTypeBus,
		domain.TransportTypeTram,
		domain.TransportTypeRodalies,
		domain.TransportTypeFGC,
		domain.TransportTypeBicing,
	} {
		src, err := sources.For(mode)
		require.NoError(t, err, mode)
		assert.Equal(t, mode, src.Mode())
	}

	_, err := sources.For("ferry")
	assert.Error(t, err)
}

func TestOpenCache_Memory(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Backend: bootstrap.CacheBackendMemory}}

	repo, closer, err := bootstrap.OpenCache(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.NoError(t, closer.Close())
}

func TestOpenCache_Unknown(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Backend: "memcached"}}

	_, _, err := bootstrap.OpenCache(cfg, zap.NewNop())
	assert.Error(t, err)
}
