package providers_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/simple-structure/framework/config"
	"github.com/km-arc/simple-structure/framework/container"
	gohttp "github.com/km-arc/simple-structure/framework/http"
	"github.com/km-arc/simple-structure/framework/providers"
)

func testConfig(debug bool) *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "test", Env: "testing", Debug: debug},
		Log:  config.LogConfig{Level: "debug", Format: "json"},
		HTTP: config.HTTPConfig{ClientTimeout: time.Second},
	}
}

func TestConfigServiceProvider(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	cfg := testConfig(true)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))

	assert.Same(t, cfg, container.MustGet[*config.Config](c, "config"))
	assert.True(t, container.MustGet[bool](c, "isDev"))
}

func TestConfigServiceProvider_LoadsLazily(t *testing.T) {
	t.Setenv("APP_DEBUG", "false")
	c := container.New()
	require.NoError(t, container.NewProviderRegistry(c).Register(&providers.ConfigServiceProvider{}))

	assert.False(t, c.Resolved("config"))
	assert.False(t, container.MustGet[bool](c, "isDev"))
	assert.True(t, c.Resolved("config"))
}

func TestConfigServiceProvider_BootResolves(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: testConfig(true)}))
	require.NoError(t, reg.Boot())

	assert.True(t, c.Resolved("isDev"))
	fork := c.Fork()
	assert.Same(t, container.MustGet[*config.Config](c, "config"), container.MustGet[*config.Config](fork, "config"))
}

func TestLogServiceProvider(t *testing.T) {
	var buf bytes.Buffer
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: testConfig(false)}))
	require.NoError(t, reg.Register(&providers.LogServiceProvider{Writer: &buf}))
	require.NoError(t, reg.Boot())

	logger := container.MustGet[*slog.Logger](c, "logger")
	logger.Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"app":"test"`)
}

func TestHTTPClientServiceProvider_Deferred(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: testConfig(false)}))
	require.NoError(t, reg.Register(&providers.HTTPClientServiceProvider{}))
	require.NoError(t, reg.Boot())

	assert.Len(t, reg.Providers(), 1, "deferred providers are not eager")
	client := container.MustGet[*gohttp.Client](c, "httpClient")
	assert.Same(t, client, container.MustGet[*gohttp.Client](c, "httpClient"))
}

func TestDefaults(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	for _, p := range providers.Defaults("testdata/none.env") {
		require.NoError(t, reg.Register(p))
	}
	require.NoError(t, reg.Boot())

	for _, name := range []string{"config", "isDev", "logger", "httpClient"} {
		assert.True(t, c.Has(name), name)
	}
}
