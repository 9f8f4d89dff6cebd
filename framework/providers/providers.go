package providers

import (
	"io"
	"log/slog"
	"os"

	"github.com/km-arc/simple-structure/framework/config"
	"github.com/km-arc/simple-structure/framework/container"
	"github.com/km-arc/simple-structure/framework/ctxlog"
	gohttp "github.com/km-arc/simple-structure/framework/http"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the configuration on first use.
//
// Bound names:
//   - "config" → *config.Config
//   - "isDev"  → bool, the APP_DEBUG flag; error bodies carry messages
//     when it is set
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
	// Config, when set, is used instead of loading the environment.
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(c *container.Container) error {
	if p.Config != nil {
		c.SetParam("config", p.Config)
	} else {
		envFiles := p.EnvFiles
		err := c.SetObject("config", container.Factory(func(_ ...any) (any, error) {
			return config.Load(envFiles...), nil
		}), nil)
		if err != nil {
			return err
		}
	}
	return c.SetObject("isDev", container.Factory(func(args ...any) (any, error) {
		cfg, err := container.Arg[*config.Config](args, 0)
		if err != nil {
			return nil, err
		}
		return cfg.App.Debug, nil
	}), container.Refs("config"))
}

// Boot resolves "config" and "isDev" on the application container, so
// request containers forked from it share them.
func (p *ConfigServiceProvider) Boot(c *container.Container) error {
	_, err := c.Get("isDev")
	return err
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the application logger.
//
// Bound names:
//   - "logger" → *slog.Logger at LOG_LEVEL, formatted by LOG_FORMAT
type LogServiceProvider struct {
	container.BaseProvider
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// SetDefault makes the logger slog's default once booted.
	SetDefault bool
}

func (p *LogServiceProvider) Register(c *container.Container) error {
	w := p.Writer
	if w == nil {
		w = os.Stderr
	}
	return c.SetObject("logger", container.Factory(func(args ...any) (any, error) {
		cfg, err := container.Arg[*config.Config](args, 0)
		if err != nil {
			return nil, err
		}
		return ctxlog.New(w, cfg.Log.Level, cfg.Log.Format).With("app", cfg.App.Name), nil
	}), container.Refs("config"))
}

func (p *LogServiceProvider) Boot(c *container.Container) error {
	logger, err := container.Resolve[*slog.Logger](c, "logger")
	if err != nil {
		return err
	}
	if p.SetDefault {
		slog.SetDefault(logger)
	}
	return nil
}

// ── HTTPClientServiceProvider ─────────────────────────────────────────────────

// HTTPClientServiceProvider is deferred: the outbound client is set up the
// first time "httpClient" is resolved.
//
// Bound names:
//   - "httpClient" → *gohttp.Client with HTTP_CLIENT_TIMEOUT and
//     HTTP_CLIENT_BASE_URL
type HTTPClientServiceProvider struct {
	container.BaseProvider
}

func (p *HTTPClientServiceProvider) Register(c *container.Container) error {
	return c.SetObject("httpClient", container.Factory(func(args ...any) (any, error) {
		cfg, err := container.Arg[*config.Config](args, 0)
		if err != nil {
			return nil, err
		}
		return gohttp.NewClient(cfg.HTTP.ClientTimeout, cfg.HTTP.ClientBaseURL), nil
	}), container.Refs("config"))
}

func (p *HTTPClientServiceProvider) Provides() []string { return []string{"httpClient"} }
func (p *HTTPClientServiceProvider) IsDeferred() bool   { return true }

// Defaults returns the providers every application registers.
func Defaults(envFiles ...string) []container.ServiceProvider {
	return []container.ServiceProvider{
		&ConfigServiceProvider{EnvFiles: envFiles},
		&LogServiceProvider{},
		&HTTPClientServiceProvider{},
	}
}
