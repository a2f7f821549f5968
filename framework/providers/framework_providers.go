// Package providers holds the framework's built-in service providers.
package providers

import (
	"go.uber.org/zap"

	"github.com/loomworks/loom/framework/config"
	"github.com/loomworks/loom/framework/container"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider exposes the bootstrap settings under the "config"
// definition so factories can depend on them by name.
//
// Registered definitions:
//   - "config" → *config.Settings (singleton)
type ConfigServiceProvider struct {
	container.BaseProvider
	Settings *config.Settings
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	settings := p.Settings
	def, err := container.NewDefinition("config",
		func(_ *container.Container) (any, error) {
			if settings == nil {
				return config.Load(), nil
			}
			return settings, nil
		},
		container.WithSource("framework/providers/config"),
	)
	if err != nil {
		return err
	}
	return app.Register(def)
}

// ── LoggerServiceProvider ─────────────────────────────────────────────────────

// LoggerServiceProvider exposes the application logger under the "logger"
// definition. It is eager so the logger exists before any lazy resolution.
//
// Registered definitions:
//   - "logger" → *zap.Logger (singleton, eager, depends on "config")
type LoggerServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggerServiceProvider) Register(app *container.Container) error {
	logger := p.Logger
	def, err := container.NewDefinition("logger",
		func(c *container.Container) (any, error) {
			if logger != nil {
				return logger, nil
			}
			return c.Logger(), nil
		},
		container.WithSource("framework/providers/logger"),
		container.WithDependencies("config"),
		container.Eager(),
	)
	if err != nil {
		return err
	}
	return app.Register(def)
}
