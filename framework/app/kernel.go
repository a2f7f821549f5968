package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/loomworks/loom/framework/config"
	"github.com/loomworks/loom/framework/container"
	loomhttp "github.com/loomworks/loom/framework/http"
	"github.com/loomworks/loom/framework/logging"
	"github.com/loomworks/loom/framework/providers"
)

// Application is the top-level kernel. It embeds the container so user
// code can call app.Register(), app.Get(), app.Refresh() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
	Settings  *config.Settings
	Log       *zap.Logger
}

// New loads settings, builds the logger, and bootstraps a container with
// the framework core providers registered.
//
//	application := app.New()
//	application.RegisterProvider(&RepoProvider{})
//	if err := application.Boot(); err != nil { ... }
func New(envFiles ...string) (*Application, error) {
	settings := config.Load(envFiles...)
	logger := logging.MustNew(settings.Log)

	c := container.New(
		container.WithLogger(logger),
		container.WithProfiles(settings.Profiles...),
	)
	registry := container.NewProviderRegistry(c)

	a := &Application{
		Container: c,
		Providers: registry,
		Settings:  settings,
		Log:       logger,
	}

	if err := registry.Register(&providers.ConfigServiceProvider{Settings: settings}); err != nil {
		return nil, err
	}
	if err := registry.Register(&providers.LoggerServiceProvider{Logger: logger}); err != nil {
		return nil, err
	}
	return a, nil
}

// RegisterProvider adds a ServiceProvider to the application.
func (a *Application) RegisterProvider(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the provider Boot phase, refreshing the container first.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Run boots the application (if needed) and serves handler on the
// configured port, with the request-scope boundary wrapped around every
// request.
func (a *Application) Run(handler http.Handler) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}

	addr := ":" + a.Settings.App.Port
	a.Log.Info("application started",
		zap.String("name", a.Settings.App.Name),
		zap.String("addr", addr),
		zap.String("env", a.Settings.App.Env))

	wrapped := loomhttp.RequestScoped(a.Container)(handler)
	if err := http.ListenAndServe(addr, wrapped); err != nil {
		return fmt.Errorf("app: server: %w", err)
	}
	return nil
}

// Close shuts the container down and flushes the logger.
func (a *Application) Close() {
	a.Container.Shutdown()
	_ = a.Log.Sync()
}

// Environment helpers, driven by LOOM_ENV.
func (a *Application) Environment() string { return a.Settings.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Settings.App.Debug }
