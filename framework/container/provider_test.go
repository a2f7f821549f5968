package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/framework/container"
)

type recordingProvider struct {
	container.BaseProvider
	name   string
	events *[]string
	boot   func(app *container.Container) error
}

func (p *recordingProvider) Register(app *container.Container) error {
	*p.events = append(*p.events, p.name+":register")
	def, err := container.NewDefinition(p.name, func(_ *container.Container) (any, error) {
		return &repo{}, nil
	}, container.WithSource("providers/"+p.name))
	if err != nil {
		return err
	}
	return app.Register(def)
}

func (p *recordingProvider) Boot(app *container.Container) error {
	*p.events = append(*p.events, p.name+":boot")
	if p.boot != nil {
		return p.boot(app)
	}
	return nil
}

func TestProviderRegistry_TwoPhaseLifecycle(t *testing.T) {
	app := container.New()
	registry := container.NewProviderRegistry(app)

	var events []string
	first := &recordingProvider{name: "first", events: &events}
	second := &recordingProvider{name: "second", events: &events, boot: func(app *container.Container) error {
		// By boot time every provider has registered, so cross-provider
		// resolution works.
		_, err := app.Get("first")
		return err
	}}

	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))
	assert.False(t, registry.Booted())
	assert.False(t, app.IsFrozen(), "registration must not freeze the registry")

	require.NoError(t, registry.Boot())
	assert.True(t, registry.Booted())
	assert.True(t, app.IsFrozen(), "boot must refresh the container first")
	assert.True(t, app.IsRefreshed())

	assert.Equal(t, []string{
		"first:register",
		"second:register",
		"first:boot",
		"second:boot",
	}, events)
}

func TestProviderRegistry_RegisterSameProviderTwiceIsNoOp(t *testing.T) {
	app := container.New()
	registry := container.NewProviderRegistry(app)

	var events []string
	p := &recordingProvider{name: "only", events: &events}

	require.NoError(t, registry.Register(p))
	require.NoError(t, registry.Register(p))

	assert.Equal(t, []string{"only:register"}, events)
	assert.Len(t, registry.Providers(), 1)
}

func TestProviderRegistry_RegisterAfterBootFails(t *testing.T) {
	app := container.New()
	registry := container.NewProviderRegistry(app)
	require.NoError(t, registry.Boot())

	var events []string
	err := registry.Register(&recordingProvider{name: "late", events: &events})
	require.Error(t, err)
	assert.Empty(t, events, "a rejected provider must not reach Register()")
}

func TestProviderRegistry_BootIsIdempotent(t *testing.T) {
	app := container.New()
	registry := container.NewProviderRegistry(app)

	var events []string
	require.NoError(t, registry.Register(&recordingProvider{name: "svc", events: &events}))

	require.NoError(t, registry.Boot())
	require.NoError(t, registry.Boot())

	assert.Equal(t, []string{"svc:register", "svc:boot"}, events)
}

func TestProviderRegistry_BootErrorPropagates(t *testing.T) {
	app := container.New()
	registry := container.NewProviderRegistry(app)

	var events []string
	boom := errors.New("boot failed")
	require.NoError(t, registry.Register(&recordingProvider{
		name:   "broken",
		events: &events,
		boot:   func(_ *container.Container) error { return boom },
	}))

	err := registry.Boot()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, registry.Booted())
}
