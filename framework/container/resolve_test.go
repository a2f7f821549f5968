package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom/framework/container"
	"github.com/loomworks/loom/framework/diagnostics"
)

// ── Missing dependency ────────────────────────────────────────────────────────

func TestGet_MissingName(t *testing.T) {
	c := container.New()

	_, err := c.Get("ghost")

	var notFound *diagnostics.DependencyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.DependencyName)
	assert.Empty(t, notFound.ResolutionPath)
}

func TestTryGet_MissingNameIsNilNil(t *testing.T) {
	c := container.New()

	v, err := c.TryGet("ghost")
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestGet_MissingNameReportsCandidates(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "user-repo", valueFactory("a"),
		container.WithSource("providers/users"))))
	require.NoError(t, c.Register(mustDef(t, "mailer", valueFactory("b"),
		container.WithSource("providers/mail"),
		container.WithTag("alias", "mail"))))

	_, err := c.Get("repo")
	var notFound *diagnostics.DependencyNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Len(t, notFound.CandidateSources, 1)
	assert.Equal(t, "providers/users", notFound.CandidateSources[0].Source)

	_, err = c.Get("mail")
	require.ErrorAs(t, err, &notFound)
	require.Len(t, notFound.CandidateSources, 1)
	assert.Equal(t, "providers/mail", notFound.CandidateSources[0].Source)
}

// ── Conditions ────────────────────────────────────────────────────────────────

func TestGet_ConditionNotMet(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "gated", valueFactory("v"),
		container.WithCondition("feature-flag", func(_ *container.Container) bool { return false }))))

	_, err := c.Get("gated")

	var unmet *diagnostics.ConditionNotMetError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, "gated", unmet.DependencyName)
	assert.Equal(t, []string{"feature-flag"}, unmet.FailedConditions)
}

func TestTryGet_ConditionNotMetIsNilNil(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "gated", valueFactory("v"),
		container.Optional(),
		container.WithCondition("feature-flag", func(_ *container.Container) bool { return false }))))

	v, err := c.TryGet("gated")
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestConditionHelpers(t *testing.T) {
	c := container.New(container.WithProfiles("production"))

	prod := mustDef(t, "prod-only", valueFactory("v"), container.WhenProfile("production"))
	ok, _ := prod.CheckConditions(c)
	assert.True(t, ok)

	dev := mustDef(t, "dev-only", valueFactory("v"), container.WhenProfile("dev"))
	ok, failed := dev.CheckConditions(c)
	assert.False(t, ok)
	assert.Equal(t, "profile:dev", failed)

	t.Setenv("LOOM_TEST_FLAVOR", "vanilla")
	flavored := mustDef(t, "flavored", valueFactory("v"), container.WhenEnv("LOOM_TEST_FLAVOR", "vanilla"))
	ok, _ = flavored.CheckConditions(c)
	assert.True(t, ok)

	inverted := mustDef(t, "inverted", valueFactory("v"),
		container.Unless("production", func(c *container.Container) bool { return c.HasProfile("production") }))
	ok, failed = inverted.CheckConditions(c)
	assert.False(t, ok)
	assert.Equal(t, "unless:production", failed)
}

// ── Factory-call cycles ───────────────────────────────────────────────────────

func TestGet_FactoryCycleReportsOrderedChain(t *testing.T) {
	c := container.New()
	chained := func(next string) container.Factory {
		return func(c *container.Container) (any, error) {
			return c.Get(next)
		}
	}
	require.NoError(t, c.Register(mustDef(t, "A", chained("B"))))
	require.NoError(t, c.Register(mustDef(t, "B", chained("C"))))
	require.NoError(t, c.Register(mustDef(t, "C", chained("A"))))

	_, err := c.Get("A")

	var cycle *diagnostics.CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"A", "B", "C", "A"}, cycle.DependencyChain)
}

func TestTryGet_CycleStillPropagates(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "self", func(c *container.Container) (any, error) {
		return c.Get("self")
	})))

	_, err := c.TryGet("self")

	var cycle *diagnostics.CircularDependencyError
	assert.ErrorAs(t, err, &cycle)
}

func TestGet_ChainStateClearedBetweenCalls(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "self", func(c *container.Container) (any, error) {
		return c.Get("self")
	}, container.WithScope(container.ScopePrototype))))
	require.NoError(t, c.Register(mustDef(t, "plain", valueFactory("v"),
		container.WithScope(container.ScopePrototype))))

	_, err := c.Get("self")
	require.Error(t, err)

	// A failed chain must fully unwind; later resolutions see a clean stack.
	v, err := c.Get("plain")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

// ── Creation failures ─────────────────────────────────────────────────────────

func TestGet_FactoryErrorWrapsCause(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")
	require.NoError(t, c.Register(mustDef(t, "broken", func(_ *container.Container) (any, error) {
		return nil, boom
	})))

	_, err := c.Get("broken")

	var creation *diagnostics.CreationError
	require.ErrorAs(t, err, &creation)
	assert.Equal(t, "broken", creation.DependencyName)
	assert.ErrorIs(t, err, boom, "original cause must survive unwrapping")
}

func TestGet_FactoryPanicWrapsIntoCreationError(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "explosive", func(_ *container.Container) (any, error) {
		panic("kaboom")
	})))

	_, err := c.Get("explosive")

	var creation *diagnostics.CreationError
	require.ErrorAs(t, err, &creation)
	assert.Contains(t, creation.Cause.Error(), "kaboom")
}

func TestGet_NilFactoryResultIsCreationError(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "nil-iface", func(_ *container.Container) (any, error) {
		return nil, nil
	})))
	require.NoError(t, c.Register(mustDef(t, "nil-ptr", func(_ *container.Container) (any, error) {
		var r *repo
		return r, nil
	})))

	for _, name := range []string{"nil-iface", "nil-ptr"} {
		_, err := c.Get(name)
		var creation *diagnostics.CreationError
		require.ErrorAs(t, err, &creation, name)
		assert.ErrorIs(t, err, container.ErrNilInstance, name)
	}
}

func TestTryGet_CreationFailureStillPropagates(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "broken", func(_ *container.Container) (any, error) {
		return nil, errors.New("boom")
	})))

	_, err := c.TryGet("broken")

	var creation *diagnostics.CreationError
	assert.ErrorAs(t, err, &creation)
}

// ── Nested resolution diagnostics ─────────────────────────────────────────────

func TestGet_NestedMissingDependencyCarriesPathAndInjectionPoint(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(mustDef(t, "outer", func(c *container.Container) (any, error) {
		return c.Get("inner-ghost")
	})))

	_, err := c.Get("outer")

	// The nested not-found failure keeps its own type all the way up.
	var notFound *diagnostics.DependencyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "inner-ghost", notFound.DependencyName)
	assert.Equal(t, []string{"outer"}, notFound.ResolutionPath)
	assert.Equal(t, `factory of "outer"`, notFound.InjectionPoint)
}
