package container

import "os"

// Condition helpers. Each returns a ready-made option with a stable
// condition name, so diagnostics can report which predicate filtered a
// definition out.

// WhenProfile gates a definition on an active container profile.
//
//	def, _ := container.NewDefinition("mailer", newSMTPMailer,
//	    container.WhenProfile("production"))
func WhenProfile(profile string) Option {
	return WithCondition("profile:"+profile, func(c *Container) bool {
		return c.HasProfile(profile)
	})
}

// WhenEnv gates a definition on an environment variable value.
func WhenEnv(key, want string) Option {
	return WithCondition("env:"+key+"="+want, func(_ *Container) bool {
		return os.Getenv(key) == want
	})
}

// Unless negates a predicate under the given condition name.
func Unless(name string, cond Condition) Option {
	return WithCondition("unless:"+name, func(c *Container) bool {
		return !cond(c)
	})
}
