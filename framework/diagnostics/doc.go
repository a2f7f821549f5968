// Package diagnostics defines the error taxonomy raised by the container
// and the pure rendering functions that turn those errors into stable,
// comparable text.
//
// Every resolution error carries a structured Report (dependency name,
// injection point, resolution path, candidate sources, cause). Renderers
// are pure string producers with no I/O, intended for logging and
// error-reporting collaborators:
//
//	v, err := c.Get("mailer")
//	if err != nil {
//	    log.Error(diagnostics.Describe(err))
//	}
package diagnostics
