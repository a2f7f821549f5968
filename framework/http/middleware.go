// Package http adapts the container's request boundary to net/http
// handlers. Routing and controllers stay outside the container; this
// package only pairs the boundary around each request.
package http

import (
	"net/http"

	"github.com/loomworks/loom/framework/container"
)

// RequestScoped opens a request context before the wrapped handler runs
// and guarantees it is discarded afterwards, failure or not. Handlers run
// on the request's own goroutine, so every resolution they make sees the
// same request-scope cache and nothing from concurrent requests.
//
//	r := chi.NewRouter()
//	r.Use(loomhttp.RequestScoped(c))
func RequestScoped(c *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := c.EnterRequestContext(); err == nil {
				defer c.ExitRequestContext()
			}
			next.ServeHTTP(w, r)
		})
	}
}
