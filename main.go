package main

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/loomworks/loom/framework/app"
	"github.com/loomworks/loom/framework/container"
	"github.com/loomworks/loom/framework/diagnostics"
)

// Demo wiring: a singleton repository, a singleton service depending on it,
// and a request-scoped unit of work rebuilt for every HTTP request.

type Repo struct{ hits atomic.Int64 }

func (r *Repo) Greeting() string {
	r.hits.Add(1)
	return "hello from the repo"
}

type Service struct{ Repo *Repo }

type UnitOfWork struct{ seq int64 }

var unitSeq atomic.Int64

func main() {
	application, err := app.New()
	if err != nil {
		panic(err)
	}
	defer application.Close()

	if err := application.RegisterProvider(&demoProvider{}); err != nil {
		panic(err)
	}
	if err := application.Boot(); err != nil {
		panic(fmt.Sprintf("boot failed:\n%s", diagnostics.Describe(err)))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		svc, err := container.Resolve[*Service](application.Container, "service")
		if err != nil {
			http.Error(w, diagnostics.Describe(err), http.StatusInternalServerError)
			return
		}
		fmt.Fprintln(w, svc.Repo.Greeting())
	})

	// Two resolutions inside one request share the unit; a new request
	// gets a fresh one.
	r.Get("/unit", func(w http.ResponseWriter, _ *http.Request) {
		first, err := container.Resolve[*UnitOfWork](application.Container, "unit")
		if err != nil {
			http.Error(w, diagnostics.Describe(err), http.StatusInternalServerError)
			return
		}
		second, _ := container.Resolve[*UnitOfWork](application.Container, "unit")
		fmt.Fprintf(w, "unit %d (shared within request: %t)\n", first.seq, first == second)
	})

	if err := application.Run(r); err != nil {
		panic(err)
	}
}

type demoProvider struct{ container.BaseProvider }

func (p *demoProvider) Register(c *container.Container) error {
	repo, err := container.NewDefinition("repo",
		func(_ *container.Container) (any, error) { return &Repo{}, nil },
		container.WithSource("main/demo"),
		container.Eager(),
	)
	if err != nil {
		return err
	}
	if err := c.Register(repo); err != nil {
		return err
	}

	service, err := container.NewDefinition("service",
		func(c *container.Container) (any, error) {
			r, err := container.Resolve[*Repo](c, "repo")
			if err != nil {
				return nil, err
			}
			return &Service{Repo: r}, nil
		},
		container.WithSource("main/demo"),
		container.WithDependencies("repo"),
	)
	if err != nil {
		return err
	}
	if err := c.Register(service); err != nil {
		return err
	}

	unit, err := container.NewDefinition("unit",
		func(_ *container.Container) (any, error) {
			return &UnitOfWork{seq: unitSeq.Add(1)}, nil
		},
		container.WithSource("main/demo"),
		container.WithScope(container.ScopeRequest),
	)
	if err != nil {
		return err
	}
	return c.Register(unit)
}
