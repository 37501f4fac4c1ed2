package sigfoxgql

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/sigfox-demo/sigfox-telemetry/graphiql"
	sigfoxrest "github.com/sigfox-demo/sigfox-telemetry/sigfox-rest"
)

// Webserver serves resolver at /graphql, with the playground when
// introspection is allowed. extra mounts further routes on the same router.
func Webserver(resolver Resolver, extra ...func(chi.Router)) error {
	config := resolver.Config()
	router, err := Router(resolver)
	if err != nil {
		return err
	}
	for _, mount := range extra {
		mount(router)
	}
	return Serve(router, config)
}

// Router builds the router Webserver serves.
func Router(resolver Resolver) (chi.Router, error) {
	config := resolver.Config()
	relay, err := GraphQLRelay(resolver)
	if err != nil {
		return nil, err
	}

	router := DefaultRouter(config)

	router.Post("/graphql", middleware.NoCache(relay).ServeHTTP)
	// Allow arbitrary path parameters, for better UX in the browser
	router.Post("/graphql/*", middleware.NoCache(relay).ServeHTTP)
	if AllowIntrospection() {
		router.Get("/graphql", graphiql.New(config.Service.Path("/graphql")))
	}
	return router, nil
}

// GraphQLRelay constructs an http relay that handles graphql requests.
func GraphQLRelay(resolver Resolver) (*relay.Handler, error) {
	opts := []graphql.SchemaOpt{
		graphql.MaxDepth(15),
		graphql.UseFieldResolvers(),
	}
	if !AllowIntrospection() {
		opts = append(opts, graphql.DisableIntrospection())
	}

	schema, err := graphql.ParseSchema(resolver.Schema(), resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse schema: %w", err)
	}

	return &relay.Handler{Schema: schema}, nil
}

// DefaultRouter constructs a chi router carrying the shared HTTP middleware.
func DefaultRouter(config *BaseConfig) chi.Router {
	return sigfoxrest.Middlewares(config.Service, config.Metrics, chi.NewRouter())
}

func Serve(router chi.Router, config *BaseConfig) error {
	return sigfoxrest.Serve(config.Service, router)
}
