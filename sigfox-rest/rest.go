// Package sigfoxrest serves the readings over HTTP, from the console or
// behind API Gateway, and holds the middleware every HTTP app shares.
package sigfoxrest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

// Middlewares installs the shared middleware on router. It must run before
// any route is registered.
func Middlewares(service sigfoxcli.Service, metrics sigfoxcli.Metrics, router chi.Router) chi.Router {
	router.Use(
		middleware.RequestID,
		withCORS(),
		withIsolationHeaders(service.Path("/graphql")),
		withLogger(sigfoxcli.Logger(service)),
		withResponseTime(metrics),
		middleware.Recoverer,
	)
	return router
}

// Serve listens on the configured port in console mode, otherwise runs as a
// Lambda function behind API Gateway.
func Serve(service sigfoxcli.Service, router chi.Router) error {
	if !sigfoxcli.CommonOpts.Console {
		lambda.Start(apigateway.Wrap(router, sigfoxcli.CommonOpts.Env, service.Subpath))
		return nil
	}

	var handler http.Handler = router
	if service.Subpath != "" {
		mounted := chi.NewRouter()
		mounted.Mount(service.Path("/"), router)
		handler = mounted
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%v", sigfoxcli.CommonOpts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger := sigfoxcli.Logger(service)
	logger.Info().
		Int("port", sigfoxcli.CommonOpts.Port).
		Str("subpath", service.Subpath).
		Msg("starting http server")
	return server.ListenAndServe()
}

// CacheControl lets clients reuse a response for maxAge seconds. Readings
// only change when the table is reprovisioned.
func CacheControl(handler http.HandlerFunc, maxAge int) http.HandlerFunc {
	value := fmt.Sprintf("max-age=%v", maxAge)
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", value)
		handler.ServeHTTP(w, req)
	}
}

// withIsolationHeaders lets dashboards embed the API from another origin. The
// GraphiQL page loads its scripts from a CDN and is left alone.
func withIsolationHeaders(playground string) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodGet || req.URL.Path != playground {
				header := w.Header()
				header.Set("Cross-Origin-Embedder-Policy", "require-corp")
				header.Set("Cross-Origin-Opener-Policy", "same-origin")
				header.Set("Cross-Origin-Resource-Policy", "cross-origin")
			}
			handler.ServeHTTP(w, req)
		})
	}
}

// the API is read only; POST is there for GraphQL queries
func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Cache-Control"},
		MaxAge:         300,
	})
}

// withLogger puts a request scoped logger in the context and writes one
// access line per request.
func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			logger := logger.With().Str("requestId", middleware.GetReqID(req.Context())).Logger()
			req = req.WithContext(logger.WithContext(req.Context()))

			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			handler.ServeHTTP(ww, req)

			logger.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

// withResponseTime records ResponseTime per route pattern, so all devices
// share one /readings/{deviceId} series.
func withResponseTime(metrics sigfoxcli.Metrics) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			handler.ServeHTTP(w, req)

			operation := req.URL.Path
			if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
				operation = rctx.RoutePattern()
			}
			metrics.Timing(req.Context(), sigfoxcli.ResponseTimeMetric, start,
				map[sigfoxcli.DimensionName]string{sigfoxcli.OperationNameDimension: req.Method + " " + operation})
		})
	}
}
