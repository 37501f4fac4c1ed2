// Package graphiql serves the GraphiQL playground for a graphql endpoint.
package graphiql

import (
	"bytes"
	_ "embed"
	"net/http"
	"text/template"

	"github.com/rs/zerolog"
)

//go:embed graphiql.html
var graphiql string

var templ = template.Must(template.New("graphiql").Parse(graphiql))

// New serves the playground, pointed at endpoint, the path of the graphql api.
func New(endpoint string) http.HandlerFunc {
	var variables struct {
		Route string
	}
	variables.Route = endpoint

	return func(w http.ResponseWriter, req *http.Request) {
		var buffer bytes.Buffer
		if err := templ.Execute(&buffer, variables); err != nil {
			zerolog.Ctx(req.Context()).Warn().Err(err).Msg("unable to render graphiql")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write(buffer.Bytes())
	}
}
