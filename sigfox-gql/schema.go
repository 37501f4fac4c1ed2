package sigfoxgql

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.gql
var schemaFiles embed.FS

// SchemaPart names one of the embedded .gql files making up the API.
type SchemaPart string

const (
	ReadingsPart SchemaPart = "readings.gql"
	// CommonPart declares the custom scalars.
	CommonPart SchemaPart = "common.gql"
)

// MergeSchemas concatenates parts in order, each under a comment naming its
// file so parse errors can be traced back.
func MergeSchemas(parts ...SchemaPart) (string, error) {
	var sb strings.Builder
	for i, part := range parts {
		data, err := schemaFiles.ReadFile(string(part))
		if err != nil {
			return "", fmt.Errorf("unknown schema part %v: %w", part, err)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "# %v\n\n", part)
		sb.Write(data)
	}
	return sb.String(), nil
}

func MustMergeSchemas(parts ...SchemaPart) string {
	schema, err := MergeSchemas(parts...)
	if err != nil {
		panic(err)
	}
	return schema
}
