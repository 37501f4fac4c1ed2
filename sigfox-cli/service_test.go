package sigfoxcli

import (
	"testing"

	"github.com/tj/assert"
)

func TestServicePath(t *testing.T) {
	assert.Equal(t, "/graphql", NewService("sigfox-api").Path("/graphql"))
	assert.Equal(t, "/readings/graphql", NewService("sigfox-api", WithSubpath("/readings/")).Path("/graphql"))
}

func TestServiceDimensions(t *testing.T) {
	s := NewService("sigfox-api")
	s.Version = "abc123"
	assert.Equal(t, map[DimensionName]string{
		ServiceNameDimension:    "sigfox-api",
		ServiceVersionDimension: "abc123",
	}, s.Dimensions())
}
