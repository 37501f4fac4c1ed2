package sigfoxcli

import (
	"path"
	"strings"
)

// Service identifies one of the telemetry apps in logs, metrics and routes.
type Service struct {
	Name    string
	Version string

	// Subpath is the API Gateway path an HTTP app is mounted under, if any.
	Subpath string
}

type ServiceOption func(*Service)

// WithSubpath mounts an HTTP app under /subpath.
func WithSubpath(subpath string) ServiceOption {
	return func(s *Service) {
		s.Subpath = strings.Trim(subpath, "/")
	}
}

func NewService(name string, opts ...ServiceOption) Service {
	s := Service{
		Name:    name,
		Version: CommitHash(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Dimensions are attached to every metric the service publishes.
func (s Service) Dimensions() map[DimensionName]string {
	return map[DimensionName]string{
		ServiceNameDimension:    s.Name,
		ServiceVersionDimension: s.Version,
	}
}

// Path returns p as seen by a client, under the subpath when there is one.
func (s Service) Path(p string) string {
	if s.Subpath == "" {
		return p
	}
	return path.Join("/", s.Subpath, p)
}
