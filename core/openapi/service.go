package openapi

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/core/schema"
)

// Service serves the generated document. The registry is immutable, so the
// document is built once and only the server URL varies per request.
type Service struct {
	registry *schema.Registry
	version  string
	logger   zerolog.Logger

	once sync.Once
	base *Spec
}

// ServiceConfig contains configuration for the OpenAPI service.
type ServiceConfig struct {
	Registry *schema.Registry
	Version  string
	Logger   zerolog.Logger
}

// NewService creates a new OpenAPI service.
func NewService(cfg ServiceConfig) *Service {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Service{
		registry: cfg.Registry,
		version:  version,
		logger:   cfg.Logger,
	}
}

// Spec returns the document with baseURL as its only server. An empty
// baseURL leaves the server list empty.
func (s *Service) Spec(baseURL string) *Spec {
	s.once.Do(func() {
		g := NewGenerator(s.registry)
		info := g.info
		info.Version = s.version
		g.SetInfo(info)
		s.base = g.Generate()
		s.logger.Debug().Int("paths", len(s.base.Paths)).Msg("openapi document generated")
	})
	return s.withServer(baseURL)
}

// JSON renders Spec(baseURL).
func (s *Service) JSON(baseURL string) ([]byte, error) {
	return s.Spec(baseURL).ToJSON()
}

// withServer copies the cached document so callers never share the server
// slice. Paths and components are shared read-only.
func (s *Service) withServer(baseURL string) *Spec {
	cloned := *s.base
	cloned.Servers = nil
	if baseURL != "" {
		cloned.Servers = []Server{{URL: baseURL, Description: "Current server"}}
	}
	return &cloned
}

// Validate checks that the document renders as JSON. It is used by the
// schema check command to catch definitions the generator cannot express.
func (s *Service) Validate() error {
	data, err := s.JSON("")
	if err != nil {
		return err
	}
	var probe map[string]any
	return json.Unmarshal(data, &probe)
}
