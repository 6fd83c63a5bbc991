package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/familyhub/adapters/metrics"
	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/core/openapi"
)

// RouterConfig holds the services and optional surfaces of the router.
type RouterConfig struct {
	Records    *app.RecordService
	Activities *app.ActivityService
	Health     *HealthHandler
	Version    string

	// Metrics enables request metrics. MetricsHandler serves MetricsPath;
	// promhttp.Handler() is used when it is nil.
	Metrics        *metrics.Collector
	MetricsHandler http.Handler
	MetricsPath    string

	// OpenAPI serves /openapi.json and the Swagger UI when set.
	OpenAPI *openapi.Service

	// RequestTimeout bounds each request. Zero means 60s.
	RequestTimeout time.Duration
}

// NewRouter creates the main HTTP router.
func NewRouter(cfg RouterConfig, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))

		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		if cfg.MetricsHandler != nil {
			r.Handle(path, cfg.MetricsHandler)
		} else {
			r.Handle(path, promhttp.Handler())
		}
	}

	if cfg.OpenAPI != nil {
		r.Get("/openapi.json", OpenAPIHandler(cfg.OpenAPI, logger))
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
		))
	}

	r.Get("/version", VersionHandler(cfg.Version))

	r.Route("/api", func(r chi.Router) {
		if cfg.Health != nil {
			r.Get("/health", cfg.Health.Health)
		}
		if cfg.Records != nil {
			for _, ent := range cfg.Records.Entities() {
				h := NewRecordHandler(cfg.Records, ent.Name, logger)
				r.Route("/"+ent.CollectionPath(), h.Routes)
			}
		}
		if cfg.Activities != nil {
			r.Route("/parenting-activities", NewActivityHandler(cfg.Activities, logger).Routes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	return r
}

// OpenAPIHandler serves the generated document with the request's origin
// as its server.
func OpenAPIHandler(svc *openapi.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.JSON(baseURL(r))
		if err != nil {
			logger.Error().Err(err).Msg("render openapi document")
			writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Write(data)
	}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

// skipObservation reports paths left out of access logs and metrics.
func skipObservation(path string) bool {
	return path == "/metrics" || path == "/api/health" ||
		strings.HasPrefix(path, "/swagger") || path == "/openapi.json"
}

// NewMetricsMiddleware records request counts and latency by route pattern.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipObservation(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}

// NewLoggingMiddleware logs each request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if skipObservation(r.URL.Path) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
