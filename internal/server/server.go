package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matheuscscp/lark-oidc-proxy/internal/config"
	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
	"github.com/matheuscscp/lark-oidc-proxy/internal/logging"
)

const pathLabelOther = "other"

func newServer(conf *config.Config, p upstream, promRegisterer prometheus.Registerer) *http.Server {
	requestDurationSecs := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
	}, []string{"method", "path", "status"})
	promRegisterer.MustRegister(requestDurationSecs)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.Now()
			sr := &statusRecorder{ResponseWriter: w}

			r = logging.WithRequest(r)
			sr.Header().Set(constants.HeaderRequestID, logging.RequestID(r.Context()))

			defer func() {
				// Unmatched paths share one label value.
				path := chi.RouteContext(r.Context()).RoutePattern()
				if path == "" {
					path = pathLabelOther
				}
				status := fmt.Sprintf("%d", sr.getStatusCode())
				elapsed := time.Since(t)
				requestDurationSecs.
					WithLabelValues(r.Method, path, status).
					Observe(elapsed.Seconds())
				logging.FromRequest(r).
					WithField("status", sr.getStatusCode()).
					WithField("duration", elapsed.String()).
					Debug("request served")
			}()

			next.ServeHTTP(sr, r)
		})
	})
	mountAPI(router, p)

	return &http.Server{
		Addr:    conf.Server.Addr,
		Handler: router,
	}
}

// newOpsServer serves health and metrics on a listener separate from the
// proxied API, whose unmatched paths must all answer 401.
func newOpsServer(conf *config.Config, promGatherer prometheus.Gatherer) *http.Server {
	promHandler := promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})

	return &http.Server{
		Addr: conf.Server.OpsAddr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/readyz", "/healthz":
				w.WriteHeader(http.StatusOK)
			case "/metrics":
				promHandler.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		}),
	}
}
