package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/matheuscscp/lark-oidc-proxy/internal/config"
	"github.com/matheuscscp/lark-oidc-proxy/internal/provider"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	public *http.Server
	ops    *http.Server
}

func New(conf *config.Config) (*Server, error) {
	return newWithRegistry(conf, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newWithRegistry(conf *config.Config,
	promRegisterer prometheus.Registerer, promGatherer prometheus.Gatherer) (*Server, error) {

	p, err := provider.New(&conf.Provider, promRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}
	s := &Server{public: newServer(conf, p, promRegisterer)}
	if conf.Server.OpsEnabled() {
		s.ops = newOpsServer(conf, promGatherer)
	}
	return s, nil
}

func (s *Server) servers() []*http.Server {
	if s.ops == nil {
		return []*http.Server{s.public}
	}
	return []*http.Server{s.public, s.ops}
}

// Run serves until ctx is done or a listener fails, then shuts every listener
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range s.servers() {
		g.Go(func() error {
			logrus.WithField("addr", srv.Addr).Info("listening")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to serve on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range s.servers() {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shut down %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
