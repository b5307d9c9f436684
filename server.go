package fauxregistry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds how long in-flight requests may drain after
// the server is asked to stop.
const DefaultShutdownTimeout = 10 * time.Second

// Server serves a handler on a TCP port on all interfaces.
type Server struct {
	addr            string
	httpServer      *http.Server
	logger          logrus.FieldLogger
	shutdownTimeout time.Duration
}

// NewServer creates a Server listening on port on all interfaces.
func NewServer(port int, handler http.Handler, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	addr := ":" + strconv.Itoa(port)
	return &Server{
		addr:   addr,
		logger: logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 30 * time.Second,
		},
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("address", ln.Addr().String()).Info("started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("server error")
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
