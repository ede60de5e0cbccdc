package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	Logger            *zap.Logger
}

func New(o Options, handler http.Handler) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rht := o.ReadHeaderTimeout
	if rht <= 0 {
		rht = 10 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              o.Addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: rht,
			ErrorLog:          zap.NewStdLog(log.Named("http")),
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info("starting api server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("starting api server", zap.String("addr", l.Addr().String()))
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
