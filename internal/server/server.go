// Package server exposes schema definition and data extraction over HTTP.
//
//	GET  /health       liveness
//	POST /api/define   design a schema from a description
//	POST /api/parse    extract data conforming to a given schema
//
// Both API routes take the provider credential as a bearer token.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/internal/config"
)

// Server wires the extraction client to gin.
type Server struct {
	cfg    config.Config
	client *extract.Client
	log    *slog.Logger
	engine *gin.Engine

	defineBody *descriptor.Descriptor
	parseBody  *descriptor.Descriptor
}

// New builds the routes. A nil logger discards.
func New(cfg config.Config, client *extract.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:        cfg,
		client:     client,
		log:        log,
		engine:     gin.New(),
		defineBody: envelope(false),
		parseBody:  envelope(true),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestID(), logRequests(s.log), cors(s.cfg.CORSOrigins))
	r.GET("/health", s.health)

	opt := sf.DecodeOpt{OnDuplicateKey: sf.Error, MaxDepth: s.cfg.MaxDepth}
	api := r.Group("/api", bearer())
	api.POST("/define", validateJSON(s.defineBody, s.cfg.MaxBodyBytes, opt), s.define)
	api.POST("/parse", validateJSON(s.parseBody, s.cfg.MaxBodyBytes, opt), s.parse)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on cfg.Addr until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errc <- hs.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), s.cfg.ProviderTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
