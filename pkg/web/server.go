package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liut/showsmart/pkg/services/agent"
	"github.com/liut/showsmart/pkg/services/stores"
)

type Service interface {
	Serve(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Config struct {
	Addr  string
	Debug bool

	DocHandler http.Handler

	Agent *agent.Agent
	Store stores.SessionStore // memory store when nil

	ChatRateLimit string // like "30-M", empty for no limit
}

type server struct {
	Addr string
	cfg  Config

	agent *agent.Agent
	sto   stores.SessionStore
	locks *stores.SessionLocks

	ar *chi.Mux     // app router
	hs *http.Server // http server
}

// New return new web server
func New(cfg Config) Service {
	return newServer(cfg)
}

func newServer(cfg Config) *server {
	ar := chi.NewMux()
	if cfg.Debug {
		ar.Use(middleware.Logger)
	}
	ar.Use(middleware.Recoverer, middleware.RealIP)

	s := &server{
		Addr: cfg.Addr, ar: ar,
		cfg:   cfg,
		agent: cfg.Agent,
		sto:   cfg.Store,
		locks: stores.NewSessionLocks(),
	}
	if s.sto == nil {
		s.sto = stores.NewSessionStore(nil, 0)
	}
	s.strapRouter()

	s.hs = &http.Server{
		Addr:              s.Addr,
		Handler:           s.ar,
		ReadHeaderTimeout: time.Second * 10,
	}

	if cfg.Debug {
		logger().Infow("routes:")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			route = strings.Replace(route, "/*/", "/", -1)
			fmt.Fprintf(os.Stderr, "DEBUG: %-6s %-24s --> %s (%d mw)\n", method, route, nameOfFunction(handler), len(middlewares))
			return nil
		}

		if err := chi.Walk(ar, walkFunc); err != nil {
			logger().Infow("router walk fail", "err", err)
		}
	}
	return s
}

func (s *server) Serve(ctx context.Context) error {
	runErrChan := make(chan error, 1)
	go func() {
		runErrChan <- s.hs.ListenAndServe()
	}()
	logger().Infow("Listen on", "addr", s.hs.Addr)

	select {
	case runErr := <-runErrChan:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger().Infow("run http server failed", "err", runErr)
			return runErr
		}
		return nil
	case <-ctx.Done():
		logger().Info("http server has been stopped")
		return ctx.Err()
	}
}

func (s *server) Stop(ctx context.Context) error {
	if err := s.hs.Shutdown(ctx); err != nil {
		logger().Infow("Server Shutdown", "err", err)
		return err
	}
	return nil
}

func nameOfFunction(f any) string {
	return runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
}
