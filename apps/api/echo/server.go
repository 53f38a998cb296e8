package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	appfs "github.com/trezcool/studiousvault/fs"
)

type (
	// Deps are the services the server exposes.
	Deps struct {
		UserSvc    user.Service
		CatalogSvc catalog.Service
		Notifier   core.Notifier
	}

	Server struct {
		conf       *core.Config
		app        *echo.Echo
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		deps       *Deps
		jwtConfig  middleware.JWTConfig
		errors     chan error
		shutdown   chan os.Signal
	}
)

func NewServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	deps *Deps,
) (*Server, error) {
	s := &Server{
		conf:       conf,
		app:        echo.New(),
		logger:     logger,
		validate:   validate,
		translator: translator,
		deps:       deps,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	renderer, err := newTemplateRenderer(appfs.FS, conf.Debug || conf.TestMode)
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	s.app.Renderer = renderer

	s.setup()
	return s, nil
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug
	s.app.HideBanner = true

	s.app.Static("/assets", filepath.Join(s.conf.WorkDir, "assets"))
	registerViews(s.app, s)

	v1 := s.app.Group("/v1")
	v1.GET("", s.home)

	jwt := middleware.JWTWithConfig(s.jwtConfig)
	authed := []echo.MiddlewareFunc{jwt, sessionBoundMiddleware(s.deps.UserSvc)}

	registerAuthAPI(v1, authed, s)
	registerCatalogAPI(v1, authed, s)
}

// Start blocks until the server stops. Failures are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signalled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Welcome to " + s.conf.AppName + " API!",
		"build":   s.conf.Build,
	})
}
