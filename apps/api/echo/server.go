package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       user.ServiceInterface
		SchoolSvc     school.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	configureAuth(deps.Conf)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(api, jwt, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerSchoolAPI(api, jwt, s.deps.SchoolSvc, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerAttendanceAPI(api, jwt, s.deps.AttendanceSvc, s.deps.SchoolSvc, s.deps.UserSvc, s.deps.Validate)
}

func (s *Server) Start() {
	s.errors <- s.app.Start(s.deps.Conf.Server.Addr)
}

// Errors reports fatal server errors; receiving one means the listener died.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal delivers OS interrupt/termination signals.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown triggers a graceful shutdown from within, e.g. when an
// unrecoverable integrity error is caught.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
