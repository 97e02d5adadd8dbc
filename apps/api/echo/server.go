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

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/slides"
	"github.com/trezcool/smartseats/core/student"
	"github.com/trezcool/smartseats/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        user.Service
		StudentSvc     student.Service
		ClassSvc       class.Service
		SlidesSvc      slides.Service
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
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
	jwt := middleware.JWTWithConfig(newAppJWTConfig(conf))

	registerUserAPI(api, jwt, s.deps)
	registerStudentAPI(api, jwt, s.deps)
	registerClassAPI(api, jwt, s.deps)
	registerSlidesAPI(api, jwt, s.deps)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.errs <- s.app.Start(s.deps.Conf.Server.Addr)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown triggers a graceful shutdown of the Server.
func (s *server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to SmartSeats API!")
}
