package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof handlers
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/smartseats/apps/api/echo"
	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/slides"
	"github.com/trezcool/smartseats/core/student"
	"github.com/trezcool/smartseats/core/user"
	emailsvc "github.com/trezcool/smartseats/services/email"
	logsvc "github.com/trezcool/smartseats/services/logger"
	openaisvc "github.com/trezcool/smartseats/services/openai"
	pptxsvc "github.com/trezcool/smartseats/services/pptx"
	"github.com/trezcool/smartseats/storage/database"
	mongorepos "github.com/trezcool/smartseats/storage/database/mongodb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Client().Disconnect(context.Background()); err != nil {
			dbLogger.Fatal("Failed to disconnect", err)
		}
	}()

	usrRepo := mongorepos.NewUserRepository(db)
	stdRepo := mongorepos.NewStudentRepository(db)
	clsRepo := mongorepos.NewClassRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(stdRepo, clsRepo, logger)
	clsSvc := class.NewService(clsRepo, stdRepo, logger)
	slidesSvc := slides.NewService(openaisvc.NewTextService(conf), pptxsvc.NewRenderer())

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			StudentSvc: stdSvc,
			ClassSvc:   clsSvc,
			SlidesSvc:  slidesSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
