package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/studiousvault/apps/api/di"
	echoapi "github.com/trezcool/studiousvault/apps/api/echo"
	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	logsvc "github.com/trezcool/studiousvault/services/logger"
)

const restoreTimeout = 5 * time.Second

func main() {
	c := di.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger *logsvc.RollbarLogger,
		storeLoggerParam di.StoreLoggerParam,
		store core.LocalStorage,
		validate *validator.Validate,
		translator ut.Translator,
		usrSvc user.Service,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.InitValidators(validate, translator)
		user.InitValidators(validate, translator)
		catalog.InitValidators(validate, translator)

		storeLogger := storeLoggerParam.Logger
		defer func() {
			if err := store.Close(); err != nil {
				storeLogger.Error("Failed to close", err)
			}
		}()
		defer func() { _ = logger.Sync() }()
		defer logger.Info("Application stopped")

		// =========================================================================
		// Restore Session
		//
		// Views render the loading placeholder until the persisted identity is resolved.

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
			defer cancel()
			if err := usrSvc.Restore(ctx); err != nil {
				logger.Error("restoring session", err)
				return
			}
			if usr, ok := usrSvc.Current(); ok {
				logger.Info("session restored", usr)
			}
		}()

		// =========================================================================
		// Start Debug Service
		//
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("storage").Set(conf.Storage.Driver)

		debug := &http.Server{Addr: conf.Server.DebugHost, Handler: http.DefaultServeMux}

		// =========================================================================
		// Start API Service

		g, gctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			if err := debug.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("debug server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			server.Start()
			return nil
		})

		// =========================================================================
		// Shutdown

		g.Go(func() error {
			var runErr error
			select {
			case runErr = <-server.Errors():
				logger.Error(fmt.Sprintf("server error: %v", runErr), runErr)
			case sig := <-server.ShutdownSignal():
				logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
			case <-gctx.Done():
				logger.Info("Start shutdown...")
			}

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listeners to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
				if err = server.Close(); err != nil {
					logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
			if err := debug.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop debug server: %v", err), err)
			}
			return runErr
		})

		if err := g.Wait(); err != nil {
			logger.Error("Application failed", err)
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
