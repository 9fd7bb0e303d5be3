// main is the entry point of the tag registration server.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open (and set up) the SQLite database
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/tag-server --config=config/local.yaml
//
// or:
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/tag-server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indrajithvu22/tag/internal/config"
	"github.com/indrajithvu22/tag/internal/http/handlers/attendance"
	"github.com/indrajithvu22/tag/internal/http/handlers/registration"
	"github.com/indrajithvu22/tag/internal/storage"
	"github.com/indrajithvu22/tag/internal/storage/sqlite"
	"github.com/indrajithvu22/tag/web"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting tag-server",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	db, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	log.Info("storage initialised",
		slog.String("path", cfg.StoragePath))

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      newRouter(db, time.Now),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed once Shutdown is
		// called; that is not a failure.
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// newRouter builds the route table:
//
//	GET    /                                     registration page
//	GET    /static/...                           page assets
//	POST   /register                             submit a registration
//	GET    /api/registrations                    list registrations
//	GET    /api/registrations/{regNumber}        get one registration
//	PUT    /api/registrations/{regNumber}/tag    assign an RFID tag
//	DELETE /api/registrations/{regNumber}        delete a registration
//	POST   /attendance                           record a tag scan
//	GET    /api/attendance                       attendance log
func newRouter(store storage.Storage, now func() time.Time) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", web.Index())
	router.Handle("GET /static/", web.Static())

	router.HandleFunc("POST /register", registration.Register(store))
	router.HandleFunc("GET /api/registrations", registration.GetList(store))
	router.HandleFunc("GET /api/registrations/{regNumber}", registration.GetByRegNumber(store))
	router.HandleFunc("PUT /api/registrations/{regNumber}/tag", registration.AssignTag(store))
	router.HandleFunc("DELETE /api/registrations/{regNumber}", registration.Delete(store))

	router.HandleFunc("POST /attendance", attendance.Scan(store, now))
	router.HandleFunc("GET /api/attendance", attendance.GetLog(store))

	return router
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
