package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	adapterHTTP "github.com/comitanigiacomo/kanso-habit-store/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-store/internal/adapters/storage"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/services"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the habit API, change stream and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, memory)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "keep habits in memory only (nothing survives a restart)")
	return cmd
}

func (a *app) router(startTime time.Time) *gin.Engine {
	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		HabitHandler:  adapterHTTP.NewHabitHandler(a.habits),
		WidgetHandler: adapterHTTP.NewWidgetHandler(a.habits),
		StatsHandler:  adapterHTTP.NewStatsHandler(a.stats, a.habits),
		EventsHandler: adapterHTTP.NewEventsHandler(a.habits, a.lifecycle),
		Store:         a.store,
		Metrics:       a.metrics,
		StartTime:     startTime,
	})
}

func runServe(opts *rootOptions, memory bool) error {
	startTime := time.Now()
	cfg := opts.cfg

	gin.SetMode(cfg.GinMode)

	var a *app
	if memory {
		a = &app{}
		a.wire(storage.NewMemoryBackend(), services.SystemClock{})
	} else {
		a = newApp(cfg)
	}
	defer a.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	a.worker.Start(workerCtx)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     a.router(startTime),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Kanso habit store running on http://localhost:%s (%s backend)", cfg.Port, a.backend.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Stop signal received. Shutting down...")
	case err := <-serverErr:
		log.Printf("Critical server error: %v", err)
		stopWorker()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown error: %v", err)
	}

	stopWorker()
	select {
	case <-a.worker.Done():
	case <-ctx.Done():
	}

	log.Println("Server stopped gracefully.")
	return nil
}
