package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/internal/handler"
	"github.com/noah-isme/sma-transcript-api/internal/router"
	"github.com/noah-isme/sma-transcript-api/internal/service"
	"github.com/noah-isme/sma-transcript-api/pkg/jobs"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the transcript workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(commandContext(cmd), port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (defaults to PORT)")
	return cmd
}

func runServer(ctx context.Context, portFlag int) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	worker := service.NewTranscriptWorker(a.transcripts, a.notifier, a.metrics, a.logger)
	queue := jobs.NewQueue("transcripts", worker.Handle, jobs.QueueConfig{
		Workers:    a.cfg.Transcript.WorkerConcurrency,
		MaxRetries: a.cfg.Transcript.WorkerRetries,
		RetryDelay: a.cfg.Transcript.WorkerRetryDelay,
		Logger:     a.logger,
		DeadLetter: worker.DeadLetter,
	})
	worker.AttachQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	checks := map[string]handler.Pinger{"postgres": a.db.PingContext}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	engine := router.New(router.Options{
		Env:            a.cfg.Env,
		APIPrefix:      a.cfg.APIPrefix,
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
		Logger:         a.logger,
		Metrics:        a.metrics,
		Tokens:         a.tokens,
		Transcripts:    handler.NewTranscriptHandler(a.transcripts, worker),
		Observability:  handler.NewMetricsHandler(a.metrics, checks),
	})

	port := portFlag
	if port == 0 {
		port = a.cfg.Port
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", a.cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
		a.logger.Info("shutting down server")
	case <-ctx.Done():
		a.logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
