package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"todolist/internal/api"
	"todolist/internal/notify"
	"todolist/internal/repository"
	"todolist/internal/service"
)

const (
	reportJobTimeout = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
	telegramTimeout  = 15 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the nightly report job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.HTTPAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	var opts []service.Option
	if a.cfg.RedisURL != "" {
		rc := repository.NewRedisClient(a.cfg.RedisURL)
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			a.logger.WithError(err).Warn("redis unavailable, name guard disabled")
		} else {
			opts = append(opts, service.WithNameGuard(repository.NewRedisNameGuard(rc, a.cfg.NameGuardTTL)))
		}
	}

	db, tasks, closeDB, err := a.openTasks(opts...)
	if err != nil {
		return err
	}
	defer closeDB()

	if a.cfg.ReportTime != "" {
		scheduler, err := a.scheduleReports(tasks)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	e := api.NewServer(tasks, func(ctx context.Context) error { return repository.Ping(ctx, db) }, a.logger)
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", a.cfg.HTTPAddr).Info("todolist started")
		if err := e.Start(a.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}

func (a *app) scheduleReports(tasks *service.TaskService) (*service.SchedulerService, error) {
	var sender service.ReportSender
	if a.cfg.TelegramToken != "" {
		client := &http.Client{Timeout: telegramTimeout}
		n, err := notify.NewTelegramNotifierWithEndpoint(a.cfg.TelegramToken, a.cfg.TelegramAPIEndpoint, client, a.cfg.TelegramChatID, a.logger)
		if err != nil {
			a.logger.WithError(err).Warn("telegram unavailable, reports kept on disk only")
		} else {
			sender = n
		}
	}

	job := service.NewReportJob(tasks, a.cfg.ReportDir, sender, a.logger)
	scheduler := service.NewSchedulerService(a.loc, a.logger)
	id, err := scheduler.ScheduleDaily(a.cfg.ReportTime, reportJobTimeout, "daily-report", func(ctx context.Context) error {
		_, err := job.Run(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.logger.WithField("entry", id).WithField("time", a.cfg.ReportTime).Info("daily report scheduled")
	return scheduler, nil
}

