package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"todolist/internal/config"
	"todolist/internal/repository"
	"todolist/internal/service"
)

// app carries state shared by the subcommands.
type app struct {
	cfg    config.Config
	logger *log.Logger
	loc    *time.Location

	dbOverride string
}

func newRootCmd() *cobra.Command {
	a := &app{logger: log.New()}

	root := &cobra.Command{
		Use:           "todolist",
		Short:         "Task tracking service with a daily CSV report",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.dbOverride, "db", "", "database DSN (overrides DATABASE_URL)")

	serve := newServeCmd(a)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newExportCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.dbOverride != "" {
		cfg.DatabaseURL = a.dbOverride
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if cfg.Debug {
		a.logger.SetLevel(log.DebugLevel)
	}
	a.cfg = cfg
	a.loc = loc
	return nil
}

// openTasks opens the database and builds the task service on top of it.
// The returned func releases the database.
func (a *app) openTasks(opts ...service.Option) (*gorm.DB, *service.TaskService, func(), error) {
	db, err := repository.NewDB(a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	opts = append([]service.Option{service.WithLocation(a.loc)}, opts...)
	svc := service.NewTaskService(repository.NewTaskRepository(db), a.logger, opts...)
	return db, svc, closeDB, nil
}
