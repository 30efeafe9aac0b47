package main

import (
	"database/sql"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/service/task"
	"github.com/phrazzld/todo-api/internal/store"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger

	db        *sql.DB
	userStore store.UserStore
	taskStore store.TaskStore

	jwtService     auth.JWTService
	passwordHasher auth.PasswordHasher
	taskService    *task.Service

	authHandler *api.AuthHandler
	taskHandler *api.TaskHandler
}

// newApplication wires stores, services, and handlers onto the given
// database connection.
func newApplication(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, err
	}

	userStore := postgres.NewPostgresUserStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	passwordHasher := auth.NewBcryptHasher(0)

	emitter := events.NewInMemoryEmitter(logger)
	emitter.RegisterHandler(events.NewAuditLogHandler(logger))

	taskService := task.NewService(userStore, taskStore, logger).WithEmitter(emitter).WithDB(db)

	return &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		userStore:      userStore,
		taskStore:      taskStore,
		jwtService:     jwtService,
		passwordHasher: passwordHasher,
		taskService:    taskService,
		authHandler:    api.NewAuthHandler(userStore, jwtService, passwordHasher),
		taskHandler:    api.NewTaskHandler(taskService),
	}, nil
}
