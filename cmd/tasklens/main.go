package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tasklens/tasklens/adapter/cli"
	cliCanvas "github.com/tasklens/tasklens/adapter/cli/canvas"
	cliTodo "github.com/tasklens/tasklens/adapter/cli/todo"
	"github.com/tasklens/tasklens/internal/app"
	"github.com/tasklens/tasklens/pkg/config"
	"github.com/tasklens/tasklens/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cli.SetApp(&cli.App{
		AddTodoHandler:      container.AddTodo,
		CompleteTodoHandler: container.CompleteTodo,
		SetPriorityHandler:  container.SetPriority,
		DeleteTodoHandler:   container.DeleteTodo,
		ListTodosHandler:    container.ListTodos,
		GetTodoHandler:      container.GetTodo,
		TodoRepo:            container.TodoRepo,
		Scanner:             container.Scanner,
		Renderer:            container.Renderer,
		Synchronizer:        container.Synchronizer,
		CurrentUserID:       cfg.UserID,
	})

	cli.AddCommand(cliTodo.Cmd)
	cli.AddCommand(cliCanvas.Cmd)

	cli.Execute()
}
