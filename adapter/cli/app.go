package cli

import (
	"fmt"

	canvasapp "github.com/tasklens/tasklens/internal/canvas/application"
	"github.com/tasklens/tasklens/internal/scan"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
	"github.com/tasklens/tasklens/internal/todos/application/queries"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

// App holds the CLI application dependencies.
type App struct {
	// Todo Command Handlers
	AddTodoHandler      *commands.AddTodoHandler
	CompleteTodoHandler *commands.CompleteTodoHandler
	SetPriorityHandler  *commands.SetPriorityHandler
	DeleteTodoHandler   *commands.DeleteTodoHandler

	// Todo Query Handlers
	ListTodosHandler *queries.ListTodosHandler
	GetTodoHandler   *queries.GetTodoHandler

	// Todo loading for canvas rendering
	TodoRepo todo.Repository

	// Scan
	Scanner *scan.Engine

	// Canvas
	Renderer     *canvasapp.Renderer
	Synchronizer *canvasapp.Synchronizer

	// Current workspace member (configured per environment)
	CurrentUserID string
}

// ResolveScope picks the scope a command operates on: the given channel,
// or the configured member's personal scope when no channel is named.
func (a *App) ResolveScope(channelID string) (todo.Scope, error) {
	if channelID != "" {
		return todo.NewChannelScope(channelID), nil
	}
	if a.CurrentUserID == "" {
		return todo.Scope{}, fmt.Errorf("no channel given and TASKLENS_USER_ID is not set")
	}
	return todo.NewPersonalScope(a.CurrentUserID), nil
}

var appInstance *App

// SetApp sets the CLI application instance.
func SetApp(a *App) {
	appInstance = a
}

// GetApp returns the CLI application instance.
func GetApp() *App {
	return appInstance
}
