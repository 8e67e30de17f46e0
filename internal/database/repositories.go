package database

import (
	"context"

	"github.com/benvon/todo-pet/internal/models"
)

// TodoRepositoryInterface defines the interface for todo repository operations
// This interface enables better testability by allowing mock implementations
type TodoRepositoryInterface interface {
	GetAll(ctx context.Context) []models.Todo
	Create(ctx context.Context, input models.CreateTodoInput) (models.Todo, error)
	Update(ctx context.Context, id string, input models.UpdateTodoInput) (models.Todo, error)
	Toggle(ctx context.Context, id string) (models.Todo, error)
	Delete(ctx context.Context, id string) error
	DeleteCompleted(ctx context.Context) error
	SaveAll(ctx context.Context, todos []models.Todo) error
	Clear(ctx context.Context) error
	SizeEstimate(ctx context.Context) int
}

// PetRepositoryInterface defines the interface for pet repository operations
type PetRepositoryInterface interface {
	LoadXP(ctx context.Context) (int, bool, error)
	LoadStage(ctx context.Context) (int, bool, error)
	Save(ctx context.Context, xp, stage int) error
	Reset(ctx context.Context) error
}

// Ensure concrete types implement the interfaces
var (
	_ TodoRepositoryInterface = (*TodoRepository)(nil)
	_ PetRepositoryInterface  = (*PetRepository)(nil)
)
