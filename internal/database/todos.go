package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/todo-pet/internal/kvstore"
	"github.com/benvon/todo-pet/internal/logger"
	"github.com/benvon/todo-pet/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TodosKey is the key holding the serialized todo collection
const TodosKey = "todos"

// TodoRepository is the record store: the whole collection lives in one JSON blob and
// every write is a read-modify-write of that blob.
//
// Writers inside one process are serialized. Separate processes sharing a backend
// still race, and the last full write wins.
type TodoRepository struct {
	kv     kvstore.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

// TodoRepositoryOption customizes a TodoRepository
type TodoRepositoryOption func(*TodoRepository)

// WithClock replaces time.Now
func WithClock(now func() time.Time) TodoRepositoryOption {
	return func(r *TodoRepository) { r.now = now }
}

// WithIDGenerator replaces the UUIDv7 id source
func WithIDGenerator(newID func() string) TodoRepositoryOption {
	return func(r *TodoRepository) { r.newID = newID }
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(kv kvstore.Store, zapLogger *zap.Logger, opts ...TodoRepositoryOption) *TodoRepository {
	r := &TodoRepository{
		kv:     kv,
		logger: logger.OrNop(zapLogger),
		now:    time.Now,
		newID:  newTodoID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newTodoID returns a time-ordered UUIDv7, falling back to a random v4
func newTodoID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// timestamp returns now in UTC, never earlier than floor
func (r *TodoRepository) timestamp(floor time.Time) time.Time {
	now := r.now().UTC()
	if now.Before(floor) {
		return floor
	}
	return now
}

// GetAll returns every todo. A missing, unreadable or corrupt blob yields an empty
// collection; the failure is logged, never returned.
func (r *TodoRepository) GetAll(ctx context.Context) []models.Todo {
	todos, err := r.readAll(ctx)
	if err != nil {
		r.logger.Error("failed_to_read_todos", zap.String("error", logger.SanitizeError(err)))
		return []models.Todo{}
	}
	return todos
}

// readAll decodes the blob. Decode failures degrade to an empty collection;
// backend failures are returned so write paths don't overwrite data they couldn't see.
func (r *TodoRepository) readAll(ctx context.Context) ([]models.Todo, error) {
	data, err := r.kv.Get(ctx, TodosKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []models.Todo{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Key: TodosKey, Err: err}
	}

	var todos []models.Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		r.logger.Error("failed_to_parse_todos",
			zap.String("error", logger.SanitizeError(err)),
			zap.Int("size", len(data)),
		)
		return []models.Todo{}, nil
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

func (r *TodoRepository) writeAll(ctx context.Context, todos []models.Todo) error {
	if todos == nil {
		todos = []models.Todo{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return &StorageError{Op: "encode", Key: TodosKey, Err: err}
	}
	if err := r.kv.Set(ctx, TodosKey, data); err != nil {
		return &StorageError{Op: "write", Key: TodosKey, Err: err}
	}
	return nil
}

// Create appends a new todo with a fresh id and timestamps
func (r *TodoRepository) Create(ctx context.Context, input models.CreateTodoInput) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.readAll(ctx)
	if err != nil {
		return models.Todo{}, err
	}

	id := r.newID()
	for indexOf(todos, id) >= 0 {
		id = r.newID()
	}

	now := r.now().UTC()
	todo := models.Todo{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		Priority:    input.Priority,
		Tags:        append([]string(nil), input.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(todo.Tags) == 0 {
		todo.Tags = nil
	}
	if input.DueDate != nil {
		due := input.DueDate.UTC()
		todo.DueDate = &due
	}

	if err := r.writeAll(ctx, append(todos, todo)); err != nil {
		return models.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}

	r.logger.Debug("todo_created",
		zap.String("todo_id", todo.ID),
		zap.String("title", logger.SanitizeTitle(todo.Title)),
		zap.Int("collection_size", len(todos)+1),
	)
	return todo.Clone(), nil
}

// Update merges the provided fields into the todo with the given id
func (r *TodoRepository) Update(ctx context.Context, id string, input models.UpdateTodoInput) (models.Todo, error) {
	return r.mutate(ctx, id, "todo_updated", func(todo *models.Todo) {
		applyUpdate(todo, input)
	})
}

// Toggle flips the completion flag of the todo with the given id
func (r *TodoRepository) Toggle(ctx context.Context, id string) (models.Todo, error) {
	return r.mutate(ctx, id, "todo_toggled", func(todo *models.Todo) {
		todo.Completed = !todo.Completed
	})
}

// mutate applies fn to one record, bumps updatedAt and rewrites the collection.
// An unknown id leaves the stored collection untouched.
func (r *TodoRepository) mutate(ctx context.Context, id, event string, fn func(*models.Todo)) (models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.readAll(ctx)
	if err != nil {
		return models.Todo{}, err
	}

	idx := indexOf(todos, id)
	if idx < 0 {
		return models.Todo{}, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}

	updated := todos[idx].Clone()
	fn(&updated)
	updated.UpdatedAt = r.timestamp(updated.CreatedAt)
	todos[idx] = updated

	if err := r.writeAll(ctx, todos); err != nil {
		return models.Todo{}, fmt.Errorf("failed to update todo: %w", err)
	}

	r.logger.Debug(event,
		zap.String("todo_id", id),
		zap.Bool("completed", updated.Completed),
	)
	return updated.Clone(), nil
}

func applyUpdate(todo *models.Todo, input models.UpdateTodoInput) {
	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.Description != nil {
		todo.Description = *input.Description
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	if input.Priority != nil {
		todo.Priority = *input.Priority
	}
	if input.ClearDueDate {
		todo.DueDate = nil
	} else if input.DueDate != nil {
		due := input.DueDate.UTC()
		todo.DueDate = &due
	}
	if input.Tags != nil {
		if len(input.Tags) == 0 {
			todo.Tags = nil
		} else {
			todo.Tags = append([]string(nil), input.Tags...)
		}
	}
}

// Delete removes the todo with the given id. Unknown ids are not an error.
func (r *TodoRepository) Delete(ctx context.Context, id string) error {
	return r.removeWhere(ctx, "todo_deleted", func(todo models.Todo) bool {
		return todo.ID == id
	})
}

// DeleteCompleted removes every completed todo
func (r *TodoRepository) DeleteCompleted(ctx context.Context) error {
	return r.removeWhere(ctx, "completed_todos_deleted", func(todo models.Todo) bool {
		return todo.Completed
	})
}

func (r *TodoRepository) removeWhere(ctx context.Context, event string, match func(models.Todo) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.readAll(ctx)
	if err != nil {
		return err
	}

	kept := make([]models.Todo, 0, len(todos))
	for _, todo := range todos {
		if !match(todo) {
			kept = append(kept, todo)
		}
	}

	removed := len(todos) - len(kept)
	if removed == 0 {
		r.logger.Debug(event, zap.Int("removed", 0))
		return nil
	}

	if err := r.writeAll(ctx, kept); err != nil {
		return fmt.Errorf("failed to delete todos: %w", err)
	}
	r.logger.Debug(event, zap.Int("removed", removed), zap.Int("collection_size", len(kept)))
	return nil
}

// SaveAll overwrites the stored collection
func (r *TodoRepository) SaveAll(ctx context.Context, todos []models.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writeAll(ctx, todos); err != nil {
		return fmt.Errorf("failed to save todos: %w", err)
	}
	r.logger.Debug("todos_saved", zap.Int("collection_size", len(todos)))
	return nil
}

// Clear removes the persisted collection entirely
func (r *TodoRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.Delete(ctx, TodosKey); err != nil {
		return &StorageError{Op: "delete", Key: TodosKey, Err: err}
	}
	r.logger.Debug("todos_cleared")
	return nil
}

// SizeEstimate returns the byte length of the stored blob, 0 if absent or unreadable
func (r *TodoRepository) SizeEstimate(ctx context.Context) int {
	data, err := r.kv.Get(ctx, TodosKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0
	}
	if err != nil {
		r.logger.Warn("failed_to_read_todos_size", zap.String("error", logger.SanitizeError(err)))
		return 0
	}
	return len(data)
}

func indexOf(todos []models.Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}
