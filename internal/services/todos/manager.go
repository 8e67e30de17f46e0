// Package todos is the facade the CLI talks to: it validates input, delegates
// persistence to the record store, keeps a cached view and feeds the pet.
package todos

import (
	"context"
	"errors"
	"sync"

	"github.com/benvon/todo-pet/internal/database"
	"github.com/benvon/todo-pet/internal/logger"
	"github.com/benvon/todo-pet/internal/models"
	"github.com/benvon/todo-pet/internal/pet"
	"github.com/benvon/todo-pet/internal/query"
	"github.com/benvon/todo-pet/internal/validation"
	"go.uber.org/zap"
)

// ErrNoPet is returned by AddXP when the manager was built without a pet
var ErrNoPet = errors.New("no pet configured")

// DefaultXPPerCompletion is awarded each time a todo becomes completed
const DefaultXPPerCompletion = 5

// Options tunes the manager
type Options struct {
	XPPerCompletion int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{XPPerCompletion: DefaultXPPerCompletion}
}

// Manager owns the cached collection and its derived view and stats
type Manager struct {
	store  database.TodoRepositoryInterface
	pet    *pet.Progression
	logger *zap.Logger
	opts   Options

	mu     sync.RWMutex // Protects everything below
	todos  []models.Todo
	filter models.TodoFilter
	sort   models.TodoSort
	view   []models.Todo
	stats  models.TodoStats
}

// NewManager creates a manager and loads the current collection.
// progression may be nil, in which case completions award nothing.
func NewManager(ctx context.Context, store database.TodoRepositoryInterface, progression *pet.Progression, zapLogger *zap.Logger, opts Options) *Manager {
	if opts.XPPerCompletion < 0 {
		opts.XPPerCompletion = 0
	}
	m := &Manager{
		store:  store,
		pet:    progression,
		logger: logger.OrNop(zapLogger),
		opts:   opts,
		filter: models.DefaultFilter(),
		sort:   models.DefaultSort(),
	}
	m.Refresh(ctx)
	return m
}

// Refresh reloads the collection from the store
func (m *Manager) Refresh(ctx context.Context) {
	todos := m.store.GetAll(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.todos = todos
	m.recompute()
	m.logger.Debug("todos_refreshed", zap.Int("count", len(todos)))
}

// recompute must be called with mu held
func (m *Manager) recompute() {
	m.view = query.Apply(m.todos, m.filter, m.sort)
	m.stats = query.Stats(m.todos)
}

// AddTodo validates input and creates a todo. Invalid input never reaches the store.
func (m *Manager) AddTodo(ctx context.Context, input models.CreateTodoInput) (models.Todo, error) {
	clean, err := validation.ValidateCreateInput(input)
	if err != nil {
		return models.Todo{}, err
	}

	todo, err := m.store.Create(ctx, clean)
	if err != nil {
		m.logger.Error("failed_to_create_todo", zap.String("error", logger.SanitizeError(err)))
		return models.Todo{}, err
	}

	m.mu.Lock()
	m.todos = append(m.todos, todo)
	m.recompute()
	m.mu.Unlock()

	m.logger.Info("todo_added",
		zap.String("todo_id", todo.ID),
		zap.String("title", logger.SanitizeTitle(todo.Title)),
	)
	return todo.Clone(), nil
}

// UpdateTodo validates the provided fields and merges them into the todo
func (m *Manager) UpdateTodo(ctx context.Context, id string, input models.UpdateTodoInput) (models.Todo, error) {
	clean, err := validation.ValidateUpdateInput(input)
	if err != nil {
		return models.Todo{}, err
	}

	todo, err := m.store.Update(ctx, id, clean)
	if err != nil {
		return models.Todo{}, err
	}

	m.replace(todo)
	m.logger.Info("todo_updated", zap.String("todo_id", id))
	return todo.Clone(), nil
}

// ToggleTodo flips completion. Completing a todo awards XP to the pet; a pet
// failure is logged and does not undo the toggle.
func (m *Manager) ToggleTodo(ctx context.Context, id string) (models.Todo, error) {
	todo, err := m.store.Toggle(ctx, id)
	if err != nil {
		return models.Todo{}, err
	}

	m.replace(todo)
	m.logger.Info("todo_toggled",
		zap.String("todo_id", id),
		zap.Bool("completed", todo.Completed),
	)

	if todo.Completed && m.pet != nil && m.opts.XPPerCompletion > 0 {
		if err := m.pet.AddXP(ctx, m.opts.XPPerCompletion); err != nil {
			m.logger.Warn("failed_to_award_xp",
				zap.String("todo_id", id),
				zap.Int("amount", m.opts.XPPerCompletion),
				zap.String("error", logger.SanitizeError(err)),
			)
		}
	}
	return todo.Clone(), nil
}

// replace swaps the cached copy of todo, appending it if the cache had gone stale
func (m *Manager) replace(todo models.Todo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.todos {
		if m.todos[i].ID == todo.ID {
			m.todos[i] = todo
			m.recompute()
			return
		}
	}
	m.todos = append(m.todos, todo)
	m.recompute()
}

// DeleteTodo removes a todo. Unknown ids are not an error.
func (m *Manager) DeleteTodo(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}

	m.removeWhere(func(todo models.Todo) bool { return todo.ID == id })
	m.logger.Info("todo_deleted", zap.String("todo_id", id))
	return nil
}

// ClearCompleted removes every completed todo
func (m *Manager) ClearCompleted(ctx context.Context) error {
	if err := m.store.DeleteCompleted(ctx); err != nil {
		return err
	}

	removed := m.removeWhere(func(todo models.Todo) bool { return todo.Completed })
	m.logger.Info("completed_todos_cleared", zap.Int("removed", removed))
	return nil
}

func (m *Manager) removeWhere(match func(models.Todo) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]models.Todo, 0, len(m.todos))
	for _, todo := range m.todos {
		if !match(todo) {
			kept = append(kept, todo)
		}
	}
	removed := len(m.todos) - len(kept)
	m.todos = kept
	m.recompute()
	return removed
}

// SetFilter replaces the view filter
func (m *Manager) SetFilter(filter models.TodoFilter) error {
	if err := validation.ValidateFilter(filter); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = filter
	m.recompute()
	return nil
}

// Filter returns the current view filter
func (m *Manager) Filter() models.TodoFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetSort replaces the view ordering. Empty fields take their defaults.
func (m *Manager) SetSort(sort models.TodoSort) error {
	if err := validation.ValidateSort(sort); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sort = sort.Normalize()
	m.recompute()
	return nil
}

// Sort returns the current view ordering
func (m *Manager) Sort() models.TodoSort {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sort
}

// Todos returns the full cached collection in storage order
func (m *Manager) Todos() []models.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.todos)
}

// View returns the filtered and sorted collection
func (m *Manager) View() []models.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.view)
}

// Stats is computed over the full collection, not the view
func (m *Manager) Stats() models.TodoStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := m.stats
	stats.ByPriority = make(map[models.Priority]int, len(m.stats.ByPriority))
	for k, v := range m.stats.ByPriority {
		stats.ByPriority[k] = v
	}
	stats.ByTag = make(map[string]int, len(m.stats.ByTag))
	for k, v := range m.stats.ByTag {
		stats.ByTag[k] = v
	}
	return stats
}

// TodosByStatus returns cached todos with the given completion state
func (m *Manager) TodosByStatus(completed bool) []models.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return query.ByStatus(m.todos, completed)
}

// TodosByPriority returns cached todos with the given priority
func (m *Manager) TodosByPriority(priority models.Priority) []models.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return query.ByPriority(m.todos, priority)
}

// TodosByTag returns cached todos carrying tag
func (m *Manager) TodosByTag(tag string) []models.Todo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return query.ByTag(m.todos, tag)
}

// Pet returns the injected progression, nil if none was given
func (m *Manager) Pet() *pet.Progression {
	return m.pet
}

// AddXP adds experience to the pet directly
func (m *Manager) AddXP(ctx context.Context, amount int) error {
	if m.pet == nil {
		return ErrNoPet
	}
	return m.pet.AddXP(ctx, amount)
}

func cloneAll(todos []models.Todo) []models.Todo {
	out := make([]models.Todo, len(todos))
	for i, todo := range todos {
		out[i] = todo.Clone()
	}
	return out
}
