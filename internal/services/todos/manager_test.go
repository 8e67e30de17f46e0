package todos

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benvon/todo-pet/internal/database"
	"github.com/benvon/todo-pet/internal/kvstore"
	"github.com/benvon/todo-pet/internal/models"
	"github.com/benvon/todo-pet/internal/pet"
	"github.com/benvon/todo-pet/internal/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// switchableStore fails Set for the keys listed in failKeys
type switchableStore struct {
	*kvstore.MemoryStore
	failKeys map[string]bool
	sets     int
}

func newSwitchableStore() *switchableStore {
	return &switchableStore{MemoryStore: kvstore.NewMemoryStore(), failKeys: map[string]bool{}}
}

func (s *switchableStore) Set(ctx context.Context, key string, value []byte) error {
	s.sets++
	if s.failKeys[key] {
		return errors.New("storage quota exceeded")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type fixture struct {
	store   *switchableStore
	manager *Manager
	pet     *pet.Progression
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	zapLogger := zap.New(core)

	store := newSwitchableStore()
	progression := pet.Load(ctx, database.NewPetRepository(store, zapLogger), zapLogger)
	manager := NewManager(ctx, database.NewTodoRepository(store, zapLogger), progression, zapLogger, opts)
	return &fixture{store: store, manager: manager, pet: progression, logs: logs}
}

func TestManager_AddTodo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	todo, err := f.manager.AddTodo(ctx, models.CreateTodoInput{
		Title: "  Buy milk  ",
		Tags:  []string{"errands", " Errands ", ""},
	})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}

	if todo.Title != "Buy milk" {
		t.Errorf("Expected trimmed title, got %q", todo.Title)
	}
	if todo.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %q", todo.Priority)
	}
	if len(todo.Tags) != 1 {
		t.Errorf("Expected normalized tags, got %v", todo.Tags)
	}

	if got := f.manager.Todos(); len(got) != 1 || got[0].ID != todo.ID {
		t.Errorf("Expected cache to hold the new todo, got %+v", got)
	}
	if got := f.manager.View(); len(got) != 1 {
		t.Errorf("Expected view to hold the new todo, got %d", len(got))
	}
	if stats := f.manager.Stats(); stats.Total != 1 || stats.Pending != 1 {
		t.Errorf("Expected stats total=1 pending=1, got %+v", stats)
	}
}

func TestManager_ValidationNeverReachesStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		input models.CreateTodoInput
		field string
	}{
		{"blank title", models.CreateTodoInput{Title: "   "}, "title"},
		{"title too long", models.CreateTodoInput{Title: strings.Repeat("a", 101)}, "title"},
		{"description too long", models.CreateTodoInput{Title: "ok", Description: strings.Repeat("d", 501)}, "description"},
		{"bad priority", models.CreateTodoInput{Title: "ok", Priority: "someday"}, "priority"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, DefaultOptions())

			_, err := f.manager.AddTodo(ctx, tt.input)
			var vErr *validation.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected *ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, vErr.Field)
			}
			if f.store.sets != 0 {
				t.Errorf("Expected store untouched, got %d writes", f.store.sets)
			}
		})
	}
}

func TestManager_WriteFailureLeavesCacheUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	existing, err := f.manager.AddTodo(ctx, models.CreateTodoInput{Title: "keep"})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}

	f.store.failKeys[database.TodosKey] = true

	if _, err := f.manager.AddTodo(ctx, models.CreateTodoInput{Title: "new"}); !database.IsStorageError(err) {
		t.Errorf("Expected StorageError from AddTodo, got %v", err)
	}
	if _, err := f.manager.ToggleTodo(ctx, existing.ID); !database.IsStorageError(err) {
		t.Errorf("Expected StorageError from ToggleTodo, got %v", err)
	}
	if err := f.manager.DeleteTodo(ctx, existing.ID); !database.IsStorageError(err) {
		t.Errorf("Expected StorageError from DeleteTodo, got %v", err)
	}

	got := f.manager.Todos()
	if len(got) != 1 || got[0].Completed {
		t.Errorf("Expected cache unchanged, got %+v", got)
	}
	if f.pet.CurrentXP() != 0 {
		t.Errorf("Expected no XP for a failed toggle, got %d", f.pet.CurrentXP())
	}
}

func TestManager_ToggleAwardsXP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	todo, err := f.manager.AddTodo(ctx, models.CreateTodoInput{Title: "walk the dog"})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}

	toggled, err := f.manager.ToggleTodo(ctx, todo.ID)
	if err != nil {
		t.Fatalf("ToggleTodo failed: %v", err)
	}
	if !toggled.Completed {
		t.Fatalf("Expected todo completed")
	}
	if f.pet.CurrentXP() != DefaultXPPerCompletion {
		t.Errorf("Expected xp %d, got %d", DefaultXPPerCompletion, f.pet.CurrentXP())
	}

	// un-completing does not take XP back
	if _, err := f.manager.ToggleTodo(ctx, todo.ID); err != nil {
		t.Fatalf("ToggleTodo failed: %v", err)
	}
	if f.pet.CurrentXP() != DefaultXPPerCompletion {
		t.Errorf("Expected xp to stay %d, got %d", DefaultXPPerCompletion, f.pet.CurrentXP())
	}

	if _, err := f.manager.ToggleTodo(ctx, todo.ID); err != nil {
		t.Fatalf("ToggleTodo failed: %v", err)
	}
	if f.pet.CurrentXP() != 2*DefaultXPPerCompletion || f.pet.CurrentStage() != 1 {
		t.Errorf("Expected xp=10 stage=1, got xp=%d stage=%d", f.pet.CurrentXP(), f.pet.CurrentStage())
	}
}

func TestManager_PetFailureDoesNotFailToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	todo, err := f.manager.AddTodo(ctx, models.CreateTodoInput{Title: "water plants"})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}

	f.store.failKeys[database.PetXPKey] = true
	toggled, err := f.manager.ToggleTodo(ctx, todo.ID)
	if err != nil {
		t.Fatalf("Expected toggle to succeed despite pet failure, got %v", err)
	}
	if !toggled.Completed {
		t.Errorf("Expected todo completed")
	}
	if f.pet.CurrentXP() != 0 {
		t.Errorf("Expected pet state unchanged, got xp %d", f.pet.CurrentXP())
	}
	if f.logs.FilterMessage("failed_to_award_xp").Len() != 1 {
		t.Errorf("Expected failed_to_award_xp to be logged")
	}
}

func TestManager_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	if _, err := f.manager.ToggleTodo(ctx, "nope"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from ToggleTodo, got %v", err)
	}
	title := "x"
	if _, err := f.manager.UpdateTodo(ctx, "nope", models.UpdateTodoInput{Title: &title}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from UpdateTodo, got %v", err)
	}
	if err := f.manager.DeleteTodo(ctx, "nope"); err != nil {
		t.Errorf("Expected DeleteTodo of absent id to succeed, got %v", err)
	}
}

func TestManager_UpdateTodo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	todo, err := f.manager.AddTodo(ctx, models.CreateTodoInput{Title: "draft", Priority: models.PriorityLow})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}

	blank := "  "
	if _, err := f.manager.UpdateTodo(ctx, todo.ID, models.UpdateTodoInput{Title: &blank}); !validation.IsValidationError(err) {
		t.Errorf("Expected ValidationError for blank title, got %v", err)
	}

	title := " final "
	high := models.PriorityHigh
	updated, err := f.manager.UpdateTodo(ctx, todo.ID, models.UpdateTodoInput{Title: &title, Priority: &high})
	if err != nil {
		t.Fatalf("UpdateTodo failed: %v", err)
	}
	if updated.Title != "final" || updated.Priority != models.PriorityHigh {
		t.Errorf("Expected title and priority updated, got %+v", updated)
	}
	if got := f.manager.TodosByPriority(models.PriorityHigh); len(got) != 1 {
		t.Errorf("Expected cache to reflect update, got %d high todos", len(got))
	}
}

func TestManager_FilterSortAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	var ids []string
	for _, input := range []models.CreateTodoInput{
		{Title: "Alpha", Priority: models.PriorityLow, Tags: []string{"work"}},
		{Title: "bravo", Priority: models.PriorityUrgent},
		{Title: "Charlie", Priority: models.PriorityHigh, Tags: []string{"home"}},
		{Title: "delta", Priority: models.PriorityMedium, Tags: []string{"work"}},
	} {
		todo, err := f.manager.AddTodo(ctx, input)
		if err != nil {
			t.Fatalf("AddTodo failed: %v", err)
		}
		ids = append(ids, todo.ID)
	}
	for _, id := range ids[:2] {
		if _, err := f.manager.ToggleTodo(ctx, id); err != nil {
			t.Fatalf("ToggleTodo failed: %v", err)
		}
	}

	if err := f.manager.SetFilter(models.TodoFilter{Status: "later"}); !validation.IsValidationError(err) {
		t.Errorf("Expected ValidationError for bad status, got %v", err)
	}
	if err := f.manager.SetSort(models.TodoSort{By: "color"}); !validation.IsValidationError(err) {
		t.Errorf("Expected ValidationError for bad sort field, got %v", err)
	}

	if err := f.manager.SetFilter(models.TodoFilter{Status: models.StatusPending}); err != nil {
		t.Fatalf("SetFilter failed: %v", err)
	}
	if err := f.manager.SetSort(models.TodoSort{By: models.SortByTitle, Order: models.SortAsc}); err != nil {
		t.Fatalf("SetSort failed: %v", err)
	}

	view := f.manager.View()
	if len(view) != 2 || view[0].Title != "Charlie" || view[1].Title != "delta" {
		t.Errorf("Expected pending view [Charlie delta], got %+v", view)
	}
	if f.manager.Sort().Order != models.SortAsc || f.manager.Filter().Status != models.StatusPending {
		t.Errorf("Expected configured filter and sort to be retained")
	}

	stats := f.manager.Stats()
	if stats.Total != 4 || stats.Completed != 2 || stats.CompletionRate != 50 {
		t.Errorf("Expected stats over the full collection (4, 2, 50), got %+v", stats)
	}
	if stats.ByTag["work"] != 2 {
		t.Errorf("Expected 2 work tags, got %d", stats.ByTag["work"])
	}

	stats.ByTag["work"] = 99
	if f.manager.Stats().ByTag["work"] != 2 {
		t.Errorf("Expected Stats to return a copy")
	}

	if got := f.manager.TodosByStatus(true); len(got) != 2 {
		t.Errorf("Expected 2 completed todos, got %d", len(got))
	}
	if got := f.manager.TodosByTag("WOR"); len(got) != 2 {
		t.Errorf("Expected 2 todos tagged work, got %d", len(got))
	}

	if err := f.manager.ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if got := f.manager.Todos(); len(got) != 2 {
		t.Errorf("Expected 2 todos after ClearCompleted, got %d", len(got))
	}
	if f.pet.CurrentXP() != 2*DefaultXPPerCompletion {
		t.Errorf("Expected clearing completed todos to keep XP, got %d", f.pet.CurrentXP())
	}
}

func TestManager_RefreshPicksUpExternalWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, DefaultOptions())

	other := database.NewTodoRepository(f.store, nil)
	if _, err := other.Create(ctx, models.CreateTodoInput{Title: "from elsewhere", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(f.manager.Todos()) != 0 {
		t.Fatalf("Expected cache to be stale before Refresh")
	}

	f.manager.Refresh(ctx)
	if got := f.manager.Todos(); len(got) != 1 {
		t.Errorf("Expected 1 todo after Refresh, got %d", len(got))
	}
}

func TestManager_WithoutPet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	manager := NewManager(ctx, database.NewTodoRepository(store, nil), nil, nil, Options{XPPerCompletion: -3})

	todo, err := manager.AddTodo(ctx, models.CreateTodoInput{Title: "solo"})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}
	if _, err := manager.ToggleTodo(ctx, todo.ID); err != nil {
		t.Errorf("Expected toggle without a pet to succeed, got %v", err)
	}
	if err := manager.AddXP(ctx, 1); !errors.Is(err, ErrNoPet) {
		t.Errorf("Expected ErrNoPet, got %v", err)
	}
	if manager.Pet() != nil {
		t.Errorf("Expected nil pet")
	}
}
