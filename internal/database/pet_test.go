package database

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/todo-pet/internal/kvstore"
)

func TestPetRepository_LoadDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewPetRepository(kvstore.NewMemoryStore(), nil)

	xp, found, err := repo.LoadXP(ctx)
	if err != nil || found || xp != 0 {
		t.Errorf("Expected (0, false, nil) for absent xp, got (%d, %v, %v)", xp, found, err)
	}
	stage, found, err := repo.LoadStage(ctx)
	if err != nil || found || stage != 0 {
		t.Errorf("Expected (0, false, nil) for absent stage, got (%d, %v, %v)", stage, found, err)
	}
}

func TestPetRepository_SaveAndLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewPetRepository(store, nil)

	if err := repo.Save(ctx, 27, 2); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, _ := store.Get(ctx, PetXPKey)
	if string(raw) != "27" {
		t.Errorf("Expected xp stored as decimal string, got %q", raw)
	}

	xp, found, err := repo.LoadXP(ctx)
	if err != nil || !found || xp != 27 {
		t.Errorf("Expected (27, true, nil), got (%d, %v, %v)", xp, found, err)
	}
	stage, found, err := repo.LoadStage(ctx)
	if err != nil || !found || stage != 2 {
		t.Errorf("Expected (2, true, nil), got (%d, %v, %v)", stage, found, err)
	}

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, found, _ := repo.LoadXP(ctx); found {
		t.Errorf("Expected xp removed after Reset")
	}
}

func TestPetRepository_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(*faultyStore)
		storage bool
	}{
		{
			name:  "garbled xp",
			setup: func(s *faultyStore) { _ = s.MemoryStore.Set(ctx, PetXPKey, []byte("lots")) },
		},
		{
			name:    "backend failure",
			setup:   func(s *faultyStore) { s.getErr = errors.New("timeout") },
			storage: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFaultyStore()
			tt.setup(store)
			repo := NewPetRepository(store, nil)

			_, _, err := repo.LoadXP(ctx)
			if err == nil {
				t.Fatalf("Expected an error")
			}
			if IsStorageError(err) != tt.storage {
				t.Errorf("Expected IsStorageError=%v, got %v (%v)", tt.storage, IsStorageError(err), err)
			}
		})
	}
}

func TestPetRepository_SaveFailure(t *testing.T) {
	t.Parallel()
	store := newFaultyStore()
	store.setErr = errors.New("read-only")
	repo := NewPetRepository(store, nil)

	err := repo.Save(context.Background(), 5, 0)
	var sErr *StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("Expected *StorageError, got %v", err)
	}
	if sErr.Key != PetXPKey || sErr.Op != "write" {
		t.Errorf("Expected write of %q to fail first, got %s %q", PetXPKey, sErr.Op, sErr.Key)
	}
	if !errors.Is(err, store.setErr) {
		t.Errorf("Expected StorageError to unwrap to the backend error")
	}
}
