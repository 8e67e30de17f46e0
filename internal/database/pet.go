package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/todo-pet/internal/kvstore"
	"github.com/benvon/todo-pet/internal/logger"
	"go.uber.org/zap"
)

const (
	// PetXPKey holds the decimal-encoded experience total
	PetXPKey = "cat_xp"
	// PetStageKey holds the decimal-encoded cached stage
	PetStageKey = "cat_stage"
)

// PetRepository persists the companion's experience and cached stage
type PetRepository struct {
	kv     kvstore.Store
	logger *zap.Logger
}

// NewPetRepository creates a new pet repository
func NewPetRepository(kv kvstore.Store, zapLogger *zap.Logger) *PetRepository {
	return &PetRepository{
		kv:     kv,
		logger: logger.OrNop(zapLogger),
	}
}

// LoadXP returns the stored experience. found is false when the key is absent.
func (r *PetRepository) LoadXP(ctx context.Context) (xp int, found bool, err error) {
	return r.loadInt(ctx, PetXPKey)
}

// LoadStage returns the cached stage. found is false when the key is absent.
func (r *PetRepository) LoadStage(ctx context.Context) (stage int, found bool, err error) {
	return r.loadInt(ctx, PetStageKey)
}

func (r *PetRepository) loadInt(ctx context.Context, key string) (int, bool, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &StorageError{Op: "read", Key: key, Err: err}
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, true, nil
}

// Save writes experience then stage. A failure on the second write leaves xp
// ahead of the cached stage, which loading reconciles.
func (r *PetRepository) Save(ctx context.Context, xp, stage int) error {
	if err := r.kv.Set(ctx, PetXPKey, []byte(strconv.Itoa(xp))); err != nil {
		return &StorageError{Op: "write", Key: PetXPKey, Err: err}
	}
	if err := r.kv.Set(ctx, PetStageKey, []byte(strconv.Itoa(stage))); err != nil {
		return &StorageError{Op: "write", Key: PetStageKey, Err: err}
	}
	r.logger.Debug("pet_saved", zap.Int("xp", xp), zap.Int("stage", stage))
	return nil
}

// Reset removes both pet keys
func (r *PetRepository) Reset(ctx context.Context) error {
	for _, key := range []string{PetXPKey, PetStageKey} {
		if err := r.kv.Delete(ctx, key); err != nil {
			return &StorageError{Op: "delete", Key: key, Err: err}
		}
	}
	r.logger.Debug("pet_reset")
	return nil
}
