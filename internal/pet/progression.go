// Package pet tracks the companion's experience and the growth stage derived from it.
package pet

import (
	"context"
	"fmt"
	"sync"

	"github.com/benvon/todo-pet/internal/database"
	"github.com/benvon/todo-pet/internal/logger"
	"go.uber.org/zap"
)

// MaxStage is the highest reachable stage
const MaxStage = 3

// thresholds[i] is the minimum xp for stage i. The last entry is never reached
// because stages are capped at MaxStage.
var thresholds = [...]int{0, 10, 25, 50, 100}

// Thresholds returns a copy of the xp thresholds, one per stage
func Thresholds() []int {
	return append([]int(nil), thresholds[:]...)
}

// StageForXP returns the highest stage whose threshold xp has reached, capped at MaxStage
func StageForXP(xp int) int {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if xp >= thresholds[i] {
			return min(i, MaxStage)
		}
	}
	return 0
}

// Progression is the in-memory pet state backed by a PetRepository
type Progression struct {
	repo   database.PetRepositoryInterface
	logger *zap.Logger

	mu    sync.Mutex
	xp    int
	stage int
}

// Load reads the persisted xp and derives the stage from it.
// Unreadable values start the pet from zero rather than failing.
func Load(ctx context.Context, repo database.PetRepositoryInterface, zapLogger *zap.Logger) *Progression {
	p := &Progression{
		repo:   repo,
		logger: logger.OrNop(zapLogger),
	}

	xp, _, err := repo.LoadXP(ctx)
	if err != nil {
		p.logger.Warn("failed_to_load_pet_xp", zap.String("error", logger.SanitizeError(err)))
		xp = 0
	}
	p.xp = xp
	p.stage = StageForXP(xp)

	cached, found, err := repo.LoadStage(ctx)
	switch {
	case err != nil:
		p.logger.Debug("failed_to_load_pet_stage", zap.String("error", logger.SanitizeError(err)))
	case found && cached != p.stage:
		p.logger.Info("pet_stage_drift",
			zap.Int("cached_stage", cached),
			zap.Int("stage", p.stage),
			zap.Int("xp", p.xp),
		)
	}

	p.logger.Debug("pet_loaded", zap.Int("xp", p.xp), zap.Int("stage", p.stage))
	return p
}

// AddXP adds amount (possibly negative) and persists the result.
// State only changes once the write succeeds.
func (p *Progression) AddXP(ctx context.Context, amount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	xp := p.xp + amount
	stage := StageForXP(xp)
	if err := p.repo.Save(ctx, xp, stage); err != nil {
		return fmt.Errorf("failed to save pet progress: %w", err)
	}

	if stage != p.stage {
		p.logger.Info("pet_stage_changed",
			zap.Int("from", p.stage),
			zap.Int("to", stage),
			zap.Int("xp", xp),
		)
	}
	p.xp = xp
	p.stage = stage
	return nil
}

// Reset clears persisted progress and returns the pet to stage 0
func (p *Progression) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset pet progress: %w", err)
	}
	p.xp = 0
	p.stage = 0
	return nil
}

// CurrentXP returns the accumulated experience
func (p *Progression) CurrentXP() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.xp
}

// CurrentStage returns the stage reached by CurrentXP
func (p *Progression) CurrentStage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// MaxStage returns the highest reachable stage
func (p *Progression) MaxStage() int {
	return MaxStage
}

// NextStageXP is the xp goal shown for the next stage. At the top stage it
// stays at the top threshold.
func (p *Progression) NextStageXP() int {
	stage := p.CurrentStage()
	return thresholds[min(stage+1, MaxStage)]
}

// Thresholds returns a copy of the per-stage xp thresholds
func (p *Progression) Thresholds() []int {
	return Thresholds()
}
