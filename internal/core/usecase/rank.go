package usecase

import (
	"context"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

// PriorityRankerUseCase is the derived urgency view. Pure read model: the
// ordering is computed by the persistence layer on every call, never
// materialized as a second source of truth.
type PriorityRankerUseCase struct {
	view ports.PriorityView
}

func NewPriorityRankerUseCase(view ports.PriorityView) *PriorityRankerUseCase {
	return &PriorityRankerUseCase{view: view}
}

func (uc *PriorityRankerUseCase) Rank(ctx context.Context) ([]domain.DocumentSummary, error) {
	summaries, err := uc.view.Rank(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank documents: %w", err)
	}
	return summaries, nil
}
