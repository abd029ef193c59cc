package storage

import (
	"context"

	"popsim/internal/model"
)

// Store persists population snapshots and the fitness series produced by
// selector runs.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snap model.PopulationSnapshot) error
	GetSnapshot(ctx context.Context, id string) (model.PopulationSnapshot, bool, error)
	DeleteSnapshot(ctx context.Context, id string) error
	SaveFitnessSeries(ctx context.Context, runID string, series []model.FitnessSeries) error
	GetFitnessSeries(ctx context.Context, runID string) ([]model.FitnessSeries, bool, error)
}
