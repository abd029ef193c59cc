// Package popsim is the embedding surface of the virtual-subpopulation and
// fitness evaluation engines. Drivers build a population view, a splitter
// and a selector, then run scoped evaluation passes whose results external
// mating logic consumes.
package popsim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"popsim/internal/fitness"
	"popsim/internal/model"
	"popsim/internal/pop"
	"popsim/internal/storage"
	"popsim/internal/vsp"
)

type Options struct {
	// StoreKind selects the persistence backend: "memory" (default) or
	// "sqlite".
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store storage.Store
	log   *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{store: store, log: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// SaveSnapshot persists the population. A fresh ID is minted when none is
// given; the used ID is returned.
func (c *Client) SaveSnapshot(ctx context.Context, p pop.Population, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	snap := pop.Snapshot(p, id)
	snap.VersionedRecord = storage.Stamp()
	if err := c.store.SaveSnapshot(ctx, snap); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", id, err)
	}
	c.log.Debug("saved population snapshot", "id", id, "sub_pops", len(snap.SubPopSizes), "individuals", len(snap.Individuals))
	return id, nil
}

// LoadPopulation rebuilds a previously saved population.
func (c *Client) LoadPopulation(ctx context.Context, id string) (*pop.MemPop, error) {
	snap, ok, err := c.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("population snapshot not found: %s", id)
	}
	return pop.FromSnapshot(snap)
}

// ListVSPs returns the names of every virtual subpopulation the splitter
// defines, in index order.
func (c *Client) ListVSPs(s vsp.Splitter) ([]string, error) {
	names := make([]string, s.NumVirtualSubPops())
	for i := range names {
		name, err := s.VSPName(i)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// RunRequest configures one scoped evaluation pass.
type RunRequest struct {
	// RunID identifies the pass in persisted fitness series; minted when
	// empty.
	RunID string
	// Scope lists the evaluation targets.
	Scope vsp.Selection
	// Generation is passed through to time-varying fitness models.
	Generation int
	// Persist stores the written fitness values as one series per target.
	Persist bool
}

type TargetResult struct {
	Target  vsp.ID
	Visible int
}

type RunSummary struct {
	RunID   string
	Targets []TargetResult
}

// RunScoped drives one evaluation pass: for each target in scope it
// activates the virtual subpopulation (plain subpopulations skip
// activation), applies the selector over the visible individuals of that
// subpopulation, then deactivates. The first error aborts the run; fitness
// values already written remain.
func (c *Client) RunScoped(ctx context.Context, p pop.Population, splitter vsp.Splitter,
	sel fitness.Selector, req RunRequest) (RunSummary, error) {

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	summary := RunSummary{RunID: runID}
	started := time.Now()

	var series []model.FitnessSeries
	for _, target := range req.Scope.Expand(p) {
		if !target.Valid() {
			return summary, fmt.Errorf("run %s: invalid target %s", runID, target)
		}
		scoped := sel.Scoped(target.SubPop())

		if target.IsVirtual() {
			if splitter == nil {
				return summary, fmt.Errorf("run %s: target %s is virtual but no splitter was given", runID, target)
			}
			if err := splitter.Activate(p, target.SubPop(), target.Virtual()); err != nil {
				return summary, fmt.Errorf("run %s: activate %s: %w", runID, target, err)
			}
		}

		visible := countVisible(p, target.SubPop())
		applyErr := scoped.Apply(ctx, p, req.Generation)

		if target.IsVirtual() {
			if err := splitter.Deactivate(p, target.SubPop()); err != nil && applyErr == nil {
				applyErr = err
			}
		}
		if applyErr != nil {
			return summary, fmt.Errorf("run %s: target %s: %w", runID, target, applyErr)
		}

		summary.Targets = append(summary.Targets, TargetResult{Target: target, Visible: visible})
		if req.Persist {
			values, err := fitnessValues(p, splitter, target, scoped.OutputField())
			if err != nil {
				return summary, fmt.Errorf("run %s: collect %s: %w", runID, target, err)
			}
			series = append(series, model.FitnessSeries{
				VersionedRecord: storage.Stamp(),
				RunID:           runID,
				Generation:      req.Generation,
				Field:           scoped.OutputField(),
				SubPop:          target.SubPop(),
				VirtualSub:      target.Virtual(),
				Values:          values,
			})
		}
	}

	if req.Persist {
		if err := c.store.SaveFitnessSeries(ctx, runID, series); err != nil {
			return summary, fmt.Errorf("run %s: save fitness series: %w", runID, err)
		}
	}
	c.log.Info("scoped fitness run finished",
		"run_id", runID, "targets", len(summary.Targets), "elapsed", time.Since(started))
	return summary, nil
}

// FitnessSeries returns the persisted series of a run.
func (c *Client) FitnessSeries(ctx context.Context, runID string) ([]model.FitnessSeries, error) {
	series, ok, err := c.store.GetFitnessSeries(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness series for run %s", runID)
	}
	return series, nil
}

func countVisible(p pop.Population, subPop int) int {
	count := 0
	size := p.SubPopSize(subPop)
	for i := 0; i < size; i++ {
		if p.Ind(subPop, i).Visible() {
			count++
		}
	}
	return count
}

// fitnessValues reads back the field just written, in storage order, for the
// individuals the target covers.
func fitnessValues(p pop.Population, splitter vsp.Splitter, target vsp.ID, field string) ([]float64, error) {
	var indices []int
	if target.IsVirtual() {
		members, err := vsp.Members(splitter, p, target.SubPop(), target.Virtual())
		if err != nil {
			return nil, err
		}
		indices = members
	} else {
		size := p.SubPopSize(target.SubPop())
		for i := 0; i < size; i++ {
			indices = append(indices, i)
		}
	}
	values := make([]float64, 0, len(indices))
	for _, i := range indices {
		value, err := p.Ind(target.SubPop(), i).Info(field)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}
