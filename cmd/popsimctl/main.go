package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"popsim/internal/pop"
	"popsim/internal/vsp"
	popapi "popsim/pkg/popsim"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "seed":
		return runSeed(ctx, args[1:])
	case "vsps":
		return runVSPs(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	sizes := fs.String("sizes", "100", "comma-separated subpopulation sizes")
	loci := fs.Int("loci", 1, "number of loci")
	alleles := fs.Int("alleles", 2, "number of allele states per locus")
	seed := fs.Int64("seed", 0, "random seed")
	id := fs.String("id", "", "snapshot id (minted when empty)")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "popsim.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *loci <= 0 {
		return errors.New("loci must be > 0")
	}
	if *alleles <= 0 {
		return errors.New("alleles must be > 0")
	}

	subPopSizes, err := parseSizes(*sizes)
	if err != nil {
		return err
	}

	p, err := pop.NewMemPop(subPopSizes, *loci, 2)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(*seed))
	for sp := 0; sp < p.NumSubPops(); sp++ {
		for i := 0; i < p.SubPopSize(sp); i++ {
			ind := p.MemInd(sp, i)
			if rng.Intn(2) == 0 {
				ind.SetSex(pop.Male)
			} else {
				ind.SetSex(pop.Female)
			}
			ind.SetAffected(rng.Intn(10) == 0)
			for locus := 0; locus < *loci; locus++ {
				for c := 0; c < 2; c++ {
					ind.SetAllele(locus, c, rng.Intn(*alleles))
				}
			}
		}
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	saved, err := client.SaveSnapshot(ctx, p, *id)
	if err != nil {
		return err
	}
	fmt.Println(saved)
	return nil
}

func runVSPs(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("vsps", flag.ContinueOnError)
	splitterSpec := fs.String("splitter", "sex", "splitter spec, e.g. sex, affection, proportion=0.4,0.6, range=0:50,50:100")
	jsonOut := fs.Bool("json", false, "emit names as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	splitter, err := parseSplitter(*splitterSpec)
	if err != nil {
		return err
	}
	names := make([]string, splitter.NumVirtualSubPops())
	for i := range names {
		name, err := splitter.VSPName(i)
		if err != nil {
			return err
		}
		names[i] = name
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(names)
	}
	for i, name := range names {
		fmt.Printf("%d\t%s\n", i, name)
	}
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	snapshotID := fs.String("snapshot", "", "population snapshot id")
	splitterSpec := fs.String("splitter", "", "splitter spec (required for virtual targets)")
	selectorSpec := fs.String("selector", "", "selector spec, e.g. ma=1,0.9,0.8 or map=0-0:1,0-1:0.9,1-1:0.8")
	lociSpec := fs.String("loci", "0", "comma-separated loci the selector reads")
	subPop := fs.Int("sp", 0, "target subpopulation")
	virtual := fs.Int("vsp", -1, "target virtual subpopulation (-1 for the whole subpopulation)")
	gen := fs.Int("gen", 0, "generation passed to the fitness model")
	runID := fs.String("run-id", "", "run id (minted when empty)")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "popsim.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *snapshotID == "" {
		return errors.New("run requires --snapshot")
	}
	if *selectorSpec == "" {
		return errors.New("run requires --selector")
	}

	loci, err := parseSizes(*lociSpec)
	if err != nil {
		return err
	}
	sel, err := parseSelector(*selectorSpec, loci)
	if err != nil {
		return err
	}
	var splitter vsp.Splitter
	if *splitterSpec != "" {
		if splitter, err = parseSplitter(*splitterSpec); err != nil {
			return err
		}
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	p, err := client.LoadPopulation(ctx, *snapshotID)
	if err != nil {
		return err
	}

	summary, err := client.RunScoped(ctx, p, splitter, sel, popapi.RunRequest{
		RunID:      *runID,
		Scope:      vsp.NewSelection(vsp.NewID(*subPop, *virtual)),
		Generation: *gen,
		Persist:    true,
	})
	if err != nil {
		return err
	}

	for _, target := range summary.Targets {
		fmt.Printf("%s\tevaluated %d\n", target.Target, target.Visible)
	}
	fmt.Println(summary.RunID)
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit fitness series as JSON")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "popsim.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("fitness requires --run-id")
	}

	client, err := newClient(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	series, err := client.FitnessSeries(ctx, *runID)
	if err != nil {
		return err
	}

	if *jsonOut {
		return json.NewEncoder(os.Stdout).Encode(series)
	}
	for _, item := range series {
		fmt.Printf("gen %d sp %d vsp %d %s: %v\n",
			item.Generation, item.SubPop, item.VirtualSub, item.Field, item.Values)
	}
	return nil
}

func newClient(ctx context.Context, storeKind, dbPath string) (*popapi.Client, error) {
	return popapi.New(ctx, popapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: popsimctl <seed|vsps|run|fitness> [flags]", msg)
}
