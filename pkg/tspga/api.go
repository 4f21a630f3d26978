// Package tspga runs the travelling salesman genetic algorithm end to end:
// it builds a world of cities, evolves tours, persists the outcome and
// writes run artifacts.
package tspga

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"tspga/internal/chromosome"
	"tspga/internal/evo"
	"tspga/internal/model"
	"tspga/internal/stats"
	"tspga/internal/storage"
	"tspga/internal/world"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"

	DefaultCities    = 10
	DefaultWorldSize = 100.0

	// The evolution draws from Seed+gaSeedOffset so that it does not replay
	// the stream that placed the cities.
	gaSeedOffset = 1000
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store     storage.Store
	storeKind string

	benchmarksDir string
	exportsDir    string
}

// WorldRequest describes where the cities come from. A CitiesFile wins over
// generation.
type WorldRequest struct {
	Cities      int
	WorldSize   float64
	MinDistance float64
	CitiesFile  string
	Seed        int64
}

// RunRequest configures one evolution. Every field is used as given; start
// from DefaultRunRequest for the stock parameters.
type RunRequest struct {
	WorldRequest
	RunID        string
	PoolSize     int
	Elitism      float64
	MutationRate float64
	Generations  int
	Workers      int
	MetricsFile  string
	OnGeneration func(model.GenerationDiagnostics)
}

// DefaultRunRequest returns the stock parameters of the command-line tool.
func DefaultRunRequest() RunRequest {
	cfg := evo.DefaultConfig()
	return RunRequest{
		WorldRequest: WorldRequest{
			Cities:    DefaultCities,
			WorldSize: DefaultWorldSize,
			Seed:      cfg.Seed,
		},
		PoolSize:     cfg.PoolSize,
		Elitism:      cfg.Elitism,
		MutationRate: cfg.MutationRate,
		Generations:  cfg.Generations,
		Workers:      cfg.Workers,
	}
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Cities           []orb.Point
	BestTour         []int
	BestLength       float64
	BestFitness      float64
	BaselineTour     []int
	BaselineLength   float64
	BestByGeneration []float64
	Generations      int
	EliteCount       int
	Evaluations      int
	Elapsed          time.Duration
}

type BaselineSummary struct {
	Cities []orb.Point
	Tour   []int
	Length float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Cities           int
	PoolSize         int
	Generations      int
	Seed             int64
	BestLength       float64
	BaselineLength   float64
	FinalBestFitness float64
}

// RunSelector names a run directly or asks for the most recent one.
type RunSelector struct {
	RunID  string
	Latest bool
}

type FitnessHistoryRequest struct {
	RunSelector
	Limit int
}

type DiagnosticsRequest struct {
	RunSelector
	Limit int
}

type TourItem struct {
	RunID          string
	Tour           []int
	Length         float64
	Fitness        float64
	BaselineLength float64
}

type ExportRequest struct {
	RunSelector
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type PlotRequest struct {
	RunSelector
	OutDir string
}

type PlotSummary struct {
	RunID           string
	ConvergencePath string
	TourPath        string
}

func New(opts Options) (*Client, error) {
	storeKind := storage.ResolveKind(opts.StoreKind)
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, opts.DBPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		storeKind:     storeKind,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := stats.ValidateRunID(req.RunID); err != nil {
		return RunSummary{}, err
	}
	if err := req.WorldRequest.validate(); err != nil {
		return RunSummary{}, err
	}
	cfg := evo.Config{
		PoolSize:     req.PoolSize,
		Elitism:      req.Elitism,
		MutationRate: req.MutationRate,
		Generations:  req.Generations,
		Workers:      req.Workers,
		Seed:         req.Seed + gaSeedOffset,
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	points, err := c.loadWorld(req.WorldRequest)
	if err != nil {
		return RunSummary{}, err
	}
	w := world.New(points)
	baselineLength, baselineTour, err := w.BaselineLength()
	if err != nil {
		return RunSummary{}, fmt.Errorf("baseline: %w", err)
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	started := time.Now().UTC()

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Config:       cfg,
		Cities:       w.Len(),
		Length:       func(tour chromosome.Tour) float64 { return w.TourLength(tour) },
		OnGeneration: req.OnGeneration,
	})
	if err != nil {
		return RunSummary{}, err
	}
	result, err := monitor.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	elapsed := time.Since(started)
	bestFitness := evo.ReportableFitness(result.BestFitness)

	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:             runID,
		CreatedAtUTC:   started.Format(time.RFC3339Nano),
		Cities:         w.Len(),
		WorldSize:      req.WorldSize,
		PoolSize:       cfg.PoolSize,
		Elitism:        cfg.Elitism,
		MutationRate:   cfg.MutationRate,
		Generations:    cfg.Generations,
		Seed:           req.Seed,
		Workers:        cfg.Workers,
		EliteCount:     result.EliteCount,
		Evaluations:    result.Evaluations,
		BestTour:       result.BestTour,
		BestLength:     result.BestLength,
		BestFitness:    bestFitness,
		BaselineLength: baselineLength,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.GenerationDiagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics: %w", err)
	}
	if err := c.store.SaveCities(ctx, runID, citiesFromPoints(points)); err != nil {
		return RunSummary{}, fmt.Errorf("save cities: %w", err)
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        runID,
			Cities:       w.Len(),
			WorldSize:    req.WorldSize,
			CitiesFile:   req.CitiesFile,
			WorldSeed:    req.Seed,
			PoolSize:     cfg.PoolSize,
			Elitism:      cfg.Elitism,
			MutationRate: cfg.MutationRate,
			Generations:  cfg.Generations,
			Seed:         req.Seed,
			Workers:      cfg.Workers,
			EliteCount:   result.EliteCount,
			StoreKind:    c.storeKind,
		},
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: result.GenerationDiagnostics,
		FinalBestFitness:      bestFitness,
		BestTour: stats.BestTour{
			Tour:           result.BestTour,
			Length:         result.BestLength,
			Fitness:        bestFitness,
			BaselineTour:   baselineTour,
			BaselineLength: baselineLength,
		},
		Cities: points,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		Cities:           w.Len(),
		PoolSize:         cfg.PoolSize,
		Generations:      cfg.Generations,
		Seed:             req.Seed,
		Workers:          cfg.Workers,
		EliteCount:       result.EliteCount,
		BestLength:       result.BestLength,
		BaselineLength:   baselineLength,
		FinalBestFitness: bestFitness,
		CreatedAtUTC:     record.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	metrics := stats.RunMetrics{
		RunID:          runID,
		Generations:    result.Generations,
		Evaluations:    result.Evaluations,
		BestLength:     result.BestLength,
		BestFitness:    bestFitness,
		BaselineLength: baselineLength,
	}
	if err := stats.WriteMetricsFile(filepath.Join(runDir, stats.MetricsFile), metrics); err != nil {
		return RunSummary{}, fmt.Errorf("write metrics: %w", err)
	}
	if req.MetricsFile != "" {
		if err := stats.WriteMetricsFile(req.MetricsFile, metrics); err != nil {
			return RunSummary{}, fmt.Errorf("write metrics: %w", err)
		}
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		Cities:           points,
		BestTour:         append([]int(nil), result.BestTour...),
		BestLength:       result.BestLength,
		BestFitness:      bestFitness,
		BaselineTour:     baselineTour,
		BaselineLength:   baselineLength,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		Generations:      result.Generations,
		EliteCount:       result.EliteCount,
		Evaluations:      result.Evaluations,
		Elapsed:          elapsed,
	}, nil
}

// Baseline builds the world a run with the same request would see and
// returns its nearest-neighbour tour.
func (c *Client) Baseline(_ context.Context, req WorldRequest) (BaselineSummary, error) {
	points, err := c.loadWorld(req.withDefaults())
	if err != nil {
		return BaselineSummary{}, err
	}
	length, tour, err := world.New(points).BaselineLength()
	if err != nil {
		return BaselineSummary{}, err
	}
	return BaselineSummary{Cities: points, Tour: tour, Length: length}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	items := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Cities:           e.Cities,
			PoolSize:         e.PoolSize,
			Generations:      e.Generations,
			Seed:             e.Seed,
			BestLength:       e.BestLength,
			BaselineLength:   e.BaselineLength,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return items, nil
}

// FitnessHistory reads from the store and falls back to the run artifacts,
// so runs recorded by another process stay readable with a memory store.
func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunSelector, "fitness history")
	if err != nil {
		return nil, err
	}

	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		fromDisk, found, err := stats.ReadFitnessHistory(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
		}
		history = fromDisk.BestByGeneration
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunSelector, "diagnostics")
	if err != nil {
		return nil, err
	}
	return c.diagnostics(ctx, runID, req.Limit)
}

func (c *Client) BestTour(ctx context.Context, req RunSelector) (TourItem, error) {
	runID, err := c.resolveRunID(req, "tour")
	if err != nil {
		return TourItem{}, err
	}
	return c.bestTour(ctx, runID)
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunSelector, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: exportedDir}, nil
}

// Plot renders the convergence curve and the best tour of a run. Images go to
// the run's artifact directory unless OutDir is set.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (PlotSummary, error) {
	runID, err := c.resolveRunID(req.RunSelector, "plot")
	if err != nil {
		return PlotSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Join(c.benchmarksDir, runID)
	}

	diagnostics, err := c.diagnostics(ctx, runID, 0)
	if err != nil {
		return PlotSummary{}, err
	}
	best, err := c.bestTour(ctx, runID)
	if err != nil {
		return PlotSummary{}, err
	}
	points, err := c.cities(ctx, runID)
	if err != nil {
		return PlotSummary{}, err
	}

	convergencePath := filepath.Join(outDir, stats.ConvergencePlotFile)
	if err := stats.WriteConvergencePlot(convergencePath, runID, diagnostics); err != nil {
		return PlotSummary{}, fmt.Errorf("convergence plot: %w", err)
	}
	tourPath := filepath.Join(outDir, stats.TourPlotFile)
	title := fmt.Sprintf("%s length %.2f", runID, best.Length)
	if err := stats.WriteTourPlot(tourPath, title, world.New(points), best.Tour); err != nil {
		return PlotSummary{}, fmt.Errorf("tour plot: %w", err)
	}
	return PlotSummary{RunID: runID, ConvergencePath: convergencePath, TourPath: tourPath}, nil
}

// withDefaults fills a zero city count and world size. Only Baseline uses
// it; Run takes the request as given.
func (r WorldRequest) withDefaults() WorldRequest {
	if r.Cities == 0 {
		r.Cities = DefaultCities
	}
	if r.WorldSize == 0 {
		r.WorldSize = DefaultWorldSize
	}
	return r
}

func (r WorldRequest) validate() error {
	if r.CitiesFile != "" {
		return nil
	}
	if r.Cities < 1 {
		return fmt.Errorf("%w: city count must be > 0, got %d", evo.ErrInvalidConfig, r.Cities)
	}
	if !(r.WorldSize > 0) {
		return fmt.Errorf("%w: world size must be > 0, got %v", evo.ErrInvalidConfig, r.WorldSize)
	}
	if r.MinDistance < 0 {
		return fmt.Errorf("%w: minimum distance must be >= 0, got %v", evo.ErrInvalidConfig, r.MinDistance)
	}
	return nil
}

func (c *Client) loadWorld(req WorldRequest) ([]orb.Point, error) {
	if req.CitiesFile != "" {
		return world.ReadPointsFile(req.CitiesFile)
	}
	return world.GenerateSpacedPoints(rand.New(rand.NewSource(req.Seed)), req.Cities, req.WorldSize, req.MinDistance)
}

func (c *Client) resolveRunID(sel RunSelector, what string) (string, error) {
	if sel.RunID != "" && sel.Latest {
		return "", errors.New("use either run id or latest")
	}
	if sel.Latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if sel.RunID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return sel.RunID, nil
}

func (c *Client) diagnostics(ctx context.Context, runID string, limit int) ([]model.GenerationDiagnostics, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
		}
	}
	if limit > 0 && len(diagnostics) > limit {
		diagnostics = diagnostics[:limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) bestTour(ctx context.Context, runID string) (TourItem, error) {
	if err := c.Init(ctx); err != nil {
		return TourItem{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return TourItem{}, err
	}
	item := TourItem{RunID: runID}
	if ok {
		item.Tour = run.BestTour
		item.Length = run.BestLength
		item.Fitness = run.BestFitness
		item.BaselineLength = run.BaselineLength
	} else {
		best, found, err := stats.ReadBestTour(c.benchmarksDir, runID)
		if err != nil {
			return TourItem{}, err
		}
		if !found {
			return TourItem{}, fmt.Errorf("tour not found for run id: %s", runID)
		}
		item.Tour = best.Tour
		item.Length = best.Length
		item.Fitness = best.Fitness
		item.BaselineLength = best.BaselineLength
	}
	if err := chromosome.ValidTour(item.Tour); err != nil {
		return TourItem{}, fmt.Errorf("stored tour for run %s: %w", runID, err)
	}
	return item, nil
}

func (c *Client) cities(ctx context.Context, runID string) ([]orb.Point, error) {
	cities, ok, err := c.store.GetCities(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return pointsFromCities(cities), nil
	}
	points, found, err := stats.ReadCities(c.benchmarksDir, runID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("cities not found for run id: %s", runID)
	}
	return points, nil
}

func citiesFromPoints(points []orb.Point) []model.City {
	cities := make([]model.City, len(points))
	for i, p := range points {
		cities[i] = model.City{X: p[0], Y: p[1]}
	}
	return cities
}

func pointsFromCities(cities []model.City) []orb.Point {
	points := make([]orb.Point, len(cities))
	for i, c := range cities {
		points[i] = orb.Point{c.X, c.Y}
	}
	return points
}
