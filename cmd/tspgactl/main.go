package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"tspga/internal/storage"
	"tspga/pkg/tspga"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
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
	case "run":
		return runRun(ctx, args[1:])
	case "baseline":
		return runBaseline(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "tour":
		return runTour(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	defaults := tspga.DefaultRunRequest()

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional, defaults to a random uuid)")
	cities := fs.Int("cities", defaults.Cities, "number of cities to generate")
	worldSize := fs.Float64("world-size", defaults.WorldSize, "side of the square the cities are placed in")
	minDistance := fs.Float64("min-distance", 0, "minimum distance between generated cities (0 disables)")
	citiesFile := fs.String("cities-file", "", "read cities from an x,y CSV instead of generating them")
	pool := fs.Int("pool", defaults.PoolSize, "population size")
	elitism := fs.Float64("elitism", defaults.Elitism, "fraction of the population kept as parents")
	mutationRate := fs.Float64("mutation-rate", defaults.MutationRate, "per-gene mutation probability during crossover")
	generations := fs.Int("gens", defaults.Generations, "generation count")
	seed := fs.Int64("seed", defaults.Seed, "rng seed")
	workers := fs.Int("workers", defaults.Workers, "concurrent scoring workers")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", storage.DefaultSQLitePath, "sqlite database path")
	metricsFile := fs.String("metrics-file", "", "also write Prometheus text metrics to this path")
	progress := fs.Bool("progress", false, "log per-generation progress to stderr (default: on when stderr is a terminal)")
	progressEvery := fs.Int("progress-every", 10, "log progress every N generations")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	flagValues := map[string]any{
		"run-id":        *runID,
		"cities":        *cities,
		"world-size":    *worldSize,
		"min-distance":  *minDistance,
		"cities-file":   *citiesFile,
		"pool":          *pool,
		"elitism":       *elitism,
		"mutation-rate": *mutationRate,
		"gens":          *generations,
		"seed":          *seed,
		"workers":       *workers,
		"metrics-file":  *metricsFile,
	}
	var req tspga.RunRequest
	if *configPath == "" {
		req = defaults
		setAll := make(map[string]bool, len(flagValues))
		for name := range flagValues {
			setAll[name] = true
		}
		if err := overrideFromFlags(&req, setAll, flagValues); err != nil {
			return err
		}
	} else {
		loaded, err := loadOrDefaultRunRequest(*configPath)
		if err != nil {
			return err
		}
		req = loaded
		if err := overrideFromFlags(&req, setFlags, flagValues); err != nil {
			return err
		}
	}

	if reportProgress(setFlags["progress"], *progress) {
		req.OnGeneration = progressCallback(newProgressLogger(os.Stderr), req.Generations, *progressEvery)
	}

	client, err := tspga.New(tspga.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(struct {
			RunID          string  `json:"run_id"`
			BestTour       []int   `json:"best_tour"`
			BestLength     float64 `json:"best_length"`
			BestFitness    float64 `json:"best_fitness"`
			BaselineLength float64 `json:"baseline_length"`
			Evaluations    int     `json:"evaluations"`
			ArtifactsDir   string  `json:"artifacts_dir"`
		}{
			RunID:          summary.RunID,
			BestTour:       summary.BestTour,
			BestLength:     summary.BestLength,
			BestFitness:    summary.BestFitness,
			BaselineLength: summary.BaselineLength,
			Evaluations:    summary.Evaluations,
			ArtifactsDir:   summary.ArtifactsDir,
		})
	}

	fmt.Printf("run completed run_id=%s cities=%d pool=%d elite=%d gens=%d seed=%d\n",
		summary.RunID, len(summary.Cities), req.PoolSize, summary.EliteCount, summary.Generations, req.Seed)
	fmt.Printf("best_tour=%v\n", summary.BestTour)
	fmt.Printf("best_length=%.4f best_fitness=%.6g\n", summary.BestLength, summary.BestFitness)
	fmt.Printf("baseline_length=%.4f (nearest neighbour)\n", summary.BaselineLength)
	fmt.Printf("evaluations=%s elapsed=%s\n", humanize.Comma(int64(summary.Evaluations)), summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runBaseline(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("baseline", flag.ContinueOnError)
	cities := fs.Int("cities", tspga.DefaultCities, "number of cities to generate")
	worldSize := fs.Float64("world-size", tspga.DefaultWorldSize, "side of the square the cities are placed in")
	minDistance := fs.Float64("min-distance", 0, "minimum distance between generated cities (0 disables)")
	citiesFile := fs.String("cities-file", "", "read cities from an x,y CSV instead of generating them")
	seed := fs.Int64("seed", tspga.DefaultRunRequest().Seed, "rng seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := tspga.New(tspga.Options{StoreKind: storage.KindMemory, BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	baseline, err := client.Baseline(ctx, tspga.WorldRequest{
		Cities:      *cities,
		WorldSize:   *worldSize,
		MinDistance: *minDistance,
		CitiesFile:  *citiesFile,
		Seed:        *seed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("baseline_tour=%v\n", baseline.Tour)
	fmt.Printf("baseline_length=%.4f cities=%d\n", baseline.Length, len(baseline.Cities))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := tspga.New(tspga.Options{StoreKind: storage.KindMemory, BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, tspga.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string  `json:"run_id"`
			CreatedAtUTC     string  `json:"created_at_utc"`
			Cities           int     `json:"cities"`
			PoolSize         int     `json:"pool_size"`
			Generations      int     `json:"generations"`
			Seed             int64   `json:"seed"`
			BestLength       float64 `json:"best_length"`
			BaselineLength   float64 `json:"baseline_length"`
			FinalBestFitness float64 `json:"final_best_fitness"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem(item))
		}
		return writeJSON(out)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created=%s cities=%d pool=%d gens=%d seed=%d best_length=%.4f baseline_length=%.4f\n",
			item.RunID,
			createdAgo(item.CreatedAtUTC),
			item.Cities,
			item.PoolSize,
			item.Generations,
			item.Seed,
			item.BestLength,
			item.BaselineLength,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	sel := runSelectorFlags(fs)
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("fitness"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := sel.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, tspga.FitnessHistoryRequest{RunSelector: sel.selector(), Limit: *limit})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return writeJSON(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6g\n", i, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	sel := runSelectorFlags(fs)
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("diagnostics"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := sel.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, tspga.DiagnosticsRequest{RunSelector: sel.selector(), Limit: *limit})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d best_length=%.4f mean_length=%.4f worst_length=%.4f std_dev=%.4f distinct=%d\n",
			d.Generation,
			d.BestLength,
			d.MeanLength,
			d.WorstLength,
			d.LengthStdDev,
			d.DistinctTours,
		)
	}
	return nil
}

func runTour(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tour", flag.ContinueOnError)
	sel := runSelectorFlags(fs)
	jsonOut := fs.Bool("json", false, "emit the tour as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("tour"); err != nil {
		return err
	}

	client, err := sel.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	tour, err := client.BestTour(ctx, sel.selector())
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(struct {
			RunID          string  `json:"run_id"`
			Tour           []int   `json:"tour"`
			Length         float64 `json:"length"`
			Fitness        float64 `json:"fitness"`
			BaselineLength float64 `json:"baseline_length"`
		}{tour.RunID, tour.Tour, tour.Length, tour.Fitness, tour.BaselineLength})
	}

	fmt.Printf("run_id=%s tour=%v\n", tour.RunID, tour.Tour)
	fmt.Printf("length=%.4f fitness=%.6g baseline_length=%.4f\n", tour.Length, tour.Fitness, tour.BaselineLength)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sel := &runSelection{runID: runID, latest: latest}
	if err := sel.validate("export"); err != nil {
		return err
	}

	client, err := tspga.New(tspga.Options{StoreKind: storage.KindMemory, BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, tspga.ExportRequest{RunSelector: sel.selector(), OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, filepath.Clean(exported.Directory))
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	sel := runSelectorFlags(fs)
	outDir := fs.String("out", "", "plot output directory (default: the run's artifact directory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := sel.validate("plot"); err != nil {
		return err
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return err
		}
	}

	client, err := sel.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	plots, err := client.Plot(ctx, tspga.PlotRequest{RunSelector: sel.selector(), OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("plotted run_id=%s convergence=%s tour=%s\n", plots.RunID, filepath.Clean(plots.ConvergencePath), filepath.Clean(plots.TourPath))
	return nil
}

// runSelection holds the flags shared by commands that read one stored run.
type runSelection struct {
	runID     *string
	latest    *bool
	storeKind *string
	dbPath    *string
}

func runSelectorFlags(fs *flag.FlagSet) *runSelection {
	return &runSelection{
		runID:     fs.String("run-id", "", "run id"),
		latest:    fs.Bool("latest", false, "use the most recent run from run index"),
		storeKind: fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", storage.DefaultSQLitePath, "sqlite database path"),
	}
}

func (s *runSelection) validate(command string) error {
	if *s.runID != "" && *s.latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *s.runID == "" && !*s.latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func (s *runSelection) selector() tspga.RunSelector {
	return tspga.RunSelector{RunID: *s.runID, Latest: *s.latest}
}

func (s *runSelection) client() (*tspga.Client, error) {
	return tspga.New(tspga.Options{
		StoreKind:     *s.storeKind,
		DBPath:        *s.dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
}

func createdAgo(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(created)
}

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tspgactl <run|baseline|runs|fitness|diagnostics|tour|export|plot> [flags]", msg)
}
