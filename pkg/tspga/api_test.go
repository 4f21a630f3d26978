package tspga

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"tspga/internal/chromosome"
	"tspga/internal/evo"
	"tspga/internal/model"
	"tspga/internal/stats"
	"tspga/internal/storage"
	"tspga/internal/world"
)

func newTestClient(t *testing.T, benchmarksDir string) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:     "memory",
		BenchmarksDir: benchmarksDir,
		ExportsDir:    filepath.Join(filepath.Dir(benchmarksDir), "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func smallRunRequest(runID string) RunRequest {
	req := DefaultRunRequest()
	req.RunID = runID
	req.Cities = 8
	req.PoolSize = 20
	req.Generations = 10
	req.Seed = 7
	return req
}

func TestClientRunRunsAndExport(t *testing.T) {
	base := t.TempDir()
	benchmarksDir := filepath.Join(base, "benchmarks")
	client := newTestClient(t, benchmarksDir)
	ctx := context.Background()

	var seen []model.GenerationDiagnostics
	req := smallRunRequest("")
	req.OnGeneration = func(d model.GenerationDiagnostics) {
		seen = append(seen, d)
	}
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected generated run id")
	}
	if len(summary.BestByGeneration) != req.Generations+1 {
		t.Fatalf("unexpected generation history length: %d", len(summary.BestByGeneration))
	}
	if len(seen) != req.Generations+1 {
		t.Fatalf("expected %d progress callbacks, got %d", req.Generations+1, len(seen))
	}
	if err := chromosome.ValidTour(summary.BestTour); err != nil || len(summary.BestTour) != req.Cities {
		t.Fatalf("invalid best tour %v: %v", summary.BestTour, err)
	}
	if got := world.New(summary.Cities).TourLength(summary.BestTour); got != summary.BestLength {
		t.Fatalf("best length %v does not match tour length %v", summary.BestLength, got)
	}
	if summary.BaselineLength <= 0 || len(summary.BaselineTour) != req.Cities {
		t.Fatalf("unexpected baseline: %v %v", summary.BaselineLength, summary.BaselineTour)
	}
	wantEvaluations := req.PoolSize + req.Generations*(req.PoolSize-summary.EliteCount)
	if summary.Evaluations != wantEvaluations {
		t.Fatalf("expected %d evaluations, got %d", wantEvaluations, summary.Evaluations)
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "metrics.prom")); err != nil {
		t.Fatalf("expected run metrics: %v", err)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID || runs[0].BestLength != summary.BestLength {
		t.Fatalf("expected run %s in runs list: %+v", summary.RunID, runs)
	}

	exported, err := client.Export(ctx, ExportRequest{RunSelector: RunSelector{Latest: true}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("expected export of %s, got %s", summary.RunID, exported.RunID)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, "best_tour.json")); err != nil {
		t.Fatalf("expected exported best tour: %v", err)
	}
}

func TestClientRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	first, err := newTestClient(t, filepath.Join(t.TempDir(), "benchmarks")).Run(ctx, smallRunRequest("a"))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	req := smallRunRequest("b")
	req.Workers = 4
	second, err := newTestClient(t, filepath.Join(t.TempDir(), "benchmarks")).Run(ctx, req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.BestByGeneration, second.BestByGeneration) {
		t.Fatalf("fitness histories differ:\n%v\n%v", first.BestByGeneration, second.BestByGeneration)
	}
	if !reflect.DeepEqual(first.BestTour, second.BestTour) {
		t.Fatalf("best tours differ: %v vs %v", first.BestTour, second.BestTour)
	}
}

func TestClientHistoryDiagnosticsAndTour(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, filepath.Join(t.TempDir(), "benchmarks"))
	summary, err := client.Run(ctx, smallRunRequest("run-history"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunSelector: RunSelector{RunID: "run-history"}})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if !reflect.DeepEqual(history, summary.BestByGeneration) {
		t.Fatalf("unexpected history: %v", history)
	}
	for i := 1; i < len(history); i++ {
		if history[i] < history[i-1] {
			t.Fatalf("best fitness decreased at generation %d: %v", i, history)
		}
	}

	limited, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunSelector: RunSelector{Latest: true}, Limit: 3})
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(limited))
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunSelector: RunSelector{Latest: true}})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(diagnostics) != len(history) || diagnostics[0].Generation != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	tour, err := client.BestTour(ctx, RunSelector{RunID: "run-history"})
	if err != nil {
		t.Fatalf("best tour: %v", err)
	}
	if !reflect.DeepEqual(tour.Tour, summary.BestTour) || tour.Length != summary.BestLength {
		t.Fatalf("unexpected tour item: %+v", tour)
	}
}

func TestClientReadsArtifactsWhenStoreIsEmpty(t *testing.T) {
	ctx := context.Background()
	benchmarksDir := filepath.Join(t.TempDir(), "benchmarks")
	summary, err := newTestClient(t, benchmarksDir).Run(ctx, smallRunRequest("run-disk"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	fresh := newTestClient(t, benchmarksDir)
	history, err := fresh.FitnessHistory(ctx, FitnessHistoryRequest{RunSelector: RunSelector{Latest: true}})
	if err != nil {
		t.Fatalf("fitness history from artifacts: %v", err)
	}
	if !reflect.DeepEqual(history, summary.BestByGeneration) {
		t.Fatalf("unexpected history: %v", history)
	}
	tour, err := fresh.BestTour(ctx, RunSelector{RunID: "run-disk"})
	if err != nil {
		t.Fatalf("best tour from artifacts: %v", err)
	}
	if !reflect.DeepEqual(tour.Tour, summary.BestTour) {
		t.Fatalf("unexpected tour: %v", tour.Tour)
	}

	plots, err := fresh.Plot(ctx, PlotRequest{RunSelector: RunSelector{RunID: "run-disk"}})
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	for _, path := range []string{plots.ConvergencePath, plots.TourPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected plot %s: %v", path, err)
		}
	}
}

func TestClientRunFromCitiesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.csv")
	square := []orb.Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	if err := world.WritePointsFile(path, square); err != nil {
		t.Fatalf("write cities: %v", err)
	}

	req := smallRunRequest("run-file")
	req.CitiesFile = path
	summary, err := newTestClient(t, filepath.Join(dir, "benchmarks")).Run(ctx, req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.BestTour) != 4 {
		t.Fatalf("expected four-city tour, got %v", summary.BestTour)
	}
	if summary.BestLength != 40 || summary.BaselineLength != 40 {
		t.Fatalf("expected perimeter tours, got best=%v baseline=%v", summary.BestLength, summary.BaselineLength)
	}
}

func TestClientRunWritesRequestedMetricsFile(t *testing.T) {
	dir := t.TempDir()
	req := smallRunRequest("run-metrics")
	req.MetricsFile = filepath.Join(dir, "tspga.prom")
	if _, err := newTestClient(t, filepath.Join(dir, "benchmarks")).Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(req.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `run_id="run-metrics"`) {
		t.Fatalf("metrics file missing run label:\n%s", data)
	}
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*RunRequest){
		"elitism above one": func(r *RunRequest) { r.Elitism = 1.5 },
		"zero pool size":    func(r *RunRequest) { r.PoolSize = 0 },
		"zero cities":       func(r *RunRequest) { r.Cities = 0 },
		"zero world size":   func(r *RunRequest) { r.WorldSize = 0 },
		"zero pool and cities": func(r *RunRequest) {
			r.PoolSize = 0
			r.Cities = 0
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			benchmarksDir := filepath.Join(t.TempDir(), "benchmarks")
			req := smallRunRequest("bad")
			mutate(&req)
			_, err := newTestClient(t, benchmarksDir).Run(context.Background(), req)
			if !errors.Is(err, evo.ErrInvalidConfig) {
				t.Fatalf("expected invalid config error, got %v", err)
			}
			if _, err := os.Stat(benchmarksDir); !os.IsNotExist(err) {
				t.Fatalf("rejected run wrote artifacts, stat err=%v", err)
			}
		})
	}
}

func TestClientRunRejectsPathRunID(t *testing.T) {
	base := t.TempDir()
	client := newTestClient(t, filepath.Join(base, "benchmarks"))
	for _, id := range []string{"../escape", "a/b", ".."} {
		if _, err := client.Run(context.Background(), smallRunRequest(id)); err == nil {
			t.Fatalf("expected error for run id %q", id)
		}
	}
	if _, err := os.Stat(filepath.Join(base, "escape")); !os.IsNotExist(err) {
		t.Fatalf("run id escaped the benchmarks directory, stat err=%v", err)
	}
}

func TestClientRunRecordsStoreKind(t *testing.T) {
	benchmarksDir := filepath.Join(t.TempDir(), "benchmarks")
	client := newTestClient(t, benchmarksDir)
	if _, err := client.Run(context.Background(), smallRunRequest("run-store-kind")); err != nil {
		t.Fatalf("run: %v", err)
	}
	cfg, ok, err := stats.ReadRunConfig(benchmarksDir, "run-store-kind")
	if err != nil || !ok {
		t.Fatalf("read run config ok=%v err=%v", ok, err)
	}
	if cfg.StoreKind != storage.KindMemory {
		t.Fatalf("store kind = %q, want %q", cfg.StoreKind, storage.KindMemory)
	}
}

func TestClientBaselineDefaultsZeroWorld(t *testing.T) {
	client := newTestClient(t, filepath.Join(t.TempDir(), "benchmarks"))
	baseline, err := client.Baseline(context.Background(), WorldRequest{Seed: 3})
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if len(baseline.Cities) != DefaultCities {
		t.Fatalf("baseline cities = %d, want %d", len(baseline.Cities), DefaultCities)
	}
}

func TestClientBaselineMatchesRunWorld(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, filepath.Join(t.TempDir(), "benchmarks"))
	req := smallRunRequest("run-baseline")

	baseline, err := client.Baseline(ctx, req.WorldRequest)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	summary, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(baseline.Cities, summary.Cities) {
		t.Fatal("baseline and run should see the same cities")
	}
	if baseline.Length != summary.BaselineLength {
		t.Fatalf("baseline length %v != run baseline %v", baseline.Length, summary.BaselineLength)
	}
}

func TestClientRunSelectorErrors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, filepath.Join(t.TempDir(), "benchmarks"))

	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunSelector: RunSelector{RunID: "x", Latest: true}}); err == nil {
		t.Fatal("expected error for run id with latest")
	}
	if _, err := client.Diagnostics(ctx, DiagnosticsRequest{}); err == nil {
		t.Fatal("expected error without run id")
	}
	if _, err := client.BestTour(ctx, RunSelector{Latest: true}); err == nil {
		t.Fatal("expected error with no runs")
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunSelector: RunSelector{RunID: "missing"}}); err == nil {
		t.Fatal("expected error for unknown run")
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunSelector: RunSelector{RunID: "x"}, Limit: -1}); err == nil {
		t.Fatal("expected error for negative limit")
	}
}
