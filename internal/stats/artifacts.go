package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"tspga/internal/model"
	"tspga/internal/world"
)

const runIndexFile = "run_index.json"

const (
	configFile      = "config.json"
	historyFile     = "fitness_history.json"
	diagnosticsFile = "generation_diagnostics.json"
	bestTourFile    = "best_tour.json"
	citiesFile      = "cities.csv"

	ConvergencePlotFile = "convergence.png"
	TourPlotFile        = "tour.png"
	MetricsFile         = "metrics.prom"
)

type RunConfig struct {
	RunID        string  `json:"run_id"`
	Cities       int     `json:"cities"`
	WorldSize    float64 `json:"world_size"`
	CitiesFile   string  `json:"cities_file,omitempty"`
	WorldSeed    int64   `json:"world_seed"`
	PoolSize     int     `json:"pool_size"`
	Elitism      float64 `json:"elitism"`
	MutationRate float64 `json:"mutation_rate"`
	Generations  int     `json:"generations"`
	Seed         int64   `json:"seed"`
	Workers      int     `json:"workers"`
	EliteCount   int     `json:"elite_count"`
	StoreKind    string  `json:"store_kind,omitempty"`
}

type BestTour struct {
	Tour           []int   `json:"tour"`
	Length         float64 `json:"length"`
	Fitness        float64 `json:"fitness"`
	BaselineTour   []int   `json:"baseline_tour,omitempty"`
	BaselineLength float64 `json:"baseline_length,omitempty"`
}

type FitnessHistory struct {
	BestByGeneration []float64 `json:"best_by_generation"`
	FinalBestFitness float64   `json:"final_best_fitness"`
}

type RunArtifacts struct {
	Config                RunConfig
	BestByGeneration      []float64
	GenerationDiagnostics []model.GenerationDiagnostics
	FinalBestFitness      float64
	BestTour              BestTour
	Cities                []orb.Point
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Cities           int     `json:"cities"`
	PoolSize         int     `json:"pool_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	EliteCount       int     `json:"elite_count"`
	BestLength       float64 `json:"best_length"`
	BaselineLength   float64 `json:"baseline_length"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// ValidateRunID rejects ids that would resolve outside the directory they
// are joined to. An empty id passes; callers that need one check for it.
func ValidateRunID(runID string) error {
	if runID == "" {
		return nil
	}
	if runID == "." || strings.Contains(runID, "..") || strings.ContainsAny(runID, `/\`) || filepath.IsAbs(runID) {
		return fmt.Errorf("invalid run id %q: must not contain path separators or ..", runID)
	}
	return nil
}

func runDirectory(baseDir, runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if err := ValidateRunID(runID); err != nil {
		return "", err
	}
	return filepath.Join(baseDir, runID), nil
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runDir, err := runDirectory(baseDir, strings.TrimSpace(artifacts.Config.RunID))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	history := FitnessHistory{BestByGeneration: artifacts.BestByGeneration, FinalBestFitness: artifacts.FinalBestFitness}
	if err := writeJSON(filepath.Join(runDir, historyFile), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, bestTourFile), artifacts.BestTour); err != nil {
		return "", err
	}
	if err := world.WritePointsFile(filepath.Join(runDir, citiesFile), artifacts.Cities); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	ok, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RunIndexEntry{}, nil
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory to outDir/<runID>. Plots and
// metrics are copied when present.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	src, err := runDirectory(baseDir, runID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, historyFile, diagnosticsFile, bestTourFile, citiesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{ConvergencePlotFile, TourPlotFile, MetricsFile} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, file)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	runDir, err := runDirectory(baseDir, runID)
	if err != nil {
		return cfg, false, err
	}
	ok, err := readJSON(filepath.Join(runDir, configFile), &cfg)
	return cfg, ok, err
}

func ReadFitnessHistory(baseDir, runID string) (FitnessHistory, bool, error) {
	var history FitnessHistory
	runDir, err := runDirectory(baseDir, runID)
	if err != nil {
		return history, false, err
	}
	ok, err := readJSON(filepath.Join(runDir, historyFile), &history)
	return history, ok, err
}

func ReadGenerationDiagnostics(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	var diagnostics []model.GenerationDiagnostics
	runDir, err := runDirectory(baseDir, runID)
	if err != nil {
		return diagnostics, false, err
	}
	ok, err := readJSON(filepath.Join(runDir, diagnosticsFile), &diagnostics)
	return diagnostics, ok, err
}

func ReadBestTour(baseDir, runID string) (BestTour, bool, error) {
	var best BestTour
	runDir, err := runDirectory(baseDir, runID)
	if err != nil {
		return best, false, err
	}
	ok, err := readJSON(filepath.Join(runDir, bestTourFile), &best)
	return best, ok, err
}

func ReadCities(baseDir, runID string) ([]orb.Point, bool, error) {
	runDir, err := runDirectory(baseDir, runID)
	if err != nil {
		return nil, false, err
	}
	points, err := world.ReadPointsFile(filepath.Join(runDir, citiesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return points, true, nil
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
