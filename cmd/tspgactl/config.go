package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"tspga/pkg/tspga"
)

// loadRunRequestFromConfig reads a JSON object of run parameters. Keys that
// are absent keep the default values.
func loadRunRequestFromConfig(path string) (tspga.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tspga.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return tspga.RunRequest{}, err
	}

	req := tspga.DefaultRunRequest()
	intFields := []struct {
		key string
		dst *int
	}{
		{"cities", &req.Cities},
		{"pool_size", &req.PoolSize},
		{"generations", &req.Generations},
		{"workers", &req.Workers},
	}
	for _, field := range intFields {
		v, ok, err := asInt(raw[field.key])
		if err != nil {
			return tspga.RunRequest{}, fmt.Errorf("%s: %w", field.key, err)
		}
		if ok {
			*field.dst = v
		}
	}
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asFloat64(raw["world_size"]); ok {
		req.WorldSize = v
	}
	if v, ok := asFloat64(raw["min_distance"]); ok {
		req.MinDistance = v
	}
	if v, ok := asString(raw["cities_file"]); ok {
		req.CitiesFile = v
	}
	if v, ok := asFloat64(raw["elitism"]); ok {
		req.Elitism = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	seed, ok, err := asInt64(raw["seed"])
	if err != nil {
		return tspga.RunRequest{}, fmt.Errorf("seed: %w", err)
	}
	if ok {
		req.Seed = seed
	}
	if v, ok := asString(raw["metrics_file"]); ok {
		req.MetricsFile = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asInt64 accepts whole JSON numbers only. A missing or null value reports
// ok=false; fractions, out of range values and non-numbers are errors.
func asInt64(v any) (int64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case int:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case float64:
		if math.Trunc(x) != x {
			return 0, false, fmt.Errorf("%v is not a whole number", x)
		}
		if x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false, fmt.Errorf("%v is out of range", x)
		}
		return int64(x), true, nil
	default:
		return 0, false, fmt.Errorf("expected a number, got %T", v)
	}
}

func asInt(v any) (int, bool, error) {
	n, ok, err := asInt64(v)
	if err != nil || !ok {
		return 0, ok, err
	}
	if n < math.MinInt || n > math.MaxInt {
		return 0, false, fmt.Errorf("%d is out of range", n)
	}
	return int(n), true, nil
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(req *tspga.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "cities":
			req.Cities = v.(int)
		case "world-size":
			req.WorldSize = v.(float64)
		case "min-distance":
			req.MinDistance = v.(float64)
		case "cities-file":
			req.CitiesFile = v.(string)
		case "pool":
			req.PoolSize = v.(int)
		case "elitism":
			req.Elitism = v.(float64)
		case "mutation-rate":
			req.MutationRate = v.(float64)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "metrics-file":
			req.MetricsFile = v.(string)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

func loadOrDefaultRunRequest(configPath string) (tspga.RunRequest, error) {
	if configPath == "" {
		return tspga.DefaultRunRequest(), nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return tspga.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
