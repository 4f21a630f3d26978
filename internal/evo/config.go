package evo

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidConfig = errors.New("invalid evolution config")

// Config holds the GA parameters. Workers only changes how offspring are
// scored, never which offspring are produced.
type Config struct {
	PoolSize     int     `json:"pool_size"`
	Elitism      float64 `json:"elitism"`
	MutationRate float64 `json:"mutation_rate"`
	Generations  int     `json:"generations"`
	Workers      int     `json:"workers"`
	Seed         int64   `json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		PoolSize:     100,
		Elitism:      0.15,
		MutationRate: 0.007,
		Generations:  500,
		Workers:      1,
		Seed:         1,
	}
}

func (c Config) Validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool size must be > 0, got %d", ErrInvalidConfig, c.PoolSize)
	}
	if math.IsNaN(c.Elitism) || c.Elitism < 0 || c.Elitism > 1 {
		return fmt.Errorf("%w: elitism must be in [0, 1], got %v", ErrInvalidConfig, c.Elitism)
	}
	if math.IsNaN(c.MutationRate) || c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1], got %v", ErrInvalidConfig, c.MutationRate)
	}
	if c.Generations < 0 {
		return fmt.Errorf("%w: generations must be >= 0, got %d", ErrInvalidConfig, c.Generations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) EliteCount() int {
	return EliteCount(c.PoolSize, c.Elitism)
}

// EliteCount is floor(poolSize*elitism), raised to two so crossover always
// has distinct parents, and capped at the pool size.
func EliteCount(poolSize int, elitism float64) int {
	count := int(math.Floor(float64(poolSize) * elitism))
	if count < 2 {
		count = 2
	}
	if count > poolSize {
		count = poolSize
	}
	return count
}
