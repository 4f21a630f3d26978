package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"tspga/internal/model"
)

// reportProgress honours an explicit --progress and otherwise logs only when
// stderr is a terminal.
func reportProgress(explicit, value bool) bool {
	if explicit {
		return value
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newProgressLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}

// progressCallback logs the initial population, every N-th generation and
// the last one.
func progressCallback(logger *slog.Logger, generations, every int) func(model.GenerationDiagnostics) {
	if every <= 0 {
		every = 1
	}
	return func(d model.GenerationDiagnostics) {
		if d.Generation%every != 0 && d.Generation != generations {
			return
		}
		logger.Info("generation",
			"gen", d.Generation,
			"of", generations,
			"best_length", d.BestLength,
			"mean_length", d.MeanLength,
			"distinct", d.DistinctTours,
		)
	}
}
