package evo

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"tspga/internal/model"
)

// summarize expects population sorted best first.
func summarize(generation int, population []Individual) model.GenerationDiagnostics {
	if len(population) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}

	lengths := make([]float64, len(population))
	distinct := make(map[string]struct{}, len(population))
	for i, ind := range population {
		lengths[i] = ind.Length()
		distinct[chromosomeKey(ind.Chromosome)] = struct{}{}
	}

	return model.GenerationDiagnostics{
		Generation:    generation,
		BestFitness:   ReportableFitness(population[0].Fitness),
		BestLength:    floats.Min(lengths),
		MeanLength:    stat.Mean(lengths, nil),
		WorstLength:   floats.Max(lengths),
		LengthStdDev:  stat.PopStdDev(lengths, nil),
		DistinctTours: len(distinct),
	}
}

func chromosomeKey(c []int) string {
	var b strings.Builder
	for i, v := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
