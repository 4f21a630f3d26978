package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persisted outcome of one evolution run.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Cities         int     `json:"cities"`
	WorldSize      float64 `json:"world_size"`
	PoolSize       int     `json:"pool_size"`
	Elitism        float64 `json:"elitism"`
	MutationRate   float64 `json:"mutation_rate"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	Workers        int     `json:"workers"`
	EliteCount     int     `json:"elite_count"`
	Evaluations    int     `json:"evaluations"`
	BestTour       []int   `json:"best_tour"`
	BestLength     float64 `json:"best_length"`
	BestFitness    float64 `json:"best_fitness"`
	BaselineLength float64 `json:"baseline_length"`
}

// City is the persisted form of a point.
type City struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GenerationDiagnostics summarises one population. Generation 0 is the
// initial population.
type GenerationDiagnostics struct {
	Generation    int     `json:"generation"`
	BestFitness   float64 `json:"best_fitness"`
	BestLength    float64 `json:"best_length"`
	MeanLength    float64 `json:"mean_length"`
	WorstLength   float64 `json:"worst_length"`
	LengthStdDev  float64 `json:"length_std_dev"`
	DistinctTours int     `json:"distinct_tours"`
}
