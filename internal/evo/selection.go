package evo

import (
	"fmt"
	"math/rand"
)

// EliteSelector picks two distinct parents uniformly from the top elite set
// of a population sorted best first.
type EliteSelector struct{}

func (EliteSelector) PickParents(rng *rand.Rand, eliteCount int) (int, int, error) {
	if rng == nil {
		return 0, 0, fmt.Errorf("random source is required")
	}
	if eliteCount < 2 {
		return 0, 0, fmt.Errorf("invalid elite count: %d (need two distinct parents)", eliteCount)
	}

	first := rng.Intn(eliteCount)
	second := rng.Intn(eliteCount)
	for second == first {
		second = rng.Intn(eliteCount)
	}
	return first, second, nil
}
