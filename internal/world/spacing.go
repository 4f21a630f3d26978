package world

import (
	"fmt"
	"math/rand"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// maxPlacementAttempts bounds rejection sampling per city.
const maxPlacementAttempts = 1000

// GenerateSpacedPoints is GeneratePoints with every pair of cities at least
// minDistance apart. Candidates that land too close to a placed city are
// redrawn. A non-positive minDistance draws exactly what GeneratePoints
// draws.
func GenerateSpacedPoints(rng *rand.Rand, count int, worldSize, minDistance float64) ([]orb.Point, error) {
	if !(minDistance > 0) {
		return GeneratePoints(rng, count, worldSize)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if count < 1 {
		return nil, fmt.Errorf("city count must be > 0, got %d", count)
	}
	if !(worldSize > 0) {
		return nil, fmt.Errorf("world size must be > 0, got %v", worldSize)
	}

	tree := rtreego.NewTree(2, 25, 50)
	points := make([]orb.Point, 0, count)
	for len(points) < count {
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			candidate := orb.Point{rng.Float64() * worldSize, rng.Float64() * worldSize}
			crowded, err := hasNeighborWithin(tree, points, candidate, minDistance)
			if err != nil {
				return nil, err
			}
			if crowded {
				continue
			}
			tree.Insert(&cityEntry{
				index: len(points),
				bbox:  rtreego.Point{candidate[0], candidate[1]}.ToRect(cityTolerance),
			})
			points = append(points, candidate)
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("placed %d of %d cities: no room for min distance %v in world size %v", len(points), count, minDistance, worldSize)
		}
	}
	return points, nil
}

func hasNeighborWithin(tree *rtreego.Rtree, points []orb.Point, p orb.Point, radius float64) (bool, error) {
	query, err := rtreego.NewRect(rtreego.Point{p[0] - radius, p[1] - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return false, fmt.Errorf("spacing query: %w", err)
	}
	for _, hit := range tree.SearchIntersect(query) {
		entry, ok := hit.(*cityEntry)
		if !ok {
			continue
		}
		if planar.Distance(points[entry.index], p) < radius {
			return true, nil
		}
	}
	return false, nil
}
