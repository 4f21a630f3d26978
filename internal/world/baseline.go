package world

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Cities are indexed as tiny boxes; the tolerance only has to be positive.
const cityTolerance = 1e-9

type cityEntry struct {
	index int
	bbox  rtreego.Rect
}

func (c *cityEntry) Bounds() rtreego.Rect {
	return c.bbox
}

// NearestNeighborTour builds the greedy tour that starts at start and always
// moves to the closest unvisited city. It is a reference length for reports,
// not an input to the evolution.
func NearestNeighborTour(points []orb.Point, start int) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, fmt.Errorf("at least one city is required")
	}
	if start < 0 || start >= n {
		return nil, fmt.Errorf("start city out of range: %d", start)
	}

	tree := rtreego.NewTree(2, 25, 50)
	entries := make([]*cityEntry, n)
	for i, p := range points {
		entries[i] = &cityEntry{
			index: i,
			bbox:  rtreego.Point{p[0], p[1]}.ToRect(cityTolerance),
		}
		if i != start {
			tree.Insert(entries[i])
		}
	}

	tour := make([]int, 0, n)
	tour = append(tour, start)
	current := points[start]
	for len(tour) < n {
		nearest, ok := tree.NearestNeighbor(rtreego.Point{current[0], current[1]}).(*cityEntry)
		if !ok || nearest == nil {
			return nil, fmt.Errorf("spatial index exhausted after %d of %d cities", len(tour), n)
		}
		tree.Delete(nearest)
		tour = append(tour, nearest.index)
		current = points[nearest.index]
	}
	return tour, nil
}

// BaselineLength is the length of the nearest-neighbour tour from city 0.
func (w *World) BaselineLength() (float64, []int, error) {
	tour, err := NearestNeighborTour(w.points, 0)
	if err != nil {
		return 0, nil, err
	}
	return w.TourLength(tour), tour, nil
}
