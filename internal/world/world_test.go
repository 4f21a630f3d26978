package world

import (
	"bytes"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func squarePoints() []orb.Point {
	return []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
}

func TestGeneratePointsWithinWorld(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	points, err := GeneratePoints(rng, 200, 50)
	require.NoError(t, err)
	require.Len(t, points, 200)
	for _, p := range points {
		require.GreaterOrEqual(t, p[0], 0.0)
		require.Less(t, p[0], 50.0)
		require.GreaterOrEqual(t, p[1], 0.0)
		require.Less(t, p[1], 50.0)
	}
}

func TestGeneratePointsIsSeeded(t *testing.T) {
	a, err := GeneratePoints(rand.New(rand.NewSource(9)), 10, 100)
	require.NoError(t, err)
	b, err := GeneratePoints(rand.New(rand.NewSource(9)), 10, 100)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestGeneratePointsRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := GeneratePoints(rng, 0, 100)
	require.Error(t, err)
	_, err = GeneratePoints(rng, 5, 0)
	require.Error(t, err)
	_, err = GeneratePoints(rng, 5, math.NaN())
	require.Error(t, err)
	_, err = GeneratePoints(nil, 5, 10)
	require.Error(t, err)
}

func TestTourLengthWrapsAround(t *testing.T) {
	w := New(squarePoints())
	require.InDelta(t, 4.0, w.TourLength([]int{0, 1, 2, 3}), 1e-12)
	require.InDelta(t, 2+2*math.Sqrt2, w.TourLength([]int{0, 2, 1, 3}), 1e-12)
}

func TestTourLengthDegenerate(t *testing.T) {
	require.Equal(t, 0.0, New([]orb.Point{{3, 4}}).TourLength([]int{0}))
	require.Equal(t, 0.0, New([]orb.Point{{1, 1}, {1, 1}}).TourLength([]int{1, 0}))
	require.InDelta(t, 10.0, New([]orb.Point{{0, 0}, {3, 4}}).TourLength([]int{0, 1}), 1e-12)
}

func TestTourLengthPanicsOnMismatch(t *testing.T) {
	w := New(squarePoints())
	require.Panics(t, func() { w.TourLength([]int{0, 1, 2}) })
}

func TestPointsReturnsCopy(t *testing.T) {
	w := New(squarePoints())
	points := w.Points()
	points[0] = orb.Point{9, 9}
	require.Equal(t, orb.Point{0, 0}, w.Points()[0])
	require.Equal(t, 4, w.Len())
	require.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, w.Bound())
}

func TestNearestNeighborTourVisitsEveryCity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points, err := GeneratePoints(rng, 60, 100)
	require.NoError(t, err)

	tour, err := NearestNeighborTour(points, 0)
	require.NoError(t, err)
	require.Len(t, tour, len(points))
	seen := make(map[int]bool)
	for _, idx := range tour {
		require.False(t, seen[idx], "city %d visited twice", idx)
		seen[idx] = true
	}
	require.Equal(t, 0, tour[0])
}

func TestNearestNeighborTourFollowsLine(t *testing.T) {
	points := []orb.Point{{0, 0}, {5, 0}, {1, 0}, {3, 0}}
	tour, err := NearestNeighborTour(points, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 3, 1}, tour)

	length, _, err := New(points).BaselineLength()
	require.NoError(t, err)
	require.InDelta(t, 10.0, length, 1e-12)
}

func TestNearestNeighborTourRejectsBadInput(t *testing.T) {
	_, err := NearestNeighborTour(nil, 0)
	require.Error(t, err)
	_, err = NearestNeighborTour(squarePoints(), 4)
	require.Error(t, err)
}

func TestPointsCSVRoundTrip(t *testing.T) {
	points := []orb.Point{{0.5, 1.25}, {99.125, 3}}
	var buf bytes.Buffer
	require.NoError(t, WritePointsCSV(&buf, points))
	require.True(t, strings.HasPrefix(buf.String(), "x,y\n"))

	loaded, err := ReadPointsCSV(&buf)
	require.NoError(t, err)
	require.Equal(t, points, loaded)
}

func TestReadPointsCSVWithoutHeader(t *testing.T) {
	loaded, err := ReadPointsCSV(strings.NewReader("1,2\n3, 4\n"))
	require.NoError(t, err)
	require.Equal(t, []orb.Point{{1, 2}, {3, 4}}, loaded)

	_, err = ReadPointsCSV(strings.NewReader("x,y\n"))
	require.Error(t, err)
	_, err = ReadPointsCSV(strings.NewReader("1,abc\n"))
	require.Error(t, err)
}

func TestPointsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	points := squarePoints()
	require.NoError(t, WritePointsFile(path, points))
	loaded, err := ReadPointsFile(path)
	require.NoError(t, err)
	require.Equal(t, points, loaded)
}
