package world

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/require"
)

func TestGenerateSpacedPointsKeepsDistance(t *testing.T) {
	points, err := GenerateSpacedPoints(rand.New(rand.NewSource(11)), 40, 100, 5)
	require.NoError(t, err)
	require.Len(t, points, 40)

	for i := range points {
		require.True(t, points[i][0] >= 0 && points[i][0] < 100)
		require.True(t, points[i][1] >= 0 && points[i][1] < 100)
		for j := i + 1; j < len(points); j++ {
			require.GreaterOrEqual(t, planar.Distance(points[i], points[j]), 5.0, "cities %d and %d", i, j)
		}
	}
}

func TestGenerateSpacedPointsZeroDistanceMatchesGeneratePoints(t *testing.T) {
	spaced, err := GenerateSpacedPoints(rand.New(rand.NewSource(5)), 12, 50, 0)
	require.NoError(t, err)
	plain, err := GeneratePoints(rand.New(rand.NewSource(5)), 12, 50)
	require.NoError(t, err)
	require.Equal(t, plain, spaced)
}

func TestGenerateSpacedPointsReportsCrowding(t *testing.T) {
	_, err := GenerateSpacedPoints(rand.New(rand.NewSource(1)), 10, 1, 5)
	require.Error(t, err)
}

func TestGenerateSpacedPointsRejectsBadInput(t *testing.T) {
	_, err := GenerateSpacedPoints(nil, 3, 10, 1)
	require.Error(t, err)
	_, err = GenerateSpacedPoints(rand.New(rand.NewSource(1)), 0, 10, 1)
	require.Error(t, err)
	_, err = GenerateSpacedPoints(rand.New(rand.NewSource(1)), 3, -1, 1)
	require.Error(t, err)
}
