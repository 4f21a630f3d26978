package chromosome

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeKnownTours(t *testing.T) {
	cases := []struct {
		tour Tour
		want Chromosome
	}{
		{tour: Tour{5, 1, 2, 3, 0, 6, 4}, want: Chromosome{4, 1, 1, 1, 2, 0, 0}},
		{tour: Tour{4, 1, 3, 0, 2, 6, 5}, want: Chromosome{3, 1, 2, 1, 0, 1, 0}},
		{tour: Tour{0}, want: Chromosome{0}},
		{tour: Tour{0, 1, 2}, want: Chromosome{0, 0, 0}},
		{tour: Tour{2, 1, 0}, want: Chromosome{2, 1, 0}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Encode(tc.tour), "encode %v", tc.tour)
	}
}

func TestDecodeKnownChromosomes(t *testing.T) {
	cases := []struct {
		in   Chromosome
		want Tour
	}{
		{in: Chromosome{4, 1, 1, 1, 2, 0, 0}, want: Tour{5, 1, 2, 3, 0, 6, 4}},
		{in: Chromosome{3, 1, 2, 1, 0, 1, 0}, want: Tour{4, 1, 3, 0, 2, 6, 5}},
		{in: Chromosome{0, 0, 0}, want: Tour{0, 1, 2}},
		{in: Chromosome{2, 1, 0}, want: Tour{2, 1, 0}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Decode(tc.in), "decode %v", tc.in)
	}
}

func TestRoundTripAllPermutations(t *testing.T) {
	for n := 1; n <= 8; n++ {
		seen := 0
		forEachPermutation(n, func(tour Tour) {
			seen++
			encoded := Encode(tour)
			require.NoError(t, Validate(encoded))
			require.Equal(t, tour, Decode(encoded))
		})
		require.Equal(t, factorial(n), seen, "n=%d", n)
	}
}

func TestDecodeIsTotalOverValidChromosomes(t *testing.T) {
	for n := 1; n <= 6; n++ {
		distinct := make(map[string]struct{})
		forEachChromosome(n, func(c Chromosome) {
			tour := Decode(c)
			require.NoError(t, ValidTour(tour), "decode %v", c)
			require.Equal(t, c, Encode(tour))
			distinct[fmt.Sprint(tour)] = struct{}{}
		})
		require.Len(t, distinct, factorial(n), "n=%d", n)
	}
}

func TestRandomStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 40; n++ {
		for trial := 0; trial < 20; trial++ {
			c := Random(rng, n)
			require.Len(t, c, n)
			for i, v := range c {
				require.GreaterOrEqual(t, v, 0)
				require.Less(t, v, n-i)
			}
		}
	}
}

func TestRandomSamplesToursUniformly(t *testing.T) {
	const (
		n       = 4
		samples = 24000
	)
	rng := rand.New(rand.NewSource(42))
	counts := make(map[string]int)
	for i := 0; i < samples; i++ {
		counts[fmt.Sprint(Decode(Random(rng, n)))]++
	}

	require.Len(t, counts, factorial(n))
	expected := samples / factorial(n)
	for tour, count := range counts {
		// 1000 expected per tour, standard deviation ~31.
		require.InDelta(t, expected, count, 200, "tour %s", tour)
	}
}

func TestValidateRejectsBadChromosomes(t *testing.T) {
	require.Error(t, Validate(nil))
	require.Error(t, Validate(Chromosome{3, 0, 0}))
	require.Error(t, Validate(Chromosome{0, 2, 0}))
	require.Error(t, Validate(Chromosome{0, 0, -1}))
	require.NoError(t, Validate(Chromosome{2, 1, 0}))
}

func TestValidTourRejectsBadTours(t *testing.T) {
	require.Error(t, ValidTour(nil))
	require.Error(t, ValidTour(Tour{0, 0, 1}))
	require.Error(t, ValidTour(Tour{0, 3, 1}))
	require.NoError(t, ValidTour(Tour{2, 0, 1}))
}

func TestEncodeDecodePanicOnMalformedInput(t *testing.T) {
	require.Panics(t, func() { Encode(Tour{}) })
	require.Panics(t, func() { Encode(Tour{1, 1}) })
	require.Panics(t, func() { Decode(Chromosome{}) })
	require.Panics(t, func() { Decode(Chromosome{0, 1}) })
}

func TestCloneDoesNotAlias(t *testing.T) {
	c := Chromosome{2, 1, 0}
	clone := c.Clone()
	clone[0] = 0
	require.Equal(t, 2, c[0])
	require.Equal(t, Chromosome{2, 1, 0}, c)
	require.NotEqual(t, c, clone)
}

func forEachPermutation(n int, fn func(Tour)) {
	perm := make(Tour, n)
	for i := range perm {
		perm[i] = i
	}
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			fn(perm.Clone())
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			rec(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	rec(0)
}

func forEachChromosome(n int, fn func(Chromosome)) {
	c := make(Chromosome, n)
	var rec func(i int)
	rec = func(i int) {
		if i == n {
			fn(c.Clone())
			return
		}
		for v := 0; v < n-i; v++ {
			c[i] = v
			rec(i + 1)
		}
	}
	rec(0)
}

func factorial(n int) int {
	out := 1
	for i := 2; i <= n; i++ {
		out *= i
	}
	return out
}
