package automatic

import (
	"math"

	"lukechampine.com/frand"
)

// GenerateSeeds returns one seed per game. With a non-zero base the seeds
// are base, base+1, ..., so that a batch of games can be replayed;
// otherwise they are random.
func GenerateSeeds(n int, base uint64) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		if base != 0 {
			seeds[i] = base + uint64(i)
			continue
		}
		seeds[i] = frand.Uint64n(math.MaxUint64) + 1
	}
	return seeds
}
