package engine

import (
	"strings"

	"github.com/spaolacci/murmur3"
)

// partitionOf maps a container to one of n affinity slots. Containers
// sharing a data affinity symbol hash to the same slot; containers without
// one route by their own name. Names hash case-insensitively since they
// identify containers case-insensitively.
func partitionOf(name, affinity string, n int) int {
	key := affinity
	if key == "" {
		key = strings.ToLower(name)
	}
	if n <= 1 {
		return 0
	}
	return int(murmur3.Sum32([]byte(key)) % uint32(n))
}
