package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionOf(t *testing.T) {
	// Containers sharing an affinity symbol land on the same slot.
	a := partitionOf("orders", "tenant_a", 128)
	b := partitionOf("invoices", "tenant_a", 128)
	assert.Equal(t, a, b)

	// Without a symbol, routing keys on the container name,
	// case-insensitively.
	assert.Equal(t, partitionOf("Orders", "", 128), partitionOf("orders", "", 128))

	// Slots stay in range.
	for _, name := range []string{"a", "bb", "ccc", "dddd"} {
		p := partitionOf(name, "", 16)
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, 16)
	}

	assert.Zero(t, partitionOf("anything", "", 1))
}
