package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finedge/internal/domain"
)

func TestAppendAndHistory(t *testing.T) {
	b := NewBuffer(5)

	b.Append("finance", "q1", "a1")
	b.Append("finance", "q2", "a2")

	history := b.History("finance")
	require.Len(t, history, 2)
	assert.Equal(t, domain.Turn{Query: "q1", Answer: "a1"}, history[0])
	assert.Equal(t, domain.Turn{Query: "q2", Answer: "a2"}, history[1])
}

func TestCapacityEvictsOldest(t *testing.T) {
	b := NewBuffer(5)

	for i := 1; i <= 6; i++ {
		b.Append("hr", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history := b.History("hr")
	require.Len(t, history, 5)
	assert.Equal(t, "q2", history[0].Query, "oldest turn should have been evicted")
	assert.Equal(t, "q6", history[4].Query)
}

func TestKeysAreIsolated(t *testing.T) {
	b := NewBuffer(5)

	b.Append("finance", "fq", "fa")
	b.Append("marketing", "mq", "ma")

	assert.Len(t, b.History("finance"), 1)
	assert.Len(t, b.History("marketing"), 1)
	assert.Empty(t, b.History("engineering"))
}

func TestClear(t *testing.T) {
	b := NewBuffer(5)

	b.Append("finance", "q", "a")
	b.Clear("finance")
	assert.Empty(t, b.History("finance"))
}

func TestHistoryReturnsCopy(t *testing.T) {
	b := NewBuffer(5)

	b.Append("finance", "q1", "a1")
	history := b.History("finance")
	history[0].Answer = "mutated"

	assert.Equal(t, "a1", b.History("finance")[0].Answer)
}

func TestZeroCapacityUsesDefault(t *testing.T) {
	b := NewBuffer(0)

	for i := 0; i < 10; i++ {
		b.Append("k", fmt.Sprintf("q%d", i), "a")
	}
	assert.Len(t, b.History("k"), DefaultCapacity)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ domain.Memory = (*Buffer)(nil)
}
