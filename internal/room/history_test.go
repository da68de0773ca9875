package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(msgs []Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func fill(h *History, from, to int64) {
	for id := from; id <= to; id++ {
		h.Append(Message{ID: id})
	}
}

func TestHistoryRecentBeforeWrap(t *testing.T) {
	h := NewHistory(5)
	fill(h, 1, 3)

	assert.Equal(t, []int64{1, 2, 3}, ids(h.Recent(10)))
	assert.Equal(t, []int64{2, 3}, ids(h.Recent(2)))
	assert.Empty(t, h.Recent(0))
	assert.Equal(t, 3, h.Len())
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(5)
	fill(h, 1, 12)

	assert.Equal(t, 5, h.Len())
	assert.Equal(t, []int64{8, 9, 10, 11, 12}, ids(h.Recent(5)))
	assert.Equal(t, []int64{11, 12}, ids(h.Recent(2)))
}

func TestHistoryDefaultBound(t *testing.T) {
	h := NewHistory(0)
	require.Equal(t, DefaultHistoryLimit, h.Cap())

	fill(h, 1, 1500)
	assert.Equal(t, 1000, h.Len())

	recent := h.Recent(1000)
	require.Len(t, recent, 1000)
	assert.Equal(t, int64(501), recent[0].ID)
	assert.Equal(t, int64(1500), recent[999].ID)
	for i := 1; i < len(recent); i++ {
		assert.Equal(t, recent[i-1].ID+1, recent[i].ID)
	}
}

func TestHistoryReadDoesNotMutate(t *testing.T) {
	h := NewHistory(3)
	fill(h, 1, 4)

	first := h.Recent(100)
	first[0].Text = "tampered"

	assert.Equal(t, []int64{2, 3, 4}, ids(h.Recent(100)))
	assert.Empty(t, h.Recent(100)[0].Text)
	assert.Equal(t, 3, h.Len())
}
