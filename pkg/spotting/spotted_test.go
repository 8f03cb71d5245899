package spotting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySpottedStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySpottedStore()
	at := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		at = at.Add(time.Minute)
		return at
	}

	require.NoError(t, m.Add(ctx, flightAt("a1", 10)))
	require.NoError(t, m.Add(ctx, flightAt("A2", 20)))

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].Identifier)
	assert.Equal(t, "A1", list[1].Identifier)

	// re-adding replaces and moves to the front
	require.NoError(t, m.Add(ctx, flightAt("A1", 30)))
	list, _ = m.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "A1", list[0].Identifier)
	assert.Equal(t, *atKm(30), *list[0].Position)

	require.NoError(t, m.Remove(ctx, "a2"))
	list, _ = m.List(ctx)
	assert.Equal(t, []string{"A1"}, []string{list[0].Identifier})
	assert.Len(t, list, 1)

	require.NoError(t, m.Clear(ctx))
	list, _ = m.List(ctx)
	assert.Empty(t, list)
}
