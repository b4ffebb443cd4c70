package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.IsConnected("u1"))
	assert.Equal(t, 0, r.ConnectedUserCount())

	r.Add("u1", "c1")
	r.Add("u1", "c2")
	r.Add("u2", "c3")

	assert.True(t, r.IsConnected("u1"))
	assert.Equal(t, 2, r.ConnectionCount("u1"))
	assert.Equal(t, 2, r.ConnectedUserCount())
	assert.ElementsMatch(t, []string{"c1", "c2"}, r.Connections("u1"))

	r.Remove("u1", "c1")
	assert.True(t, r.IsConnected("u1"))
	assert.Equal(t, []string{"c2"}, r.Connections("u1"))

	r.Remove("u1", "c2")
	assert.False(t, r.IsConnected("u1"))
	assert.Equal(t, 1, r.ConnectedUserCount())
	assert.Nil(t, r.Connections("u1"))
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove("ghost", "c1")
	assert.Equal(t, 0, r.ConnectedUserCount())

	r.Add("u1", "c1")
	r.Remove("u1", "never-added")
	assert.True(t, r.IsConnected("u1"))
}

func TestRegistry_ConnectionsReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Add("u1", "c1")

	snapshot := r.Connections("u1")
	r.Remove("u1", "c1")

	// The earlier snapshot is unaffected by later churn.
	assert.Equal(t, []string{"c1"}, snapshot)
}

func TestRegistry_ChurnLeavesNoResidualState(t *testing.T) {
	r := NewRegistry()

	const users = 10
	const cyclesPerUser = 100

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("u%d", u)
		for c := 0; c < 4; c++ {
			wg.Add(1)
			go func(connPrefix string) {
				defer wg.Done()
				for i := 0; i < cyclesPerUser; i++ {
					connID := fmt.Sprintf("%s-%d", connPrefix, i)
					r.Add(userID, connID)
					r.Remove(userID, connID)
				}
			}(fmt.Sprintf("%s-c%d", userID, c))
		}
	}
	wg.Wait()

	require.Equal(t, 0, r.ConnectedUserCount())
	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("u%d", u)
		assert.False(t, r.IsConnected(userID))
		assert.Nil(t, r.Connections(userID))
	}
}
