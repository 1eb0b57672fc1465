package session_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/2beens/stryde/internal/session"
	"github.com/2beens/stryde/internal/strava"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStore_CreateAndGet(t *testing.T) {
	store := session.NewStore()
	now := time.Date(2024, 10, 7, 12, 0, 0, 0, time.UTC)
	store.NowFunc = func() time.Time { return now }

	require.NoError(t, store.Create("state-1"))

	sess, ok := store.Get("state-1")
	require.True(t, ok)
	assert.Equal(t, "state-1", sess.State)
	assert.False(t, sess.Authenticated)
	assert.Empty(t, sess.AccessToken)
	assert.Equal(t, now, sess.CreatedAt)

	_, ok = store.Get("unknown-state")
	assert.False(t, ok)
}

func TestStore_Create_AlreadyExists(t *testing.T) {
	store := session.NewStore()
	require.NoError(t, store.Create("state-1"))
	assert.ErrorIs(t, store.Create("state-1"), session.ErrAlreadyExists)
	assert.Equal(t, 1, store.Count())
}

func TestStore_Promote(t *testing.T) {
	store := session.NewStore()
	require.NoError(t, store.Create("state-1"))

	athlete := strava.Athlete{
		ID:        1234,
		Username:  "runner",
		FirstName: "Serj",
		LastName:  "T",
	}
	require.NoError(t, store.Promote("state-1", "access-token-1", athlete))

	sess, ok := store.Get("state-1")
	require.True(t, ok)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "access-token-1", sess.AccessToken)
	assert.Equal(t, athlete, sess.Athlete)

	// a session is promoted exactly once
	err := store.Promote("state-1", "other-token", athlete)
	assert.ErrorIs(t, err, session.ErrAlreadyAuthenticated)

	// ... and the original values stay untouched
	sess, ok = store.Get("state-1")
	require.True(t, ok)
	assert.Equal(t, "access-token-1", sess.AccessToken)
}

func TestStore_Promote_NotFound(t *testing.T) {
	store := session.NewStore()
	err := store.Promote("unknown-state", "token", strava.Athlete{})
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_ConcurrentCreateAndPromote(t *testing.T) {
	store := session.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state := fmt.Sprintf("state-%d", i)
			require.NoError(t, store.Create(state))
			require.NoError(t, store.Promote(state, fmt.Sprintf("token-%d", i), strava.Athlete{ID: int64(i)}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Count())
	for i := 0; i < 50; i++ {
		sess, ok := store.Get(fmt.Sprintf("state-%d", i))
		require.True(t, ok)
		assert.True(t, sess.Authenticated)
		assert.Equal(t, fmt.Sprintf("token-%d", i), sess.AccessToken)
	}
}

func TestStore_ConcurrentDoublePromote(t *testing.T) {
	store := session.NewStore()
	require.NoError(t, store.Create("state-1"))

	var wg sync.WaitGroup
	promoted := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("token-%d", i)
			if err := store.Promote("state-1", token, strava.Athlete{}); err == nil {
				promoted <- token
			}
		}(i)
	}
	wg.Wait()
	close(promoted)

	// exactly one promotion wins
	var winners []string
	for token := range promoted {
		winners = append(winners, token)
	}
	require.Len(t, winners, 1)

	sess, ok := store.Get("state-1")
	require.True(t, ok)
	assert.Equal(t, winners[0], sess.AccessToken)
}
