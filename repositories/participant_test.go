package repositories

import (
	"batepapo/errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Join_Unique_Name(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t))
	now := time.Now().UTC()

	first, err := repository.Join("Ana", now)
	req.NoError(err)
	req.Equal("Ana", first.Name)

	_, err = repository.Join("Ana", now.Add(time.Second))
	req.ErrorIs(err, errors.ErrAlreadyPresent)

	// the losing join must not have touched the stored heartbeat
	participants, err := repository.List()
	req.NoError(err)
	req.Len(participants, 1)
	req.Equal(now.UnixMilli(), participants[0].LastHeartbeat.UnixMilli())
}

func Test_Heartbeat_Advances_Never_Rewinds(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t))
	now := time.Now().UTC()

	_, err := repository.Join("Ana", now)
	req.NoError(err)

	later := now.Add(3 * time.Second)
	req.NoError(repository.Heartbeat("Ana", later))
	req.NoError(repository.Heartbeat("Ana", now)) // stale clock reading, ignored

	participants, err := repository.List()
	req.NoError(err)
	req.Equal(later.UnixMilli(), participants[0].LastHeartbeat.UnixMilli())
}

func Test_Heartbeat_Unknown_Participant(t *testing.T) {
	repository := NewParticipantRepository(openTestDB(t))
	require.ErrorIs(t, repository.Heartbeat("Ana", time.Now()), errors.ErrNotFound)
}

func Test_Remove_Reports_Whether_Removal_Happened(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t))

	_, err := repository.Join("Ana", time.Now())
	req.NoError(err)

	removed, err := repository.Remove("Ana")
	req.NoError(err)
	req.True(removed)

	removed, err = repository.Remove("Ana")
	req.NoError(err)
	req.False(removed)
}

func Test_RemoveStale_Heartbeat_Wins(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t))
	now := time.Now().UTC()

	_, err := repository.Join("Ana", now.Add(-time.Minute))
	req.NoError(err)
	req.NoError(repository.Heartbeat("Ana", now))

	// The cutoff was computed before the heartbeat landed. The removal
	// re-reads inside its transaction and must refuse.
	removed, err := repository.RemoveStale("Ana", now.Add(-10*time.Second))
	req.NoError(err)
	req.False(removed)

	present, err := repository.Present("Ana")
	req.NoError(err)
	req.True(present)
}

func Test_RemoveStale_Evicts_Once(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t))
	now := time.Now().UTC()

	_, err := repository.Join("Ana", now.Add(-time.Minute))
	req.NoError(err)

	cutoff := now.Add(-10 * time.Second)
	removed, err := repository.RemoveStale("Ana", cutoff)
	req.NoError(err)
	req.True(removed)

	// duplicate pass: already gone, not an error, no removal reported
	removed, err = repository.RemoveStale("Ana", cutoff)
	req.NoError(err)
	req.False(removed)
}

func Test_Present(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t))

	present, err := repository.Present("Ana")
	req.NoError(err)
	req.False(present)

	_, err = repository.Join("Ana", time.Now())
	req.NoError(err)

	present, err = repository.Present("Ana")
	req.NoError(err)
	req.True(present)
}
