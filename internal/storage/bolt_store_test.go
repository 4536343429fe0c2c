package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Paraschamoli/Bindu/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "probe.db"), normalizeOptions(opts))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStoreSavesAndLoadsResults(t *testing.T) {
	store := openTestStore(t, Options{})

	_, found, err := store.Last("agent")
	require.NoError(t, err)
	assert.False(t, found)

	checked := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	want := domain.CheckResult{
		TargetID:   "agent",
		TargetName: "Agent card",
		Method:     "GET",
		Endpoint:   "/.well-known/agent.json",
		StatusCode: 200,
		Attempts:   2,
		ElapsedMs:  1200,
		Healthy:    true,
		CheckedAt:  checked,
	}
	require.NoError(t, store.Save(want))

	got, found, err := store.Last("agent")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)

	want.Healthy = false
	want.StatusCode = 503
	require.NoError(t, store.Save(want))
	got, _, err = store.Last("agent")
	require.NoError(t, err)
	assert.False(t, got.Healthy)
	assert.Equal(t, 503, got.StatusCode)
}

func TestBoltStoreExpiresResults(t *testing.T) {
	store := openTestStore(t, Options{ResultTTL: time.Minute, CleanupInterval: time.Hour})

	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(domain.CheckResult{TargetID: "a"}))

	now = now.Add(2 * time.Minute)
	_, found, err := store.Last("a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.db.View(func(tx *bolt.Tx) error {
		assert.Nil(t, tx.Bucket([]byte(resultBucket)).Get([]byte("a")))
		return nil
	}))
}

func TestBoltStoreCleanupSweepsExpired(t *testing.T) {
	store := openTestStore(t, Options{ResultTTL: time.Minute, CleanupInterval: time.Minute})

	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(domain.CheckResult{TargetID: "old"}))

	now = now.Add(90 * time.Second)
	require.NoError(t, store.Save(domain.CheckResult{TargetID: "new"}))

	require.NoError(t, store.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resultBucket))
		assert.Nil(t, bucket.Get([]byte("old")))
		assert.NotNil(t, bucket.Get([]byte("new")))
		return nil
	}))
	assert.Equal(t, now.Unix(), store.lastCleanup.Load())
}

func TestBoltStoreRejectsMissingTargetID(t *testing.T) {
	store := openTestStore(t, Options{})
	assert.Error(t, store.Save(domain.CheckResult{}))
}

func TestDecodeValueRejectsMalformed(t *testing.T) {
	_, _, ok := decodeValue([]byte{1, 2, 3})
	assert.False(t, ok)

	_, _, ok = decodeValue(encodeValue(time.Unix(0, 0), []byte("{}")))
	assert.False(t, ok)

	expiry, payload, ok := decodeValue(encodeValue(time.Unix(100, 0), []byte("{}")))
	assert.True(t, ok)
	assert.Equal(t, int64(100), expiry.Unix())
	assert.Equal(t, []byte("{}"), payload)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	require.NoError(t, err)
	require.NoError(t, store.Save(domain.CheckResult{TargetID: "x"}))
	_, found, err := store.Last("x")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = NewStore("bbolt", " ", Options{})
	assert.Error(t, err)

	_, err = NewStore("redis", "x", Options{})
	assert.Error(t, err)

	bolted, err := NewStore("BBolt", filepath.Join(t.TempDir(), "p.db"), Options{})
	require.NoError(t, err)
	assert.NoError(t, bolted.Close())
}
