package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Paraschamoli/Bindu/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	resultBucket = "results"
	expiryPrefix = 8
)

// boltStore implements a Store backed by BoltDB. Each value is an 8 byte
// big-endian expiry followed by the JSON encoded result.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	resultTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(resultBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		resultTTL:       opts.ResultTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Last returns the stored result for targetID. Expired entries are removed
// and reported as missing.
func (b *boltStore) Last(targetID string) (domain.CheckResult, bool, error) {
	var result domain.CheckResult
	if b == nil || b.db == nil {
		return result, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return result, false, err
	}

	var found bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := results(tx)
		if err != nil {
			return err
		}

		key := []byte(targetID)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, payload, ok := decodeValue(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}
		if err := json.Unmarshal(payload, &result); err != nil {
			return fmt.Errorf("decode result %s: %w", targetID, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return domain.CheckResult{}, false, err
	}
	return result, found, nil
}

// Save stores result under its target id, replacing any previous entry.
func (b *boltStore) Save(result domain.CheckResult) error {
	if b == nil || b.db == nil {
		return nil
	}
	if strings.TrimSpace(result.TargetID) == "" {
		return fmt.Errorf("result has no target id")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", result.TargetID, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := results(tx)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(result.TargetID), encodeValue(now.Add(b.resultTTL), payload))
	})
}

// maybeCleanupExpired sweeps expired results once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := results(tx)
		if err != nil {
			return err
		}

		var expired [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			if expiry, _, ok := decodeValue(v); !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func results(tx *bolt.Tx) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(resultBucket))
	if bucket == nil {
		return nil, fmt.Errorf("result bucket missing")
	}
	return bucket, nil
}

func encodeValue(expiry time.Time, payload []byte) []byte {
	buf := make([]byte, expiryPrefix+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryPrefix:], payload)
	return buf
}

func decodeValue(value []byte) (time.Time, []byte, bool) {
	if len(value) <= expiryPrefix {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryPrefix]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	return time.Unix(unix, 0), value[expiryPrefix:], true
}
