package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	relayedBucket    = []byte("relayed_entries")
	errBucketMissing = errors.New("relayed_entries bucket missing")
)

// boltStore maps entry key to an 8-byte big-endian unix expiry.
type boltStore struct {
	db    *bolt.DB
	ttl   time.Duration
	every time.Duration
	now   func() time.Time

	mu        sync.Mutex
	nextSweep time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(relayedBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	s := &boltStore{db: db, ttl: opts.EntryTTL, every: opts.CleanupInterval, now: time.Now}
	s.nextSweep = s.now().Add(s.every)
	return s, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SeenEntry reports whether key is marked and unexpired. An expired or
// malformed record is deleted in the same transaction.
func (s *boltStore) SeenEntry(key string) (bool, error) {
	now, err := s.tick()
	if err != nil {
		return false, err
	}

	seen := false
	err = s.update(func(b *bolt.Bucket) error {
		k := []byte(key)
		v := b.Get(k)
		switch {
		case v == nil:
			return nil
		case live(v, now):
			seen = true
			return nil
		default:
			return b.Delete(k)
		}
	})
	return seen, err
}

// MarkEntry stores key until now plus the entry TTL.
func (s *boltStore) MarkEntry(key string) error {
	now, err := s.tick()
	if err != nil {
		return err
	}
	return s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(key), encodeExpiry(now.Add(s.ttl)))
	})
}

// tick returns the current time, sweeping expired records first when the
// cleanup interval has elapsed since the last sweep.
func (s *boltStore) tick() (time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Before(s.nextSweep) {
		return now, nil
	}
	if err := s.sweep(now); err != nil {
		return now, err
	}
	s.nextSweep = now.Add(s.every)
	return now, nil
}

func (s *boltStore) sweep(now time.Time) error {
	return s.update(func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if live(v, now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStore) update(fn func(*bolt.Bucket) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(relayedBucket)
		if b == nil {
			return errBucketMissing
		}
		return fn(b)
	})
}

// count returns the number of stored keys, expired or not.
func (s *boltStore) count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(relayedBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func encodeExpiry(t time.Time) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(t.Unix()))
}

// live reports whether v is a well-formed expiry later than now.
func live(v []byte, now time.Time) bool {
	if len(v) != 8 {
		return false
	}
	unix := int64(binary.BigEndian.Uint64(v))
	return unix > 0 && time.Unix(unix, 0).After(now)
}
