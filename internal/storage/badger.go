// internal/storage/badger.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
)

const resultKeyPrefix = "result/"

// BadgerConfig holds configuration for a BadgerDB-backed repository.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Quiet disables badger's internal logging.
	Quiet bool
}

// DefaultBadgerConfig returns the configuration used for on-disk stores.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true, Quiet: true}
}

// badgerLogger routes badger's log output through the logging package.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.LogError("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.LogWarn("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.LogDebug("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.LogDebug("badger: "+format, args...)
}

// Badger stores one JSON-encoded result per key. Keys carry a zero-padded
// insertion sequence so reverse key order is newest first.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database described by cfg.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Quiet {
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(badgerLogger{})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// GetAll returns every stored result, newest first.
func (b *Badger) GetAll() ([]benchmark.Result, error) {
	var results []benchmark.Result
	err := b.db.View(func(txn *badger.Txn) error {
		return eachNewestFirst(txn, func(key []byte, item *badger.Item) (bool, error) {
			var r benchmark.Result
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return false, fmt.Errorf("decode %s: %w", key, err)
			}
			results = append(results, r)
			return true, nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return results, nil
}

// Append stores result under the next sequence key.
func (b *Badger) Append(result benchmark.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", result.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		var last uint64
		err := eachNewestFirst(txn, func(key []byte, _ *badger.Item) (bool, error) {
			seq, err := parseResultKey(key)
			if err != nil {
				return false, err
			}
			last = seq
			return false, nil
		})
		if err != nil {
			return err
		}
		return txn.Set(resultKey(last+1), data)
	})
}

// DeleteAt removes the entry at index in GetAll order.
func (b *Badger) DeleteAt(index int) error {
	if index < 0 {
		return fmt.Errorf("delete index %d: %w", index, ErrNotFound)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		var target []byte
		i := 0
		err := eachNewestFirst(txn, func(key []byte, _ *badger.Item) (bool, error) {
			if i == index {
				target = append([]byte(nil), key...)
				return false, nil
			}
			i++
			return true, nil
		})
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("delete index %d of %d: %w", index, i, ErrNotFound)
		}
		return txn.Delete(target)
	})
}

// Close releases the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// eachNewestFirst walks result keys in reverse order until fn returns false.
func eachNewestFirst(txn *badger.Txn, fn func(key []byte, item *badger.Item) (bool, error)) error {
	prefix := []byte(resultKeyPrefix)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := append(append([]byte(nil), prefix...), 0xFF)
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		more, err := fn(item.KeyCopy(nil), item)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func resultKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", resultKeyPrefix, seq))
}

func parseResultKey(key []byte) (uint64, error) {
	raw := string(key[len(resultKeyPrefix):])
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed result key %q: %w", key, err)
	}
	return seq, nil
}
