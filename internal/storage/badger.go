package storage

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"

	pdexerrors "github.com/promptdex/promptdex/internal/errors"
)

// BadgerStore is the default on-disk Store. Badger's Subscribe API drives
// the change feed, so writes from any goroutine (including the debounced
// saver) surface as events without extra plumbing.
type BadgerStore struct {
	db     *badger.DB
	lock   *DirLock
	logger *slog.Logger
}

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (tests).
	InMemory bool

	// Logger receives store diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// OpenBadger opens a BadgerStore. On-disk stores take a directory lock
// first so a second promptdex process fails with a clear error instead of
// Badger's own lock timeout.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lock *DirLock
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		lock = NewDirLock(cfg.Path)
		acquired, err := lock.TryLock()
		if err != nil {
			return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageOpen, err)
		}
		if !acquired {
			return nil, pdexerrors.New(pdexerrors.ErrCodeStorageLocked,
				"data directory is in use by another promptdex process", nil)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageOpen, err)
	}

	return &BadgerStore{db: db, lock: lock, logger: logger}, nil
}

// Get implements Store.
func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pdexerrors.Wrap(pdexerrors.ErrCodeStorageRead, err)
	}
	return value, true, nil
}

// Set implements Store.
func (b *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeStorageWrite, err)
	}
	return nil
}

// Delete implements Store.
func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeStorageWrite, err)
	}
	return nil
}

// Keys implements Store.
func (b *BadgerStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageRead, err)
	}
	return keys, nil
}

// Watch implements Store using Badger's Subscribe.
func (b *BadgerStore) Watch(ctx context.Context, prefix string) (<-chan Event, error) {
	ch := make(chan Event, 16)

	go func() {
		defer close(ch)
		err := b.db.Subscribe(ctx, func(kvs *badger.KVList) error {
			for _, kv := range kvs.Kv {
				ev := Event{Key: string(kv.Key)}
				if len(kv.Value) > 0 {
					ev.Value = append([]byte(nil), kv.Value...)
				}
				select {
				case ch <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		}, []pb.Match{{Prefix: []byte(prefix)}})
		if err != nil && err != context.Canceled {
			b.logger.Debug("badger subscription ended",
				slog.String("error", err.Error()))
		}
	}()

	return ch, nil
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	err := b.db.Close()
	if b.lock != nil {
		_ = b.lock.Unlock()
	}
	if err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeStorageWrite, err)
	}
	return nil
}
