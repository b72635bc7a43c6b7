package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
)

// BadgerOptions tunes collections opened by NewBadgerOpener.
type BadgerOptions struct {
	SyncWrites bool
	// InMemory ignores the path and keeps everything in RAM.
	InMemory bool
}

type badgerCollection struct {
	db *badger.DB
}

// NewBadgerOpener returns an Opener that stores each collection in its own
// badger directory at path.
func NewBadgerOpener(logger *slog.Logger, o BadgerOptions) Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(path string) (Collection, error) {
		opts := badger.DefaultOptions(path)
		if o.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		}
		opts = opts.WithSyncWrites(o.SyncWrites)
		opts.Logger = &badgerLogger{logger: logger.With("collection", path)}

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("badger: open %s: %w", path, err)
		}
		return &badgerCollection{db: db}, nil
	}
}

func (c *badgerCollection) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (c *badgerCollection) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes key. Deleting an absent key returns ErrNotFound.
func (c *badgerCollection) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete([]byte(key))
	})
}

func (c *badgerCollection) Keys(prefix string) ([]string, error) {
	keys := []string{}
	err := c.scan(prefix, func(k []byte) {
		keys = append(keys, string(k))
	})
	return keys, err
}

func (c *badgerCollection) Count() (int, error) {
	n := 0
	err := c.scan("", func([]byte) { n++ })
	return n, err
}

func (c *badgerCollection) scan(prefix string, fn func(key []byte)) error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			fn(it.Item().KeyCopy(nil))
		}
		return nil
	})
}

func (c *badgerCollection) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("badger: close: %w", err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface. Badger is
// chatty at Info, so its Info lines are logged at Debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
