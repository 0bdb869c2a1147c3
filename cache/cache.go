// Package cache stores geometries loaded from slow sources, like a PostGIS
// query, in a local Badger database.
package cache

import (
	"crypto/sha1"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/omniscale/geosprep/logging"
)

var log = logging.NewLogger("cache")

type Cache struct {
	db  *badger.DB
	dir string
}

// Open opens or creates the cache in dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating cache dir %s", dir)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{log}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache %s", dir)
	}
	return &Cache{db: db, dir: dir}, nil
}

// Key returns the cache key for the geometries of a source, e.g. the
// connection and query.
func Key(parts ...string) []byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}

// Get returns the entry for key. The bool is false if the key is not cached.
func (c *Cache) Get(key []byte) (Entry, bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return Entry{}, false, errors.Wrap(err, "reading cache")
	}
	if data == nil {
		return Entry{}, false, nil
	}
	entry, err := UnmarshalEntry(data)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (c *Cache) Put(key []byte, entry Entry) error {
	data, err := entry.Marshal()
	if err != nil {
		return err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	return errors.Wrap(err, "writing cache")
}

func (c *Cache) Delete(key []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	return errors.Wrap(err, "deleting from cache")
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// badgerLogger sends Badger messages to the cache logger. Info messages are
// only logged at debug level.
type badgerLogger struct {
	log *logging.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
