// Package hashcache memoizes content hashes of installed files so
// repeated health checks skip rehashing unchanged files.
//
// A cached hash is trusted only when the file's current size and mtime
// match the values recorded when the hash was computed; any divergence
// falls back to a full rehash. The cache is an optimization, never a
// source of truth.
package hashcache

import (
	"bytes"
	"encoding/gob"

	"github.com/dgraph-io/badger/v4"
)

// keySeparator separates root from relative path in cache keys.
const keySeparator = '\x00'

// entry is the cached hash with the stat fingerprint it was computed under.
type entry struct {
	Size  int64
	Mtime int64 // UnixNano
	Hash  string
}

func (e *entry) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *entry) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// makeKey creates a cache key from root and relative path.
func makeKey(root, relPath string) []byte {
	return []byte(root + string(keySeparator) + relPath)
}

// makeKeyPrefix returns the prefix for all keys under a root.
func makeKeyPrefix(root string) []byte {
	return []byte(root + string(keySeparator))
}

// Cache wraps Badger for hash memoization.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached hash for root/relPath if the recorded size
// and mtime still match. A miss for any reason returns ok=false.
func (c *Cache) Lookup(root, relPath string, size, mtime int64) (hash string, ok bool) {
	key := makeKey(root, relPath)
	var e entry

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(e.decode)
	})
	if err != nil {
		return "", false
	}

	if e.Size != size || e.Mtime != mtime {
		return "", false
	}
	return e.Hash, true
}

// Store records a freshly computed hash with its stat fingerprint.
// Store errors are swallowed: a failed memoization costs a future rehash,
// nothing more.
func (c *Cache) Store(root, relPath string, size, mtime int64, hash string) {
	e := entry{Size: size, Mtime: mtime, Hash: hash}
	value, err := e.encode()
	if err != nil {
		return
	}

	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(root, relPath), value)
	})
}

// Purge removes all cached hashes under a root. Uninstall calls this so
// a later reinstall starts clean.
func (c *Cache) Purge(root string) error {
	prefix := makeKeyPrefix(root)

	return c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}
