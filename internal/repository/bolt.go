package repository

import (
	"bytes"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"time"
)

const (
	// dbFilename is the default filename of the marketplace database.
	dbFilename = "marketplace.db"

	// dbFilePermission is the default permission the database file is created with.
	dbFilePermission = 0600
)

type boltBackend struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the bolt database in dir with one bucket per table.
func NewBoltStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, dbFilename)
	db, err := bbolt.Open(path, dbFilePermission, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("path", path)).Error("Store: Failed to open bolt database")
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, t := range tables {
			if _, err := tx.CreateBucketIfNotExists([]byte(t)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	zap.L().With(zap.String("path", path)).Info("Store: Opened bolt database")

	return newStore(&boltBackend{db}), nil
}

func (b *boltBackend) get(t table, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(t)).Get([]byte(key))
		if v == nil {
			return errRecordNotFound
		}
		value = copyBytes(v)
		return nil
	})

	return value, err
}

func (b *boltBackend) put(t table, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(t)).Put([]byte(key), value)
	})
}

func (b *boltBackend) delete(t table, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(t)).Delete([]byte(key))
	})
}

func (b *boltBackend) upsert(t table, key string, fn func(value []byte, found bool) ([]byte, error)) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(t))

		var value []byte
		v := bucket.Get([]byte(key))
		if v != nil {
			value = copyBytes(v)
		}

		updated, err := fn(value, v != nil)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(key), updated)
	})
}

func (b *boltBackend) scan(t table, prefix string, fn func(key string, value []byte) error) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(t)).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if err := fn(string(k), copyBytes(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltBackend) close() error {
	return b.db.Close()
}
