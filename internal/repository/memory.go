package repository

import (
	"github.com/patrickmn/go-cache"
	"sort"
	"strings"
	"sync"
)

type memoryBackend struct {
	mu     sync.Mutex
	tables map[table]*cache.Cache
}

// NewMemoryStore keeps the tables in process memory. Records never expire.
func NewMemoryStore() Store {
	b := &memoryBackend{tables: map[table]*cache.Cache{}}
	for _, t := range tables {
		b.tables[t] = cache.New(cache.NoExpiration, 0)
	}

	return newStore(b)
}

func (b *memoryBackend) get(t table, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.read(t, key)
}

func (b *memoryBackend) put(t table, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tables[t].Set(key, copyBytes(value), cache.NoExpiration)
	return nil
}

func (b *memoryBackend) delete(t table, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tables[t].Delete(key)
	return nil
}

func (b *memoryBackend) upsert(t table, key string, fn func(value []byte, found bool) ([]byte, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	value, err := b.read(t, key)
	found := err == nil
	if err != nil && err != errRecordNotFound {
		return err
	}

	updated, err := fn(value, found)
	if err != nil {
		return err
	}
	b.tables[t].Set(key, updated, cache.NoExpiration)

	return nil
}

func (b *memoryBackend) scan(t table, prefix string, fn func(key string, value []byte) error) error {
	b.mu.Lock()
	items := b.tables[t].Items()
	b.mu.Unlock()

	keys := make([]string, 0, len(items))
	for key := range items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := fn(key, copyBytes(items[key].Object.([]byte))); err != nil {
			return err
		}
	}

	return nil
}

func (b *memoryBackend) close() error {
	return nil
}

func (b *memoryBackend) read(t table, key string) ([]byte, error) {
	value, found := b.tables[t].Get(key)
	if !found {
		return nil, errRecordNotFound
	}

	return copyBytes(value.([]byte)), nil
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
