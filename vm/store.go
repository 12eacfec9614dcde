package vm

import (
	"errors"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Storage errors reported back to programs through the call status.
var (
	ErrNoFile     = errors.New("no such file")
	ErrFileExists = errors.New("file exists")
)

// MemStore is the in-memory file service, used when no store path is
// configured and in tests.
type MemStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Create(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; ok {
		return fmt.Errorf("%w: %s", ErrFileExists, name)
	}
	s.files[name] = nil
	return nil
}

func (s *MemStore) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Read(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, name)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoFile, name)
	}
	delete(s.files, name)
	return nil
}

func (s *MemStore) Copy(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFile, src)
	}
	s.files[dst] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Move(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFile, src)
	}
	s.files[dst] = data
	delete(s.files, src)
	return nil
}

func (s *MemStore) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

// filesBucket holds every stored file, keyed by name.
var filesBucket = []byte("files")

// BoltStore persists files in a bolt database so they survive across
// runs.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(filesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// bucketHas checks for a key without relying on Get, which reports
// empty values as nil.
func bucketHas(b *bolt.Bucket, name string) bool {
	k, _ := b.Cursor().Seek([]byte(name))
	return string(k) == name
}

func (s *BoltStore) Create(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		if bucketHas(b, name) {
			return fmt.Errorf("%w: %s", ErrFileExists, name)
		}
		return b.Put([]byte(name), []byte{})
	})
}

func (s *BoltStore) Write(name string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(filesBucket).Put([]byte(name), data)
	})
}

func (s *BoltStore) Read(name string) ([]byte, error) {
	data := []byte{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		if !bucketHas(b, name) {
			return fmt.Errorf("%w: %s", ErrNoFile, name)
		}
		data = append(data, b.Get([]byte(name))...)
		return nil
	})
	return data, err
}

func (s *BoltStore) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		if !bucketHas(b, name) {
			return fmt.Errorf("%w: %s", ErrNoFile, name)
		}
		return b.Delete([]byte(name))
	})
}

func (s *BoltStore) Copy(src, dst string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		if !bucketHas(b, src) {
			return fmt.Errorf("%w: %s", ErrNoFile, src)
		}
		return b.Put([]byte(dst), append([]byte(nil), b.Get([]byte(src))...))
	})
}

func (s *BoltStore) Move(src, dst string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(filesBucket)
		if !bucketHas(b, src) {
			return fmt.Errorf("%w: %s", ErrNoFile, src)
		}
		if err := b.Put([]byte(dst), append([]byte(nil), b.Get([]byte(src))...)); err != nil {
			return err
		}
		return b.Delete([]byte(src))
	})
}

func (s *BoltStore) Exists(name string) bool {
	var ok bool
	s.db.View(func(tx *bolt.Tx) error {
		ok = bucketHas(tx.Bucket(filesBucket), name)
		return nil
	})
	return ok
}
