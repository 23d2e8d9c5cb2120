package engine

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldbiterator "github.com/syndtr/goleveldb/leveldb/iterator"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelDB adapts goleveldb to the Engine contract.
type levelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a file-backed goleveldb database.
func OpenLevelDB(path string) (Engine, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}
	return &levelDB{db: db}, nil
}

// OpenMemory opens a goleveldb database on in-memory storage. Contents are
// lost on Close; intended for tests and throwaway workloads.
func OpenMemory() (Engine, error) {
	db, err := leveldb.Open(ldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory engine: %w", err)
	}
	return &levelDB{db: db}, nil
}

func (l *levelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err == leveldb.ErrClosed {
		return nil, ErrClosed
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}
	return v, nil
}

func (l *levelDB) Write(b *Batch) error {
	wb := new(leveldb.Batch)
	for _, op := range b.ops {
		if op.delete {
			wb.Delete(op.key)
		} else {
			wb.Put(op.key, op.value)
		}
	}
	if err := l.db.Write(wb, nil); err != nil {
		if err == leveldb.ErrClosed {
			return ErrClosed
		}
		return fmt.Errorf("leveldb write: %w", err)
	}
	return nil
}

func (l *levelDB) Scan(start, limit []byte) (Iterator, error) {
	it := l.db.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
	return &levelIterator{it: it}, nil
}

// Sync is a no-op: goleveldb persists through its write-ahead journal on
// every Write.
func (l *levelDB) Sync() error {
	return nil
}

func (l *levelDB) Close() error {
	if err := l.db.Close(); err != nil {
		if err == leveldb.ErrClosed {
			return ErrClosed
		}
		return fmt.Errorf("leveldb close: %w", err)
	}
	return nil
}

type levelIterator struct {
	it ldbiterator.Iterator
}

func (i *levelIterator) Next() bool    { return i.it.Next() }
func (i *levelIterator) Key() []byte   { return i.it.Key() }
func (i *levelIterator) Value() []byte { return i.it.Value() }
func (i *levelIterator) Err() error    { return i.it.Error() }

func (i *levelIterator) Close() error {
	i.it.Release()
	return nil
}
