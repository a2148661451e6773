package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/davidvella/byname/customer"
	"github.com/go-logr/logr"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store: closed")

const (
	namespace = "customer"
	separator = '/'

	// Pending writes are committed once a batch grows past this many bytes.
	maxBatchBytes = 4 << 20
)

// Options configures a Store.
type Options struct {
	// CacheSize is the size of the block cache in bytes.
	CacheSize int64
	// MaxOpenFiles bounds the number of open sstables.
	MaxOpenFiles int
	// Sync makes every write durable before it returns.
	Sync bool
	// Logger receives diagnostic messages. Defaults to logr.Discard().
	Logger logr.Logger
}

// DefaultOptions returns options suitable for a benchmark table.
func DefaultOptions() Options {
	return Options{
		CacheSize:    64 << 20,
		MaxOpenFiles: 100,
		Logger:       logr.Discard(),
	}
}

// Store is a customer table kept in pebble. Rows are keyed by warehouse,
// district, last name and id, so one by-name group is a single prefix scan.
type Store struct {
	mu     sync.RWMutex
	db     *pebble.DB
	write  *pebble.WriteOptions
	log    logr.Logger
	closed bool
}

// Open opens or creates a store in the directory at path.
func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	cache := pebble.NewCache(opts.CacheSize)
	defer cache.Unref()

	db, err := pebble.Open(path, &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: opts.MaxOpenFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	write := pebble.NoSync
	if opts.Sync {
		write = pebble.Sync
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	return &Store{db: db, write: write, log: log.WithValues("path", path)}, nil
}

// Put inserts or replaces customers. Large inputs are committed in several
// batches; on error the batches committed before it stay written.
func (s *Store) Put(ctx context.Context, customers ...customer.Customer) error {
	return s.apply(ctx, len(customers), func(b *pebble.Batch, i int) error {
		c := customers[i]
		value, err := encode(c)
		if err != nil {
			return fmt.Errorf("failed to encode customer %d: %w", c.ID, err)
		}
		return b.Set(rowKey(c), value, nil)
	})
}

// Delete removes customers by key. Missing rows are ignored. Like Put, an
// error can leave earlier batches applied.
func (s *Store) Delete(ctx context.Context, customers ...customer.Customer) error {
	return s.apply(ctx, len(customers), func(b *pebble.Batch, i int) error {
		return b.Delete(rowKey(customers[i]), nil)
	})
}

func (s *Store) apply(ctx context.Context, n int, op func(*pebble.Batch, int) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	batch := s.db.NewBatch()
	defer func() { batch.Close() }()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := op(batch, i); err != nil {
			return err
		}
		if batch.Len() > maxBatchBytes {
			if err := batch.Commit(s.write); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			batch.Close()
			batch = s.db.NewBatch()
		}
	}

	if batch.Empty() {
		return nil
	}
	if err := batch.Commit(s.write); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.log.V(2).Info("committed rows", "count", n)
	return nil
}

// ByName returns every customer of the group selected by params in id order.
func (s *Store) ByName(ctx context.Context, params customer.Params) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	prefix := groupPrefix(params.WarehouseID, params.DistrictID, params.Last)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over group: %w", err)
	}
	defer iter.Close()

	var out []customer.Customer
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := decode(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to decode key %q: %w", iter.Key(), err)
		}
		if !params.Matches(c) {
			s.log.V(2).Info("skipped row outside group", "key", iter.Key())
			continue
		}
		out = append(out, c)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate over group: %w", err)
	}

	s.log.V(1).Info("loaded group", "last", params.Last, "district", params.DistrictID,
		"warehouse", params.WarehouseID, "rows", len(out))
	return out, nil
}

// Close flushes and closes the store. Closing twice returns ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.db.Close()
}

// groupPrefix is customer/<w>/<d>/<len(last)><last>. The integers are big
// endian with the sign bit flipped so that keys sort numerically. The last
// name is length prefixed, so no group's prefix is a prefix of another's.
func groupPrefix(warehouseID, districtID int32, last string) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(namespace)+len(last)+binary.MaxVarintLen64+11))
	buf.WriteString(namespace)
	buf.WriteByte(separator)
	buf.Write(orderedInt32(warehouseID))
	buf.WriteByte(separator)
	buf.Write(orderedInt32(districtID))
	buf.WriteByte(separator)
	buf.Write(binary.AppendUvarint(nil, uint64(len(last))))
	buf.WriteString(last)
	return buf.Bytes()
}

func rowKey(c customer.Customer) []byte {
	return append(groupPrefix(c.WarehouseID, c.DistrictID, c.Last), orderedInt32(c.ID)...)
}

func orderedInt32(v int32) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(v)^(1<<31))
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func encode(c customer.Customer) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (customer.Customer, error) {
	var c customer.Customer
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c)
	return c, err
}
