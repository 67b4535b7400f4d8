package store

import (
	"fmt"
	"testing"

	"github.com/starnotary/notary/db"
	"github.com/starnotary/notary/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerFactory func(t *testing.T) db.IterableProvider

func backends() map[string]providerFactory {
	return map[string]providerFactory{
		"memory": func(t *testing.T) db.IterableProvider {
			p, err := db.NewMemLevelDBProvider()
			require.NoError(t, err)
			return p
		},
		"leveldb": func(t *testing.T) db.IterableProvider {
			p, err := db.NewLevelDBProvider(t.TempDir())
			require.NoError(t, err)
			return p
		},
		"bbolt": func(t *testing.T) db.IterableProvider {
			p, err := db.NewBoltProvider(t.TempDir())
			require.NoError(t, err)
			return p
		},
	}
}

func TestBlockStore_PutGetCount(t *testing.T) {
	for name, newProvider := range backends() {
		t.Run(name, func(t *testing.T) {
			s, err := NewGenericBlockStore(newProvider(t))
			require.NoError(t, err)
			defer s.MustClose()

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, uint64(0), n)

			for i := uint64(0); i < 3; i++ {
				require.NoError(t, s.Put(i, []byte(fmt.Sprintf("block-%d", i))))
			}

			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), n)

			v, err := s.Get(1)
			require.NoError(t, err)
			assert.Equal(t, "block-1", string(v))

			// overwrite does not change the count
			require.NoError(t, s.Put(1, []byte("again")))
			v, err = s.Get(1)
			require.NoError(t, err)
			assert.Equal(t, "again", string(v))
			n, _ = s.Count()
			assert.Equal(t, uint64(3), n)
		})
	}
}

func TestBlockStore_GetMissing(t *testing.T) {
	for name, newProvider := range backends() {
		t.Run(name, func(t *testing.T) {
			s, err := NewGenericBlockStore(newProvider(t))
			require.NoError(t, err)
			defer s.MustClose()

			_, err = s.Get(42)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrNotFound)
			assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
		})
	}
}

func TestBlockStore_ScanOrdered(t *testing.T) {
	for name, newProvider := range backends() {
		t.Run(name, func(t *testing.T) {
			s, err := NewGenericBlockStore(newProvider(t))
			require.NoError(t, err)
			defer s.MustClose()

			// heights above 255 check the big-endian key ordering
			heights := []uint64{0, 1, 2, 255, 256, 1000}
			for _, h := range heights {
				require.NoError(t, s.Put(h, []byte(fmt.Sprintf("%d", h))))
			}

			var seen []uint64
			err = s.Scan(func(height uint64, value []byte) bool {
				assert.Equal(t, fmt.Sprintf("%d", height), string(value))
				seen = append(seen, height)
				return true
			})
			require.NoError(t, err)
			assert.Equal(t, heights, seen)
		})
	}
}

func TestBlockStore_ScanStopsEarly(t *testing.T) {
	p, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)
	s, err := NewGenericBlockStore(p)
	require.NoError(t, err)
	defer s.MustClose()

	for i := uint64(0); i < 5; i++ {
		require.NoError(t, s.Put(i, []byte("x")))
	}

	visited := 0
	require.NoError(t, s.Scan(func(uint64, []byte) bool {
		visited++
		return visited < 2
	}))
	assert.Equal(t, 2, visited)
}

func TestBlockStore_ScanSkipsMalformedKeys(t *testing.T) {
	p, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)
	s, err := NewGenericBlockStore(p)
	require.NoError(t, err)
	defer s.MustClose()

	require.NoError(t, s.Put(0, []byte("genesis")))
	require.NoError(t, p.Put([]byte(PrefixBlock+"junk"), []byte("junk")))
	require.NoError(t, s.Put(1, []byte("one")))

	var seen []uint64
	require.NoError(t, s.Scan(func(height uint64, _ []byte) bool {
		seen = append(seen, height)
		return true
	}))
	assert.Equal(t, []uint64{0, 1}, seen)
}

func TestBlockStore_CountSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	p, err := db.NewLevelDBProvider(dir)
	require.NoError(t, err)
	s, err := NewGenericBlockStore(p)
	require.NoError(t, err)
	require.NoError(t, s.Put(0, []byte("a")))
	require.NoError(t, s.Put(1, []byte("b")))
	s.MustClose()

	p, err = db.NewLevelDBProvider(dir)
	require.NoError(t, err)
	s, err = NewGenericBlockStore(p)
	require.NoError(t, err)
	defer s.MustClose()

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestBlockStore_CountRebuiltWhenRecordMissing(t *testing.T) {
	p, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)

	// blocks written by an older writer without the count record
	require.NoError(t, p.Put(heightToBlockKey(0), []byte("a")))
	require.NoError(t, p.Put(heightToBlockKey(1), []byte("b")))
	require.NoError(t, p.Put(heightToBlockKey(2), []byte("c")))

	s, err := NewGenericBlockStore(p)
	require.NoError(t, err)
	defer s.MustClose()

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	stored, err := p.Get(countKey())
	require.NoError(t, err)
	assert.Equal(t, encodeCount(3), stored)
}

func TestBlockStore_DeleteKeepsCount(t *testing.T) {
	p, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)
	s, err := NewGenericBlockStore(p)
	require.NoError(t, err)
	defer s.MustClose()

	require.NoError(t, s.Put(0, []byte("a")))
	require.NoError(t, s.Put(1, []byte("b")))
	require.NoError(t, s.Delete(1))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	_, err = s.Get(1)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestBlockStore_IOErrorCarriesKey(t *testing.T) {
	p, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)
	s, err := NewGenericBlockStore(p)
	require.NoError(t, err)

	require.NoError(t, p.Close())

	_, err = s.Get(7)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIO)

	var le *errors.LedgerError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "blocks:7", le.Key)
	assert.NotNil(t, le.Unwrap())

	err = s.Put(7, []byte("x"))
	assert.ErrorIs(t, err, errors.ErrIO)
}

func TestNewGenericBlockStoreRejectsNil(t *testing.T) {
	_, err := NewGenericBlockStore(nil)
	assert.Error(t, err)
}
