package reload

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/cffkit/internal/spellforce"
	"github.com/samcharles93/cffkit/internal/toy"
	"github.com/samcharles93/cffkit/pkg/cff"
)

func writeToy(t *testing.T, dir string, extra int) (string, cff.Catalog) {
	t.Helper()
	cat, err := spellforce.Catalog("1.54")
	require.NoError(t, err)
	data, err := toy.Build(cat, toy.Options{ExtraItems: extra})
	require.NoError(t, err)
	path := filepath.Join(dir, "GameData.cff")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, *cat
}

func loaderFor(cat cff.Catalog) Loader {
	return func(data []byte) (*cff.GameData, error) { return cff.Load(data, &cat) }
}

func itemCount(t *testing.T, h *Holder) int {
	t.Helper()
	var n int
	require.NoError(t, h.View(func(g *cff.GameData) error {
		items, err := g.Lookup(spellforce.TableItem)
		if err != nil {
			return err
		}
		n = items.Len()
		return nil
	}))
	return n
}

func TestOpenAndReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, cat := writeToy(t, dir, 0)
	h, err := Open(path, loaderFor(cat), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Generation())
	assert.Equal(t, 3, itemCount(t, h))

	changed, err := h.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "same content")

	writeToy(t, dir, 2)
	changed, err = h.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, uint64(2), h.Generation())
	assert.Equal(t, 5, itemCount(t, h))
}

func TestReloadKeepsDataOnParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, cat := writeToy(t, dir, 0)
	h, err := Open(path, loaderFor(cat), nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	changed, err := h.Reload()
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, 3, itemCount(t, h))
	assert.Equal(t, uint64(1), h.Generation())
}

func TestSaveIsNotReloaded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, cat := writeToy(t, dir, 0)
	h, err := Open(path, loaderFor(cat), nil)
	require.NoError(t, err)

	require.NoError(t, h.Update(func(g *cff.GameData) error {
		items, err := g.Lookup(spellforce.TableItem)
		if err != nil {
			return err
		}
		row, err := items.Row(0)
		if err != nil {
			return err
		}
		return row.Set("selling_price", 999)
	}))
	assert.True(t, h.Dirty())

	n, err := h.Save()
	require.NoError(t, err)
	assert.False(t, h.Dirty())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(n), info.Size())

	changed, err := h.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "own save")
	assert.Equal(t, uint64(1), h.Generation())
}

func TestUpdateDirtyOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	path, cat := writeToy(t, t.TempDir(), 0)
	h, err := Open(path, loaderFor(cat), nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = h.Update(func(*cff.GameData) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.Dirty())

	require.NoError(t, h.Update(func(*cff.GameData) error { return nil }))
	assert.True(t, h.Dirty())
}

func TestParallelViewsAfterPrimaryKeyUpdate(t *testing.T) {
	t.Parallel()

	path, cat := writeToy(t, t.TempDir(), 2)
	h, err := Open(path, loaderFor(cat), nil)
	require.NoError(t, err)

	require.NoError(t, h.Update(func(g *cff.GameData) error {
		items, err := g.Lookup(spellforce.TableItem)
		if err != nil {
			return err
		}
		e, err := items.Row(0)
		if err != nil {
			return err
		}
		return e.Set("item_id", 77)
	}))

	var wg sync.WaitGroup
	found := make([]int, 8)
	for i := range found {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.View(func(g *cff.GameData) error {
				items, err := g.Lookup(spellforce.TableItem)
				if err != nil {
					return err
				}
				rows, err := items.Where(cff.Constraints{"item_id": 77})
				found[i] = len(rows)
				return err
			})
		}()
	}
	wg.Wait()
	for i, n := range found {
		assert.Equal(t, 1, n, "reader %d", i)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.cff"), loaderFor(cff.Catalog{}), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path, _ := writeToy(t, t.TempDir(), 0)
	_, err = Open(path, func([]byte) (*cff.GameData, error) { return nil, cff.ErrTruncated }, nil)
	assert.ErrorIs(t, err, cff.ErrTruncated)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, cat := writeToy(t, dir, 0)
	h, err := Open(path, loaderFor(cat), nil)
	require.NoError(t, err)

	w, err := h.StartWatching(20 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
	writeToy(t, dir, 4)

	require.Eventually(t, func() bool { return h.Generation() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 7, itemCount(t, h))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "close is idempotent")
}
