package toy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/cffkit/internal/spellforce"
)

func builtin(t *testing.T) []byte {
	t.Helper()
	cat, err := spellforce.Catalog("1.54")
	require.NoError(t, err)
	data, err := Build(cat, Options{Seed: 7, ExtraItems: 3})
	require.NoError(t, err)
	return data
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	a, b := builtin(t), builtin(t)
	assert.Equal(t, a, b)
	assert.Equal(t, Magic, string(a[:len(Magic)]))

	cat, err := spellforce.Catalog("1.54")
	require.NoError(t, err)
	other, err := Build(cat, Options{Seed: 8, ExtraItems: 3})
	require.NoError(t, err)
	assert.Len(t, other, len(a))
	assert.NotEqual(t, a, other, "seed changes filler values")
}

func TestLoadRoundTrips(t *testing.T) {
	t.Parallel()

	cat, err := spellforce.Catalog("1.54")
	require.NoError(t, err)
	g, err := Load(cat, Options{ExtraItems: 2})
	require.NoError(t, err)

	items, err := g.Lookup(spellforce.TableItem)
	require.NoError(t, err)
	assert.Equal(t, 5, items.Len())
	assert.Equal(t, 2, g.Diagnostics().Len(), "filler subtypes have no enum")

	loc, err := g.Lookup(spellforce.TableLocalisation)
	require.NoError(t, err)
	assert.Equal(t, len(fixture[spellforce.TableLocalisation]), loc.Len())

	data, err := Build(cat, Options{ExtraItems: 2})
	require.NoError(t, err)
	out, err := g.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLoadIgnoresIntegrityAssertions(t *testing.T) {
	t.Parallel()

	cat, err := spellforce.Catalog("1.54")
	require.NoError(t, err)
	cat.Length = 1
	cat.Checksum = "00"
	cat.Tables[3].Offset = 99

	_, err = Load(cat, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(99), cat.Tables[3].Offset, "caller's catalog is untouched")
}
