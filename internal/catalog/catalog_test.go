package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"isuclicker-api/internal/model"
	"isuclicker-api/internal/numeric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 13, c.Len())

	first := c.Items()[0]
	assert.Equal(t, 1, first.ItemID)
	assert.Equal(t, numeric.Curve{A: 0, B: 1, C: 0, D: 1}, first.Power)
	assert.Equal(t, numeric.Curve{A: 0, B: 1, C: 1, D: 1}, first.Price)

	it, ok := c.Item(13)
	require.True(t, ok)
	assert.Equal(t, numeric.Curve{A: 11000, B: 11000, C: 11000, D: 23}, it.Power)

	_, ok = c.Item(14)
	assert.False(t, ok)
}

func TestItemsSorted(t *testing.T) {
	c := MustNew(
		model.Item{ItemID: 3},
		model.Item{ItemID: 1},
		model.Item{ItemID: 2},
	)
	var ids []int
	for _, it := range c.Items() {
		ids = append(ids, it.ItemID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestNewRejectsBadIDs(t *testing.T) {
	_, err := New([]model.Item{{ItemID: 1}, {ItemID: 1}})
	assert.Error(t, err)

	_, err = New([]model.Item{{ItemID: 0}})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	raw := []byte(`items:
  - item_id: 7
    power: {a: 0, b: 1, c: 0, d: 10}
    price: {a: 0, b: 1, c: 0, d: 10}
`)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	it, ok := c.Item(7)
	require.True(t, ok)
	assert.Equal(t, "10", it.GetPrice(1).String())
	assert.Equal(t, "10", it.GetPower(3).String())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("items: [1, 2"))
	assert.Error(t, err)
}
