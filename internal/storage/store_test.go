package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/bidgap/internal/model"
)

func f(v float64) *float64 { return &v }

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)
	return s
}

func TestUpsertAndGet(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Upsert(model.Product{UPC: "012345678905", Name: "Stand Mixer"}))

	p, ok := s.Get("012345678905")
	require.True(t, ok)
	assert.Equal(t, "Stand Mixer", p.Name)
	assert.Equal(t, 1, s.Len())
}

func TestUpsertRequiresUPC(t *testing.T) {
	s := tempStore(t)
	assert.Error(t, s.Upsert(model.Product{Name: "no upc"}))
}

func TestUpsertMergeKeepsResearch(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Upsert(model.Product{
		UPC:             "1",
		Name:            "Blender",
		EbaySoldAverage: f(42.50),
		AmazonPrice:     f(0), // a real zero, must survive the merge
	}))

	// A later scrape pass carries no research data; it must not wipe it.
	require.NoError(t, s.Upsert(model.Product{
		UPC:       "1",
		Condition: "Open Box",
	}))

	p, _ := s.Get("1")
	assert.Equal(t, "Open Box", p.Condition)
	require.NotNil(t, p.EbaySoldAverage)
	assert.Equal(t, 42.50, *p.EbaySoldAverage)
	require.NotNil(t, p.AmazonPrice)
	assert.Equal(t, 0.0, *p.AmazonPrice)
}

func TestPutReplaces(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Upsert(model.Product{UPC: "1", Name: "Blender", RecommendedMaxBid: f(10)}))

	p, _ := s.Get("1")
	p.RecommendedMaxBid = nil // derived output cleared to absent
	require.NoError(t, s.Put(p))

	got, _ := s.Get("1")
	assert.Nil(t, got.RecommendedMaxBid)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Upsert(model.Product{UPC: "1", Name: "Blender", EbaySoldAverage: f(19.99)}))

	s2, err := Open(path)
	require.NoError(t, err)
	p, ok := s2.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Blender", p.Name)
	require.NotNil(t, p.EbaySoldAverage)
	assert.Equal(t, 19.99, *p.EbaySoldAverage)
}

func TestOpenCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, writeFile(path, "{not json"))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestFindByName(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Upsert(model.Product{UPC: "2", Name: "KitchenAid Stand Mixer"}))
	require.NoError(t, s.Upsert(model.Product{UPC: "1", Name: "Ninja Blender"}))
	require.NoError(t, s.Upsert(model.Product{UPC: "3", Name: "Hand Mixer"}))

	got := s.FindByName("mixer")
	require.Len(t, got, 2)
	// Ordered by UPC.
	assert.Equal(t, "2", got[0].UPC)
	assert.Equal(t, "3", got[1].UPC)
}

func TestNeedsResearch(t *testing.T) {
	s := tempStore(t)

	assert.True(t, s.NeedsResearch("missing", time.Hour), "unknown UPC")

	require.NoError(t, s.Upsert(model.Product{UPC: "1", Name: "Blender"}))
	assert.True(t, s.NeedsResearch("1", time.Hour), "no price data")

	require.NoError(t, s.Upsert(model.Product{
		UPC:             "1",
		EbaySoldAverage: f(20),
		LastResearched:  time.Now(),
	}))
	assert.False(t, s.NeedsResearch("1", time.Hour), "fresh research")

	require.NoError(t, s.Upsert(model.Product{
		UPC:             "2",
		Name:            "Old",
		AmazonPrice:     f(15),
		LastResearched:  time.Now().Add(-8 * 24 * time.Hour),
	}))
	assert.True(t, s.NeedsResearch("2", 7*24*time.Hour), "stale research")

	stale := s.StaleProducts(7 * 24 * time.Hour)
	require.Len(t, stale, 1)
	assert.Equal(t, "2", stale[0].UPC)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
