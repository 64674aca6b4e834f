package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepositoryMissingFileIsEmpty(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "ratings.json"))
	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), snap.Version())
	assert.Zero(t, snap.Len())
}

func TestFileRepositorySaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "data", "ratings.json"))

	p := models.NewPlayerRating("Carlos Alcaraz", "Carlos Alcaraz")
	p.Overall = 1843.5
	p.Surfaces[models.SurfaceClay] = 1901.25
	p.SurfaceMatches[models.SurfaceClay] = 40
	p.Matches = 120
	key := models.MatchKey{Date: "2024-06-09", Winner: "Carlos Alcaraz", Loser: "Alexander Zverev"}
	snap := models.NewRatingSnapshot(12, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), []*models.PlayerRating{p}, []models.MatchKey{key})

	require.NoError(t, repo.Save(context.Background(), snap))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Version(), loaded.Version())
	assert.Equal(t, snap.Players(), loaded.Players())
	assert.True(t, loaded.HasApplied(key))

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileRepository(path).Load(context.Background())
	assert.Error(t, err)
}
