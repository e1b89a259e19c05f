package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foncier-search/internal/db"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func buildingsSource(file string, batchSize int) Source {
	return Source{
		Name:      "buildings",
		File:      file,
		Table:     "buildings",
		Columns:   []string{"id", "commune", "geometry"},
		Op:        OpBuildings,
		BatchSize: batchSize,
		Delimiter: ';',
	}
}

func TestLoadSource_CountsSkipsAndDuplicates(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	csv := "id;geometry;commune\n" +
		"B1;POLYGON((0 0,1 1));34172\n" +
		"B2;;34172\n" +
		";missing id;34172\n" + // malformed: no id
		"B3\n" + // malformed: too few columns
		"B1;POLYGON((2 2,3 3));34172\n" // duplicate key

	dir := t.TempDir()
	src := buildingsSource(writeFile(t, dir, "batiments.csv", csv), 2)

	stats, err := LoadSource(context.Background(), database, src)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Read)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Duplicates)

	// First writer wins on the duplicate key.
	buildings, err := database.Buildings()
	require.NoError(t, err)
	require.Len(t, buildings, 2)
	for _, b := range buildings {
		if b.ID == "B1" {
			assert.Equal(t, "POLYGON((0 0,1 1))", b.Geometry.String)
		}
	}
}

func TestLoadSource_EmptyFile(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	dir := t.TempDir()
	src := buildingsSource(writeFile(t, dir, "batiments.csv", ""), 10)

	stats, err := LoadSource(context.Background(), database, src)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestLoadSource_HeaderOnly(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	dir := t.TempDir()
	src := buildingsSource(writeFile(t, dir, "batiments.csv", "id;geometry;commune\n"), 10)

	stats, err := LoadSource(context.Background(), database, src)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestLoadSource_FlushesPartialFinalBatch(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	csv := "id;geometry;commune\n"
	for _, id := range []string{"B1", "B2", "B3", "B4", "B5"} {
		csv += id + ";;34172\n"
	}

	dir := t.TempDir()
	src := buildingsSource(writeFile(t, dir, "batiments.csv", csv), 2)

	stats, err := LoadSource(context.Background(), database, src)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Inserted)
}

func TestLoadSource_MissingFile(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	src := buildingsSource(filepath.Join(t.TempDir(), "absent.csv"), 10)
	_, err = LoadSource(context.Background(), database, src)
	assert.Error(t, err)
}
