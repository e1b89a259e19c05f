package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foncier-search/internal/db"
	"foncier-search/internal/logger"
)

func TestRunner_MissingSourceAbortsBeforeWork(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	dir := t.TempDir()
	writeFile(t, dir, "batiments.csv", "id;geometry;commune\nB1;;34172\n")
	// None of the other expected files exist.

	runner := &Runner{DB: database, Log: logger.New("test"), Workers: 2}
	_, err = runner.Run(context.Background(), Sources(dir))
	require.ErrorIs(t, err, ErrMissingSource)

	// Nothing was ingested, not even the file that does exist.
	buildings, err := database.Buildings()
	require.NoError(t, err)
	assert.Empty(t, buildings)
}

func TestRunner_IngestsAllSources(t *testing.T) {
	database, err := db.NewMemory()
	require.NoError(t, err)
	defer database.Close()

	dir := t.TempDir()
	writeFile(t, dir, "batiments.csv", "id;geometry;commune\nB1;;34172\nB2;;34172\n")
	writeFile(t, dir, "dpe.csv", "building_id;class;surface;date;gn;gs;ge;gw;pool;garage;veranda\nB1;D;45;2024-05-10;0;0;0;0;0;0;0\n")
	writeFile(t, dir, "transactions.csv", "id;date;price;built;land;building;dwellings\nT1;2024-03-15;300000;45;450;B1;1\n")
	writeFile(t, dir, "transaction_parcelles.csv", "transaction_id;parcel_id\nT1;P1\n")
	writeFile(t, dir, "parcelle_bati.csv", "parcel_id;building_id\nP1;B1\n")
	writeFile(t, dir, "filiation.csv", "parent_id;child_id\nP0;P1\n")
	writeFile(t, dir, "permis_amenager.csv", "id;date;surface;commune;parcel\nPA1;2023-06-01;5000;34172;P0\n")
	writeFile(t, dir, "permis_construire.csv", "id;parcel;nature;destination;annexes\nPC1;P1;1;1;garage\n")

	runner := &Runner{
		DB:                 database,
		Log:                logger.New("test"),
		Workers:            4,
		CheckpointInterval: time.Second,
	}

	stats, err := runner.Run(context.Background(), Sources(dir))
	require.NoError(t, err)
	require.Len(t, stats, 8)

	assert.Equal(t, 2, stats["buildings"].Inserted)
	assert.Equal(t, 1, stats["diagnostics"].Inserted)
	assert.Equal(t, 1, stats["transactions"].Inserted)
	assert.Equal(t, 1, stats["subdivision_permits"].Inserted)
	for name, s := range stats {
		assert.Zero(t, s.Skipped, "unexpected skips in %s", name)
	}
}
