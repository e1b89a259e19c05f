package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foncier-search/internal/db"
	"foncier-search/internal/ingest"
	"foncier-search/internal/logger"
	"foncier-search/internal/models"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// fixtureDataDir lays out a small but complete source set: one subdivision
// permit with three lots, a bulk land purchase, a renovation sale, a
// serviced-lot sale and one ambiguous sale.
func fixtureDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// B2 has no geometry and must end up coordinate-less.
	writeFixture(t, dir, "batiments.csv",
		"id;geometry;commune\n"+
			"B1;POLYGON((649999 6864000,650001 6864000,650001 6864002,649999 6864002));75056\n"+
			"B2;;75056\n")

	writeFixture(t, dir, "dpe.csv",
		"building_id;class;surface;date;gn;gs;ge;gw;pool;garage;veranda\n"+
			"B1;C;45;2018-10-21;0;1.5;0;0;0;0;0\n"+
			"B1;D;45;2024-05-10;0;2.5;0;0;0;0;0\n")

	writeFixture(t, dir, "transactions.csv",
		"id;date;price;built;land;building;dwellings\n"+
			"T0;2023-09-01;500000;0;5200;;0\n"+
			"T1;2024-03-15;300000;45;600;B1;1\n"+
			"T2;2024-03-01;130000;0;650;;1\n"+
			"T3;2024-04-01;110000;0;550;;0\n")

	writeFixture(t, dir, "transaction_parcelles.csv",
		"transaction_id;parcel_id\n"+
			"T0;P1\nT0;P2\nT1;P1\nT2;P2\nT3;P3\n")

	writeFixture(t, dir, "parcelle_bati.csv",
		"parcel_id;building_id\nP1;B1\nP2;B1\nP3;B1\n")

	writeFixture(t, dir, "filiation.csv",
		"parent_id;child_id\nP0;P1\nP0;P2\nP0;P3\n")

	writeFixture(t, dir, "permis_amenager.csv",
		"id;date;surface;commune;parcel\nPA1;2023-06-01;5000;75056;P0\n")

	writeFixture(t, dir, "permis_construire.csv",
		"id;parcel;nature;destination;annexes\n"+
			"PC1;P1;2;1;véranda\n"+
			"PC2;P2;1;1;Annexes Multiples\n")

	return dir
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return &Pipeline{
		DB:                 database,
		Log:                logger.New("test"),
		Workers:            2,
		CheckpointInterval: time.Second,
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	p := newPipeline(t)
	dataDir := fixtureDataDir(t)

	summary, err := p.Run(context.Background(), dataDir)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.BuildingsProjected)
	assert.Equal(t, 1, summary.ProjectionFailures) // B2 has no geometry
	assert.Equal(t, 3, summary.RecordsEmitted)
	assert.Equal(t, 1, summary.DiagnosticsMatched)
	assert.Zero(t, summary.DroppedNoCoordinates)
	assert.Equal(t, 1, summary.DroppedAmbiguous) // T3 has no qualifying permit

	items, err := p.DB.ListLandRecords(db.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	byTx := make(map[string]*models.LandRecord)
	for _, item := range items {
		rec, err := p.DB.GetLandRecord(item.ID)
		require.NoError(t, err)
		byTx[rec.TransactionID] = rec
	}

	// The bulk purchase of the raw land.
	t0 := byTx["T0"]
	require.NotNil(t, t0)
	assert.Equal(t, models.StatusNonViabilise, t0.Status)
	assert.Equal(t, "PA1", t0.PermitID)

	// The renovation sale picks up the post-sale diagnostic (56 days
	// after the transaction, inside the future window) and the permit's
	// conservatory annex.
	t1 := byTx["T1"]
	require.NotNil(t, t1)
	assert.Equal(t, models.StatusRenovation, t1.Status)
	require.True(t, t1.DiagnosticClass.Valid)
	assert.Equal(t, "D", t1.DiagnosticClass.String)
	assert.InDelta(t, 2.5, t1.GlazingSouth.Float64, 1e-9)
	assert.True(t, t1.Conservatory)

	// The serviced lot; the "multiple annexes" sentinel implies a garage.
	t2 := byTx["T2"]
	require.NotNil(t, t2)
	assert.Equal(t, models.StatusViabilise, t2.Status)
	assert.True(t, t2.Garage)
	assert.False(t, t2.Pool)
	assert.False(t, t2.DiagnosticClass.Valid)

	// T3 had no qualifying building permit: dropped as ambiguous.
	assert.NotContains(t, byTx, "T3")

	// Every status-tagged row carries coordinates near the fixture
	// building.
	for _, rec := range byTx {
		assert.InDelta(t, 48.87, rec.Latitude, 0.1)
		assert.InDelta(t, 2.32, rec.Longitude, 0.1)
	}

	// Derived metrics.
	require.True(t, t1.PricePerBuilt.Valid)
	assert.InDelta(t, 300000.0/45.0, t1.PricePerBuilt.Float64, 1e-6)
	require.True(t, t2.PricePerLand.Valid)
	assert.InDelta(t, 130000.0/650.0, t2.PricePerLand.Float64, 1e-6)
	assert.False(t, t2.PricePerBuilt.Valid)
}

func TestPipeline_Idempotent(t *testing.T) {
	p := newPipeline(t)
	dataDir := fixtureDataDir(t)

	_, err := p.Run(context.Background(), dataDir)
	require.NoError(t, err)
	first := snapshotRecords(t, p.DB)

	_, err = p.Run(context.Background(), dataDir)
	require.NoError(t, err)
	second := snapshotRecords(t, p.DB)

	assert.Equal(t, first, second)
}

func TestPipeline_MissingSourceFails(t *testing.T) {
	p := newPipeline(t)
	dataDir := t.TempDir() // empty

	_, err := p.Run(context.Background(), dataDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrMissingSource)
}

// snapshotRecords captures the output table content in transaction order,
// ignoring the autoincrement ids which restart on every rebuild.
func snapshotRecords(t *testing.T, database *db.DB) []models.LandRecord {
	t.Helper()

	items, err := database.ListLandRecords(db.RecordFilter{})
	require.NoError(t, err)

	records := make([]models.LandRecord, 0, len(items))
	for _, item := range items {
		rec, err := database.GetLandRecord(item.ID)
		require.NoError(t, err)
		rec.ID = 0
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TransactionID < records[j].TransactionID
	})
	return records
}
