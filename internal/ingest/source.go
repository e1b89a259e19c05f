package ingest

import (
	"path/filepath"
)

// Source binds one delimited input file to one staging table and one named
// row transform. Each ingestion worker owns exactly one Source; no staging
// table is written by more than one worker.
type Source struct {
	Name      string
	File      string
	Table     string
	Columns   []string
	Op        Op
	BatchSize int
	Delimiter rune
}

// Sources returns the full set of expected input files under dataDir.
// Batch sizes are tuned per table: wide rows flush in smaller batches so
// peak memory stays bounded to one batch regardless of file size.
func Sources(dataDir string) []Source {
	return []Source{
		{
			Name:      "buildings",
			File:      filepath.Join(dataDir, "batiments.csv"),
			Table:     "buildings",
			Columns:   []string{"id", "commune", "geometry"},
			Op:        OpBuildings,
			BatchSize: 5000, // geometry text dominates row size
			Delimiter: ';',
		},
		{
			Name:  "diagnostics",
			File:  filepath.Join(dataDir, "dpe.csv"),
			Table: "diagnostics",
			Columns: []string{
				"building_id", "class", "surface", "issued_on",
				"glazing_north", "glazing_south", "glazing_east", "glazing_west",
				"pool", "garage", "conservatory",
			},
			Op:        OpDiagnostics,
			BatchSize: 50000,
			Delimiter: ';',
		},
		{
			Name:      "transactions",
			File:      filepath.Join(dataDir, "transactions.csv"),
			Table:     "transactions",
			Columns:   []string{"id", "date", "price", "built_surface", "land_surface", "building_id", "dwellings"},
			Op:        OpTransactions,
			BatchSize: 50000,
			Delimiter: ';',
		},
		{
			Name:      "transaction_parcels",
			File:      filepath.Join(dataDir, "transaction_parcelles.csv"),
			Table:     "transaction_parcels",
			Columns:   []string{"transaction_id", "parcel_id"},
			Op:        OpTransactionParcels,
			BatchSize: 100000,
			Delimiter: ';',
		},
		{
			Name:      "parcel_buildings",
			File:      filepath.Join(dataDir, "parcelle_bati.csv"),
			Table:     "parcel_buildings",
			Columns:   []string{"parcel_id", "building_id"},
			Op:        OpParcelBuildings,
			BatchSize: 100000,
			Delimiter: ';',
		},
		{
			Name:      "parcel_filiations",
			File:      filepath.Join(dataDir, "filiation.csv"),
			Table:     "parcel_filiations",
			Columns:   []string{"parent_id", "child_id"},
			Op:        OpParcelFiliations,
			BatchSize: 100000,
			Delimiter: ';',
		},
		{
			Name:      "subdivision_permits",
			File:      filepath.Join(dataDir, "permis_amenager.csv"),
			Table:     "subdivision_permits",
			Columns:   []string{"id", "authorized_on", "declared_surface", "commune", "parcel_id"},
			Op:        OpSubdivisionPermits,
			BatchSize: 10000,
			Delimiter: ';',
		},
		{
			Name:      "building_permits",
			File:      filepath.Join(dataDir, "permis_construire.csv"),
			Table:     "building_permits",
			Columns:   []string{"id", "parcel_id", "nature", "destination", "annex_text"},
			Op:        OpBuildingPermits,
			BatchSize: 10000,
			Delimiter: ';',
		},
	}
}
