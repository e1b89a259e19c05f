package db

import (
	"fmt"
	"strings"

	"foncier-search/internal/models"
)

// BatchInsert writes one batch of transformed rows into a staging table as a
// single transaction. Duplicate-key rows are discarded (first writer wins)
// and counted rather than surfaced as errors.
func (db *DB) BatchInsert(table string, columns []string, rows [][]any) (inserted, duplicates int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	query := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)

	tx, err := db.Beginx()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		res, err := stmt.Exec(row...)
		if err != nil {
			return 0, 0, fmt.Errorf("batch insert into %s failed: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			duplicates++
		} else {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return inserted, duplicates, nil
}

// Buildings returns every staged building row.
func (db *DB) Buildings() ([]models.Building, error) {
	var buildings []models.Building
	err := db.Select(&buildings, "SELECT id, commune, geometry, latitude, longitude FROM buildings")
	if err != nil {
		return nil, fmt.Errorf("failed to load buildings: %w", err)
	}
	return buildings, nil
}

// BuildingCoordinate carries resolved geographic coordinates for one building.
type BuildingCoordinate struct {
	BuildingID string
	Latitude   float64
	Longitude  float64
}

// UpdateBuildingCoordinates writes resolved coordinates back onto the
// building rows in one transaction.
func (db *DB) UpdateBuildingCoordinates(coords []BuildingCoordinate) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin coordinate update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE buildings SET latitude = ?, longitude = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare coordinate update: %w", err)
	}
	defer stmt.Close()

	for _, c := range coords {
		if _, err := stmt.Exec(c.Latitude, c.Longitude, c.BuildingID); err != nil {
			return fmt.Errorf("failed to update coordinates for %s: %w", c.BuildingID, err)
		}
	}
	return tx.Commit()
}

// DiagnosticsByBuilding returns all diagnostic records grouped by building,
// ordered by id so downstream tie-breaks are deterministic.
func (db *DB) DiagnosticsByBuilding() (map[string][]models.DiagnosticRecord, error) {
	var records []models.DiagnosticRecord
	err := db.Select(&records, `
		SELECT id, building_id, class, surface, issued_on,
		       glazing_north, glazing_south, glazing_east, glazing_west,
		       pool, garage, conservatory
		FROM diagnostics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnostics: %w", err)
	}

	byBuilding := make(map[string][]models.DiagnosticRecord)
	for _, r := range records {
		byBuilding[r.BuildingID] = append(byBuilding[r.BuildingID], r)
	}
	return byBuilding, nil
}

// Transactions returns every staged transaction with its parcel identifiers
// attached from the relation table.
func (db *DB) Transactions() ([]models.Transaction, error) {
	var txs []models.Transaction
	err := db.Select(&txs, `
		SELECT id, date, price, built_surface, land_surface, building_id, dwellings
		FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	var links []struct {
		TransactionID string `db:"transaction_id"`
		ParcelID      string `db:"parcel_id"`
	}
	err = db.Select(&links, "SELECT transaction_id, parcel_id FROM transaction_parcels")
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction parcels: %w", err)
	}

	parcelsByTx := make(map[string][]string)
	for _, l := range links {
		parcelsByTx[l.TransactionID] = append(parcelsByTx[l.TransactionID], l.ParcelID)
	}
	for i := range txs {
		txs[i].ParcelIDs = parcelsByTx[txs[i].ID]
	}
	return txs, nil
}

// SubdivisionPermits returns every staged subdivision permit.
func (db *DB) SubdivisionPermits() ([]models.SubdivisionPermit, error) {
	var permits []models.SubdivisionPermit
	err := db.Select(&permits, `
		SELECT id, authorized_on, declared_surface, commune, parcel_id
		FROM subdivision_permits ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load subdivision permits: %w", err)
	}
	return permits, nil
}

// FiliationChildren returns the parcel filiation relation keyed by parent.
func (db *DB) FiliationChildren() (map[string][]string, error) {
	var rows []models.ParcelFiliation
	err := db.Select(&rows, "SELECT parent_id, child_id FROM parcel_filiations")
	if err != nil {
		return nil, fmt.Errorf("failed to load parcel filiations: %w", err)
	}

	children := make(map[string][]string)
	for _, r := range rows {
		children[r.ParentID] = append(children[r.ParentID], r.ChildID)
	}
	return children, nil
}

// BuildingPermitsByParcel returns building permits grouped by target parcel.
func (db *DB) BuildingPermitsByParcel() (map[string][]models.BuildingPermit, error) {
	var permits []models.BuildingPermit
	err := db.Select(&permits, `
		SELECT id, parcel_id, nature, destination, annex_text
		FROM building_permits ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load building permits: %w", err)
	}

	byParcel := make(map[string][]models.BuildingPermit)
	for _, p := range permits {
		byParcel[p.ParcelID] = append(byParcel[p.ParcelID], p)
	}
	return byParcel, nil
}

// ParcelBuilding returns the parcel-to-building relation. A parcel maps to at
// most one building here; when the source relation carries several, the
// lowest building id wins so reruns stay deterministic.
func (db *DB) ParcelBuilding() (map[string]string, error) {
	var rows []struct {
		ParcelID   string `db:"parcel_id"`
		BuildingID string `db:"building_id"`
	}
	err := db.Select(&rows, "SELECT parcel_id, building_id FROM parcel_buildings ORDER BY building_id")
	if err != nil {
		return nil, fmt.Errorf("failed to load parcel buildings: %w", err)
	}

	byParcel := make(map[string]string)
	for _, r := range rows {
		if _, ok := byParcel[r.ParcelID]; !ok {
			byParcel[r.ParcelID] = r.BuildingID
		}
	}
	return byParcel, nil
}
