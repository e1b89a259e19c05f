package db

import (
	"fmt"
	"strings"

	"foncier-search/internal/models"
)

// RecordFilter contains all filter parameters for land record queries
type RecordFilter struct {
	Statuses []models.LandStatus
	PriceMin *float64
	PriceMax *float64
	Commune  *string
	// Map bounds
	SWLat *float64
	SWLng *float64
	NELat *float64
	NELng *float64
	// Pagination
	Limit  int
	Offset int
}

// ReplaceLandRecords swaps the entire output table for the given rows in one
// transaction. The pipeline rebuilds from scratch; nothing is merged.
func (db *DB) ReplaceLandRecords(records []models.LandRecord) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin land record write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM land_records"); err != nil {
		return fmt.Errorf("failed to clear land records: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO land_records (
			transaction_id, permit_id, status, date, price,
			built_surface, land_surface, latitude, longitude, commune,
			diagnostic_class, glazing_north, glazing_south, glazing_east, glazing_west,
			pool, garage, conservatory, price_per_built, price_per_land
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare land record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.TransactionID, r.PermitID, r.Status, r.Date, r.Price,
			r.BuiltSurface, r.LandSurface, r.Latitude, r.Longitude, r.Commune,
			r.DiagnosticClass, r.GlazingNorth, r.GlazingSouth, r.GlazingEast, r.GlazingWest,
			r.Pool, r.Garage, r.Conservatory, r.PricePerBuilt, r.PricePerLand,
		)
		if err != nil {
			return fmt.Errorf("failed to insert land record for %s: %w", r.TransactionID, err)
		}
	}

	return tx.Commit()
}

// ListLandRecords returns land records matching the given filters
func (db *DB) ListLandRecords(f RecordFilter) ([]models.LandRecordListItem, error) {
	query := `
		SELECT id, transaction_id, status, price, land_surface,
		       latitude, longitude, commune
		FROM land_records
		WHERE 1=1
	`
	args := make([]interface{}, 0)

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}

	if f.PriceMin != nil {
		query += " AND price >= ?"
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		query += " AND price <= ?"
		args = append(args, *f.PriceMax)
	}

	if f.Commune != nil {
		query += " AND commune = ?"
		args = append(args, *f.Commune)
	}

	// Map bounds filter
	if f.SWLat != nil && f.SWLng != nil && f.NELat != nil && f.NELng != nil {
		query += " AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?"
		args = append(args, *f.SWLat, *f.NELat, *f.SWLng, *f.NELng)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	var records []models.LandRecordListItem
	if err := db.Select(&records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list land records: %w", err)
	}
	return records, nil
}

// GetLandRecord returns a single land record by ID with full details
func (db *DB) GetLandRecord(id int64) (*models.LandRecord, error) {
	var r models.LandRecord
	err := db.Get(&r, `
		SELECT id, transaction_id, permit_id, status, date, price,
		       built_surface, land_surface, latitude, longitude, commune,
		       diagnostic_class, glazing_north, glazing_south, glazing_east, glazing_west,
		       pool, garage, conservatory, price_per_built, price_per_land
		FROM land_records WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get land record: %w", err)
	}
	return &r, nil
}

// GetFilterOptions returns available values for filter dropdowns
func (db *DB) GetFilterOptions() (map[string]interface{}, error) {
	options := make(map[string]interface{})

	var statuses []string
	err := db.Select(&statuses, "SELECT DISTINCT status FROM land_records ORDER BY status")
	if err != nil {
		return nil, err
	}
	options["statuses"] = statuses

	var communes []string
	err = db.Select(&communes, "SELECT DISTINCT commune FROM land_records ORDER BY commune")
	if err != nil {
		return nil, err
	}
	options["communes"] = communes

	var priceRange struct {
		Min *float64 `db:"min_price"`
		Max *float64 `db:"max_price"`
	}
	err = db.Get(&priceRange, "SELECT MIN(price) as min_price, MAX(price) as max_price FROM land_records")
	if err != nil {
		return nil, err
	}
	options["price_min"] = priceRange.Min
	options["price_max"] = priceRange.Max

	return options, nil
}

// LandRecordCount returns total number of land records
func (db *DB) LandRecordCount() (int, error) {
	var count int
	err := db.Get(&count, "SELECT COUNT(*) FROM land_records")
	return count, err
}
