package ingest

import (
	"strconv"
	"strings"
	"time"
)

// Op names one row transform from the closed set below. Workers receive the
// tag as plain data and dispatch on it; no closures cross the worker
// boundary.
type Op string

const (
	OpBuildings          Op = "buildings"
	OpDiagnostics        Op = "diagnostics"
	OpTransactions       Op = "transactions"
	OpTransactionParcels Op = "transaction_parcels"
	OpParcelBuildings    Op = "parcel_buildings"
	OpParcelFiliations   Op = "parcel_filiations"
	OpSubdivisionPermits Op = "subdivision_permits"
	OpBuildingPermits    Op = "building_permits"
)

const dateLayout = "2006-01-02"

// Transform applies the named transform to one raw CSV row. ok=false means
// the row is invalid or incomplete and must be skipped (counted, not fatal).
func Transform(op Op, fields []string) (row []any, ok bool) {
	switch op {
	case OpBuildings:
		return transformBuilding(fields)
	case OpDiagnostics:
		return transformDiagnostic(fields)
	case OpTransactions:
		return transformTransaction(fields)
	case OpTransactionParcels, OpParcelFiliations, OpParcelBuildings:
		return transformPair(fields)
	case OpSubdivisionPermits:
		return transformSubdivisionPermit(fields)
	case OpBuildingPermits:
		return transformBuildingPermit(fields)
	default:
		return nil, false
	}
}

// batiments.csv: id;geometry;commune
func transformBuilding(fields []string) ([]any, bool) {
	if len(fields) < 3 {
		return nil, false
	}
	id := strings.TrimSpace(fields[0])
	geometry := strings.TrimSpace(fields[1])
	commune := strings.TrimSpace(fields[2])
	if id == "" || commune == "" {
		return nil, false
	}

	var geom any
	if geometry != "" {
		geom = geometry
	}
	return []any{id, commune, geom}, true
}

// dpe.csv: building_id;class;surface;issue_date;glazing N;S;E;W;pool;garage;conservatory
func transformDiagnostic(fields []string) ([]any, bool) {
	if len(fields) < 11 {
		return nil, false
	}
	buildingID := strings.TrimSpace(fields[0])
	class := strings.ToUpper(strings.TrimSpace(fields[1]))
	if buildingID == "" || class < "A" || class > "G" || len(class) != 1 {
		return nil, false
	}

	surface, err := parseFloat(fields[2])
	if err != nil || surface <= 0 {
		return nil, false
	}
	issued, err := parseDate(fields[3])
	if err != nil {
		return nil, false
	}

	glazing := make([]any, 4)
	for i := 0; i < 4; i++ {
		v, err := parseFloat(fields[4+i])
		if err != nil {
			v = 0
		}
		glazing[i] = v
	}

	return []any{
		buildingID, class, surface, issued,
		glazing[0], glazing[1], glazing[2], glazing[3],
		parseBool(fields[8]), parseBool(fields[9]), parseBool(fields[10]),
	}, true
}

// transactions.csv: id;date;price;built_surface;land_surface;building_id;dwellings
func transformTransaction(fields []string) ([]any, bool) {
	if len(fields) < 7 {
		return nil, false
	}
	id := strings.TrimSpace(fields[0])
	if id == "" {
		return nil, false
	}
	date, err := parseDate(fields[1])
	if err != nil {
		return nil, false
	}
	price, err := parseFloat(fields[2])
	if err != nil || price < 0 {
		return nil, false
	}
	built, err := parseFloat(fields[3])
	if err != nil {
		built = 0
	}
	land, err := parseFloat(fields[4])
	if err != nil {
		land = 0
	}

	var buildingID any
	if b := strings.TrimSpace(fields[5]); b != "" {
		buildingID = b
	}
	dwellings, err := strconv.ParseInt(strings.TrimSpace(fields[6]), 10, 64)
	if err != nil {
		dwellings = 0
	}

	return []any{id, date, price, built, land, buildingID, dwellings}, true
}

// Two-column relation files: both identifiers required.
func transformPair(fields []string) ([]any, bool) {
	if len(fields) < 2 {
		return nil, false
	}
	a := strings.TrimSpace(fields[0])
	b := strings.TrimSpace(fields[1])
	if a == "" || b == "" {
		return nil, false
	}
	return []any{a, b}, true
}

// permis_amenager.csv: id;authorization_date;declared_surface;commune;parcel_id
func transformSubdivisionPermit(fields []string) ([]any, bool) {
	if len(fields) < 5 {
		return nil, false
	}
	id := strings.TrimSpace(fields[0])
	commune := strings.TrimSpace(fields[3])
	parcelID := strings.TrimSpace(fields[4])
	if id == "" || parcelID == "" {
		return nil, false
	}
	date, err := parseDate(fields[1])
	if err != nil {
		return nil, false
	}
	surface, err := parseFloat(fields[2])
	if err != nil || surface <= 0 {
		return nil, false
	}
	return []any{id, date, surface, commune, parcelID}, true
}

// permis_construire.csv: id;parcel_id;nature;destination;annex_text
func transformBuildingPermit(fields []string) ([]any, bool) {
	if len(fields) < 5 {
		return nil, false
	}
	id := strings.TrimSpace(fields[0])
	parcelID := strings.TrimSpace(fields[1])
	nature := strings.TrimSpace(fields[2])
	destination := strings.TrimSpace(fields[3])
	if id == "" || parcelID == "" || nature == "" {
		return nil, false
	}
	return []any{id, parcelID, nature, destination, strings.TrimSpace(fields[4])}, true
}

// parseFloat accepts both dot and comma decimal separators.
func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "oui", "vrai":
		return true
	}
	return false
}
