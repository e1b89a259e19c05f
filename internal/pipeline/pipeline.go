// Package pipeline wires the stages together: staging ingestion, coordinate
// resolution, record linkage and the final materialization of the output
// table. Stages run strictly in order; the linkage passes only start once
// ingestion has fully completed.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"foncier-search/internal/db"
	"foncier-search/internal/geo"
	"foncier-search/internal/ingest"
	"foncier-search/internal/link"
	"foncier-search/internal/logger"
	"foncier-search/internal/models"
)

// Pipeline rebuilds the land_records table from the raw source files.
type Pipeline struct {
	DB                 *db.DB
	Log                *logger.Logger
	Workers            int
	CheckpointInterval time.Duration
}

// Summary aggregates the counters of one full run. Partial coverage is the
// expected steady state, not an error: unmatched rows are counted, not
// failed.
type Summary struct {
	RunID   string                  `json:"run_id"`
	Sources map[string]ingest.Stats `json:"sources"`

	BuildingsProjected   int `json:"buildings_projected"`
	ProjectionFailures   int `json:"projection_failures"`
	RecordsEmitted       int `json:"records_emitted"`
	DiagnosticsMatched   int `json:"diagnostics_matched"`
	DroppedNoCoordinates int `json:"dropped_no_coordinates"`
	DroppedAmbiguous     int `json:"dropped_ambiguous"`

	Elapsed time.Duration `json:"elapsed"`
}

// Run executes the full rebuild: fresh staging, parallel ingestion, then the
// single-threaded linkage passes.
func (p *Pipeline) Run(ctx context.Context, dataDir string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	log := p.Log.With(map[string]interface{}{"run_id": summary.RunID})

	if err := p.DB.Reset(); err != nil {
		return nil, fmt.Errorf("resetting staging area: %w", err)
	}

	runner := &ingest.Runner{
		DB:                 p.DB,
		Log:                log,
		Workers:            p.Workers,
		CheckpointInterval: p.CheckpointInterval,
	}
	sourceStats, err := runner.Run(ctx, ingest.Sources(dataDir))
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}
	summary.Sources = sourceStats

	if err := p.resolveCoordinates(summary); err != nil {
		return nil, fmt.Errorf("coordinate resolution failed: %w", err)
	}
	log.Info("coordinates resolved", map[string]interface{}{
		"projected": summary.BuildingsProjected,
		"failures":  summary.ProjectionFailures,
	})

	if err := p.buildRecords(summary); err != nil {
		return nil, fmt.Errorf("record build failed: %w", err)
	}

	summary.Elapsed = time.Since(start)
	log.Info("pipeline complete", map[string]interface{}{
		"records":           summary.RecordsEmitted,
		"diag_matched":      summary.DiagnosticsMatched,
		"dropped_coords":    summary.DroppedNoCoordinates,
		"dropped_ambiguous": summary.DroppedAmbiguous,
		"proj_failures":     summary.ProjectionFailures,
		"elapsed":           summary.Elapsed.String(),
	})
	return summary, nil
}

// resolveCoordinates reduces each building geometry to its vertex-average
// centroid and reprojects it to geographic coordinates. Buildings whose
// reprojection fails stay coordinate-less, which transitively keeps them out
// of any output row requiring coordinates.
func (p *Pipeline) resolveCoordinates(summary *Summary) error {
	buildings, err := p.DB.Buildings()
	if err != nil {
		return err
	}

	updates := make([]db.BuildingCoordinate, 0, len(buildings))
	for _, b := range buildings {
		if !b.Geometry.Valid {
			summary.ProjectionFailures++
			continue
		}
		centroid, ok := geo.Centroid(b.Geometry.String)
		if !ok {
			summary.ProjectionFailures++
			continue
		}
		lat, lng, err := geo.ToGeographic(centroid.X, centroid.Y)
		if err != nil {
			summary.ProjectionFailures++
			continue
		}
		updates = append(updates, db.BuildingCoordinate{
			BuildingID: b.ID,
			Latitude:   lat,
			Longitude:  lng,
		})
	}

	if err := p.DB.UpdateBuildingCoordinates(updates); err != nil {
		return err
	}
	summary.BuildingsProjected = len(updates)
	return nil
}

// lookups bundles the read-only structures each resolution pass consumes.
// They are built once per run and never mutated afterwards.
type lookups struct {
	buildings       map[string]models.Building
	diagnostics     map[string][]models.DiagnosticRecord
	parcelBuilding  map[string]string
	permitsByParcel map[string][]models.BuildingPermit
	filiation       map[string][]string
	txsByParcel     map[string][]int // indexes into transactions
	transactions    []models.Transaction
	permits         []models.SubdivisionPermit
}

func (p *Pipeline) buildLookups() (*lookups, error) {
	l := &lookups{}

	buildings, err := p.DB.Buildings()
	if err != nil {
		return nil, err
	}
	l.buildings = make(map[string]models.Building, len(buildings))
	for _, b := range buildings {
		l.buildings[b.ID] = b
	}

	if l.diagnostics, err = p.DB.DiagnosticsByBuilding(); err != nil {
		return nil, err
	}
	if l.parcelBuilding, err = p.DB.ParcelBuilding(); err != nil {
		return nil, err
	}
	if l.permitsByParcel, err = p.DB.BuildingPermitsByParcel(); err != nil {
		return nil, err
	}
	if l.filiation, err = p.DB.FiliationChildren(); err != nil {
		return nil, err
	}
	if l.transactions, err = p.DB.Transactions(); err != nil {
		return nil, err
	}
	if l.permits, err = p.DB.SubdivisionPermits(); err != nil {
		return nil, err
	}

	l.txsByParcel = make(map[string][]int)
	for i, tx := range l.transactions {
		for _, parcelID := range tx.ParcelIDs {
			l.txsByParcel[parcelID] = append(l.txsByParcel[parcelID], i)
		}
	}
	return l, nil
}

// buildRecords runs the permit-lineage classifier per permit, enriches each
// classified transaction with coordinates and a diagnostic, and replaces the
// output table wholesale.
func (p *Pipeline) buildRecords(summary *Summary) error {
	l, err := p.buildLookups()
	if err != nil {
		return err
	}

	var records []models.LandRecord
	claimed := make(map[string]bool) // transaction ids already emitted

	// Permits are iterated in id order, so when descendant sets overlap
	// the first permit claims the transaction and reruns stay identical.
	for _, permit := range l.permits {
		descendants := l.filiation[permit.ParcelID]
		if len(descendants) == 0 {
			continue
		}

		candidates := candidateTransactions(l, descendants, claimed)

		for _, c := range link.ClassifyTransactions(permit, descendants, candidates, l.permitsByParcel) {
			record, ok := p.enrich(l, c, summary)
			if !ok {
				continue
			}
			claimed[c.Transaction.ID] = true
			records = append(records, record)
		}
	}

	// Transactions inside some permit lineage that no rule could place are
	// dropped as ambiguous rather than guessed at.
	inLineage := make(map[string]bool)
	for _, permit := range l.permits {
		for _, parcelID := range l.filiation[permit.ParcelID] {
			for _, i := range l.txsByParcel[parcelID] {
				inLineage[l.transactions[i].ID] = true
			}
		}
	}
	for id := range inLineage {
		if !claimed[id] {
			summary.DroppedAmbiguous++
		}
	}

	if err := p.DB.ReplaceLandRecords(records); err != nil {
		return err
	}
	summary.RecordsEmitted = len(records)
	return nil
}

// candidateTransactions collects every unclaimed transaction touching any of
// the descendant parcels, in stable order.
func candidateTransactions(l *lookups, descendants []string, claimed map[string]bool) []models.Transaction {
	seen := make(map[int]bool)
	var indexes []int
	for _, parcelID := range descendants {
		for _, i := range l.txsByParcel[parcelID] {
			if !seen[i] && !claimed[l.transactions[i].ID] {
				seen[i] = true
				indexes = append(indexes, i)
			}
		}
	}
	sort.Ints(indexes)

	out := make([]models.Transaction, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, l.transactions[i])
	}
	return out
}

// enrich attaches coordinates, the applicable diagnostic and the derived
// price metrics to one classified transaction. A record without resolvable
// coordinates is dropped: consumers rely on every status-tagged row carrying
// non-null coordinates.
func (p *Pipeline) enrich(l *lookups, c link.ClassifiedTransaction, summary *Summary) (models.LandRecord, bool) {
	building, ok := p.resolveBuilding(l, c.Transaction)
	if !ok || !building.Latitude.Valid || !building.Longitude.Valid {
		summary.DroppedNoCoordinates++
		return models.LandRecord{}, false
	}

	record := models.LandRecord{
		TransactionID: c.Transaction.ID,
		PermitID:      c.Permit.ID,
		Status:        c.Status,
		Date:          c.Transaction.Date,
		Price:         c.Transaction.Price,
		BuiltSurface:  c.Transaction.BuiltSurface,
		LandSurface:   c.Transaction.LandSurface,
		Latitude:      building.Latitude.Float64,
		Longitude:     building.Longitude.Float64,
		Commune:       building.Commune,
		Pool:          c.Annexes.Pool,
		Garage:        c.Annexes.Garage,
		Conservatory:  c.Annexes.Conservatory,
	}

	if diag := link.SelectDiagnostic(c.Transaction, l.diagnostics[building.ID]); diag != nil {
		summary.DiagnosticsMatched++
		record.DiagnosticClass = sql.NullString{String: diag.Class, Valid: true}
		record.GlazingNorth = sql.NullFloat64{Float64: diag.GlazingNorth, Valid: true}
		record.GlazingSouth = sql.NullFloat64{Float64: diag.GlazingSouth, Valid: true}
		record.GlazingEast = sql.NullFloat64{Float64: diag.GlazingEast, Valid: true}
		record.GlazingWest = sql.NullFloat64{Float64: diag.GlazingWest, Valid: true}
		record.Pool = record.Pool || diag.Pool
		record.Garage = record.Garage || diag.Garage
		record.Conservatory = record.Conservatory || diag.Conservatory
	}

	if record.BuiltSurface > 0 {
		record.PricePerBuilt = sql.NullFloat64{Float64: record.Price / record.BuiltSurface, Valid: true}
	}
	if record.LandSurface > 0 {
		record.PricePerLand = sql.NullFloat64{Float64: record.Price / record.LandSurface, Valid: true}
	}
	return record, true
}

// resolveBuilding finds the building describing a transaction: the directly
// linked one when present, otherwise the building of the lowest-sorting
// linked parcel.
func (p *Pipeline) resolveBuilding(l *lookups, tx models.Transaction) (models.Building, bool) {
	if tx.BuildingID.Valid {
		b, ok := l.buildings[tx.BuildingID.String]
		if ok {
			return b, true
		}
	}

	parcels := append([]string(nil), tx.ParcelIDs...)
	sort.Strings(parcels)
	for _, parcelID := range parcels {
		if buildingID, ok := l.parcelBuilding[parcelID]; ok {
			if b, ok := l.buildings[buildingID]; ok {
				return b, true
			}
		}
	}
	return models.Building{}, false
}
