// Package link contains the record-linkage passes that fuse the staged
// datasets: diagnostic-to-transaction resolution and permit-lineage
// classification. Everything here is a pure function over read-only lookup
// structures built once per pipeline run.
package link

import (
	"math"
	"time"

	"foncier-search/internal/models"
)

const (
	// SurfaceTolerance is the maximum surface difference, in m², for a
	// diagnostic to be considered the same property as a transaction.
	// The comparison is strictly less-than: exactly 10 m² is excluded.
	SurfaceTolerance = 10.0

	// FutureWindowDays is how far after the sale a diagnostic may be dated
	// and still be taken as describing the property as transacted. The
	// boundary is inclusive: exactly 180 days qualifies.
	FutureWindowDays = 180
)

// SelectDiagnostic picks the single diagnostic record applicable to a
// transaction, or nil when none qualifies.
//
// The datasets share no foreign key between diagnostics and transactions, so
// habitable surface acts as a proxy key: only candidates within
// SurfaceTolerance of the declared built surface are considered. Among those,
// two mutually exclusive regimes apply in priority order:
//
//  1. A diagnostic issued shortly after the sale is usually produced for the
//     new owner and describes the property as transacted. If any candidate is
//     dated strictly after the transaction and within FutureWindowDays, the
//     one closest to the transaction date wins.
//  2. Otherwise the most recent candidate dated on or before the transaction
//     is the best available description of the property at sale time.
//
// Ties on date prefer the smallest surface difference, then the lowest
// record id, so malformed inputs with duplicate (date, surface) pairs still
// resolve deterministically.
func SelectDiagnostic(tx models.Transaction, candidates []models.DiagnosticRecord) *models.DiagnosticRecord {
	filtered := make([]models.DiagnosticRecord, 0, len(candidates))
	for _, c := range candidates {
		if math.Abs(c.Surface-tx.BuiltSurface) < SurfaceTolerance {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	horizon := tx.Date.AddDate(0, 0, FutureWindowDays)

	var future *models.DiagnosticRecord
	for i := range filtered {
		c := &filtered[i]
		if !c.IssuedOn.After(tx.Date) || c.IssuedOn.After(horizon) {
			continue
		}
		if future == nil || earlierOf(c, future, tx) {
			future = c
		}
	}
	if future != nil {
		out := *future
		return &out
	}

	var past *models.DiagnosticRecord
	for i := range filtered {
		c := &filtered[i]
		if c.IssuedOn.After(tx.Date) {
			continue
		}
		if past == nil || laterOf(c, past, tx) {
			past = c
		}
	}
	if past != nil {
		out := *past
		return &out
	}
	return nil
}

// earlierOf reports whether a beats b when the earliest date wins.
func earlierOf(a, b *models.DiagnosticRecord, tx models.Transaction) bool {
	if !a.IssuedOn.Equal(b.IssuedOn) {
		return a.IssuedOn.Before(b.IssuedOn)
	}
	return tieBreak(a, b, tx)
}

// laterOf reports whether a beats b when the latest date wins.
func laterOf(a, b *models.DiagnosticRecord, tx models.Transaction) bool {
	if !a.IssuedOn.Equal(b.IssuedOn) {
		return a.IssuedOn.After(b.IssuedOn)
	}
	return tieBreak(a, b, tx)
}

func tieBreak(a, b *models.DiagnosticRecord, tx models.Transaction) bool {
	da := math.Abs(a.Surface - tx.BuiltSurface)
	db := math.Abs(b.Surface - tx.BuiltSurface)
	if da != db {
		return da < db
	}
	return a.ID < b.ID
}

// DaysBetween returns the whole days from a to b. Exposed for callers that
// report match distances.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
