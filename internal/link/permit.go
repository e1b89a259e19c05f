package link

import (
	"math"
	"strings"

	"foncier-search/internal/models"
)

const (
	// purchaseWindowYears bounds how far a bulk land purchase may sit from
	// the permit's authorization date, in either direction.
	purchaseWindowYears = 2

	// purchaseSurfaceTolerance is the relative tolerance between the
	// transaction's land surface and the permit's declared surface.
	purchaseSurfaceTolerance = 0.10
)

// annexMultipleSentinel is a special value in the permit annex free text
// meaning "several annexes, unspecified". The source convention is to assume
// a garage is among them; this is a deliberate, isolated heuristic and must
// not be generalized to the other annex types.
const annexMultipleSentinel = "annexes multiples"

// AnnexFlags carries annex presence derived from permit free text.
type AnnexFlags struct {
	Pool         bool
	Garage       bool
	Conservatory bool
}

// ParseAnnexes derives annex flags from a permit's free-text annex field via
// case-insensitive substring containment.
func ParseAnnexes(text string) AnnexFlags {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == annexMultipleSentinel {
		return AnnexFlags{Garage: true}
	}

	return AnnexFlags{
		Pool:         strings.Contains(t, "piscine"),
		Garage:       strings.Contains(t, "garage"),
		Conservatory: strings.Contains(t, "veranda") || strings.Contains(t, "véranda"),
	}
}

// ClassifiedTransaction is one classifier output: a transaction tagged with
// its resolved land status and permit-derived annex flags.
type ClassifiedTransaction struct {
	Transaction models.Transaction
	Permit      models.SubdivisionPermit
	Status      models.LandStatus
	Annexes     AnnexFlags
}

// ClassifyTransactions resolves the lineage of one subdivision permit:
// which transaction was the developer's bulk purchase of the raw land, and
// which later transactions are sales of the finished lots.
//
// Precedence is fixed: the subdivision-purchase rule is evaluated first and
// claims its transaction, so a transaction can never be both NON_VIABILISE
// and a lot sale. Lot sales that describe pre-existing structures become
// RENOVATION when a renovation permit backs them, and are dropped as
// ambiguous otherwise.
func ClassifyTransactions(
	permit models.SubdivisionPermit,
	descendantParcels []string,
	candidates []models.Transaction,
	permitsByParcel map[string][]models.BuildingPermit,
) []ClassifiedTransaction {
	descendants := make(map[string]bool, len(descendantParcels))
	for _, p := range descendantParcels {
		descendants[p] = true
	}

	var out []ClassifiedTransaction

	purchase := subdivisionPurchase(permit, descendants, candidates)
	if purchase != nil {
		out = append(out, ClassifiedTransaction{
			Transaction: *purchase,
			Permit:      permit,
			Status:      models.StatusNonViabilise,
		})
	}

	for _, tx := range lotSaleCandidates(descendants, candidates, purchase) {
		classified, ok := refineLotSale(tx, permit, descendants, permitsByParcel)
		if ok {
			out = append(out, classified)
		}
	}
	return out
}

// subdivisionPurchase finds the developer's original bulk acquisition: the
// chronologically earliest transaction touching two or more descendant
// parcels at once, dated within the purchase window of the authorization and
// declaring a land surface within tolerance of the permit's declared
// surface. At most one per permit.
func subdivisionPurchase(
	permit models.SubdivisionPermit,
	descendants map[string]bool,
	candidates []models.Transaction,
) *models.Transaction {
	windowStart := permit.AuthorizedOn.AddDate(-purchaseWindowYears, 0, 0)
	windowEnd := permit.AuthorizedOn.AddDate(purchaseWindowYears, 0, 0)

	var best *models.Transaction
	for i := range candidates {
		tx := &candidates[i]

		if countTouched(tx, descendants) < 2 {
			continue
		}
		if tx.Date.Before(windowStart) || tx.Date.After(windowEnd) {
			continue
		}
		if math.Abs(tx.LandSurface-permit.DeclaredSurface) > purchaseSurfaceTolerance*permit.DeclaredSurface {
			continue
		}

		if best == nil || tx.Date.Before(best.Date) ||
			(tx.Date.Equal(best.Date) && tx.ID < best.ID) {
			best = tx
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// lotSaleCandidates returns the transactions left after the bulk purchase is
// claimed that touch at least one descendant parcel. No date, surface or
// multi-parcel constraint applies here; refinement happens in refineLotSale.
func lotSaleCandidates(
	descendants map[string]bool,
	candidates []models.Transaction,
	purchase *models.Transaction,
) []models.Transaction {
	var out []models.Transaction
	for _, tx := range candidates {
		if purchase != nil && tx.ID == purchase.ID {
			continue
		}
		if countTouched(&tx, descendants) == 0 {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// refineLotSale decides whether a lot-sale candidate is a genuine serviced
// lot, a renovation of an existing structure, or too ambiguous to keep.
func refineLotSale(
	tx models.Transaction,
	permit models.SubdivisionPermit,
	descendants map[string]bool,
	permitsByParcel map[string][]models.BuildingPermit,
) (ClassifiedTransaction, bool) {
	var permits []models.BuildingPermit
	for _, parcelID := range tx.ParcelIDs {
		if descendants[parcelID] {
			permits = append(permits, permitsByParcel[parcelID]...)
		}
	}

	if tx.BuiltSurface > 0 {
		// Declared existing built surface means the lot carries a
		// pre-existing structure, not new construction.
		for _, bp := range permits {
			if bp.Nature == models.NatureRenovation {
				return ClassifiedTransaction{
					Transaction: tx,
					Permit:      permit,
					Status:      models.StatusRenovation,
					Annexes:     ParseAnnexes(bp.AnnexText),
				}, true
			}
		}
		return ClassifiedTransaction{}, false
	}

	if tx.Dwellings > 1 {
		// Multi-unit programs are not individual lots.
		return ClassifiedTransaction{}, false
	}

	for _, bp := range permits {
		if bp.Nature == models.NatureNewBuild && bp.Destination == models.DestIndividual {
			return ClassifiedTransaction{
				Transaction: tx,
				Permit:      permit,
				Status:      models.StatusViabilise,
				Annexes:     ParseAnnexes(bp.AnnexText),
			}, true
		}
	}
	return ClassifiedTransaction{}, false
}

func countTouched(tx *models.Transaction, descendants map[string]bool) int {
	n := 0
	for _, p := range tx.ParcelIDs {
		if descendants[p] {
			n++
		}
	}
	return n
}
