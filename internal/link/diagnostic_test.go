package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foncier-search/internal/models"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(date string, surface float64) models.Transaction {
	return models.Transaction{ID: "T1", Date: day(date), BuiltSurface: surface}
}

func diag(id int64, date string, class string, surface float64) models.DiagnosticRecord {
	return models.DiagnosticRecord{ID: id, BuildingID: "B1", Class: class, Surface: surface, IssuedOn: day(date)}
}

func TestSelectDiagnostic_FutureWindowBoundary(t *testing.T) {
	// 2024-09-11 is exactly 180 days after 2024-03-15: inclusive, selected.
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-09-11", "D", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(1), selected.ID)

	// 181 days after: outside the window, and with no past candidate the
	// resolver returns nothing.
	selected = SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-09-12", "D", 45),
	})
	assert.Nil(t, selected)

	// 181 days after plus an older past candidate: the past regime is
	// consulted and picks the prior assessment.
	selected = SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-09-12", "D", 45),
		diag(2, "2020-01-01", "C", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(2), selected.ID)
	assert.Equal(t, "C", selected.Class)
}

func TestSelectDiagnostic_SurfaceToleranceBoundary(t *testing.T) {
	// Exactly 10 m² off: excluded (strict less-than).
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-04-01", "D", 55),
	})
	assert.Nil(t, selected)

	// 9.99 m² off: included.
	selected = SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-04-01", "D", 54.99),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(1), selected.ID)
}

func TestSelectDiagnostic_FutureBeatsPast(t *testing.T) {
	// B1 scenario: an old class C assessment and a fresh post-sale class D
	// one. The post-sale diagnostic describes the property as transacted.
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2018-10-21", "C", 45),
		diag(2, "2024-05-10", "D", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, "D", selected.Class)
}

func TestSelectDiagnostic_EarliestFutureWins(t *testing.T) {
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-08-01", "E", 45),
		diag(2, "2024-04-01", "D", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(2), selected.ID)
}

func TestSelectDiagnostic_LatestPastWins(t *testing.T) {
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2015-06-01", "E", 45),
		diag(2, "2022-02-01", "D", 45),
		diag(3, "2019-11-01", "C", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(2), selected.ID)
}

func TestSelectDiagnostic_SameDayAsSaleIsPastRegime(t *testing.T) {
	// A diagnostic dated the day of the sale is not "strictly after".
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-03-15", "C", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(1), selected.ID)
}

func TestSelectDiagnostic_TieBreaks(t *testing.T) {
	// Same date: smaller surface difference wins.
	selected := SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(1, "2024-04-01", "D", 52),
		diag(2, "2024-04-01", "C", 46),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(2), selected.ID)

	// Identical (date, surface) pairs are malformed input; the resolver
	// must still pick deterministically (lowest id).
	selected = SelectDiagnostic(tx("2024-03-15", 45), []models.DiagnosticRecord{
		diag(7, "2024-04-01", "D", 45),
		diag(3, "2024-04-01", "C", 45),
	})
	require.NotNil(t, selected)
	assert.Equal(t, int64(3), selected.ID)
}

func TestSelectDiagnostic_NoCandidates(t *testing.T) {
	assert.Nil(t, SelectDiagnostic(tx("2024-03-15", 45), nil))
}
