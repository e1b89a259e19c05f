package models

import (
	"database/sql"
	"time"
)

// LandStatus classifies how a transaction relates to a subdivision permit.
type LandStatus string

const (
	// StatusNonViabilise is the developer's bulk purchase of raw land,
	// before servicing and subdivision.
	StatusNonViabilise LandStatus = "NON_VIABILISE"
	// StatusViabilise is a serviced building lot sold individually.
	StatusViabilise LandStatus = "VIABILISE"
	// StatusRenovation is a sale of a lot carrying an existing structure
	// under a renovation permit.
	StatusRenovation LandStatus = "RENOVATION"
)

// Building is a building group from the national building registry.
// Coordinates are derived from the cadastral geometry after reprojection.
type Building struct {
	ID        string          `db:"id" json:"id"`
	Commune   string          `db:"commune" json:"commune"`
	Geometry  sql.NullString  `db:"geometry" json:"-"`
	Latitude  sql.NullFloat64 `db:"latitude" json:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude" json:"longitude"`
}

// DiagnosticRecord is one energy-performance assessment of a building.
// A building accumulates several of these over time; they are versions,
// not duplicates.
type DiagnosticRecord struct {
	ID           int64     `db:"id" json:"id"`
	BuildingID   string    `db:"building_id" json:"building_id"`
	Class        string    `db:"class" json:"class"`
	Surface      float64   `db:"surface" json:"surface"`
	IssuedOn     time.Time `db:"issued_on" json:"issued_on"`
	GlazingNorth float64   `db:"glazing_north" json:"glazing_north"`
	GlazingSouth float64   `db:"glazing_south" json:"glazing_south"`
	GlazingEast  float64   `db:"glazing_east" json:"glazing_east"`
	GlazingWest  float64   `db:"glazing_west" json:"glazing_west"`
	Pool         bool      `db:"pool" json:"pool"`
	Garage       bool      `db:"garage" json:"garage"`
	Conservatory bool      `db:"conservatory" json:"conservatory"`
}

// Transaction is a land/property sale event. ParcelIDs is populated from the
// transaction-parcel relation, not scanned directly.
type Transaction struct {
	ID           string         `db:"id" json:"id"`
	Date         time.Time      `db:"date" json:"date"`
	Price        float64        `db:"price" json:"price"`
	BuiltSurface float64        `db:"built_surface" json:"built_surface"`
	LandSurface  float64        `db:"land_surface" json:"land_surface"`
	BuildingID   sql.NullString `db:"building_id" json:"building_id"`
	Dwellings    int64          `db:"dwellings" json:"dwellings"`

	ParcelIDs []string `db:"-" json:"parcel_ids,omitempty"`
}

// SubdivisionPermit is a "permis d'aménager": the authorization to service
// and subdivide a tract of land.
type SubdivisionPermit struct {
	ID              string    `db:"id" json:"id"`
	AuthorizedOn    time.Time `db:"authorized_on" json:"authorized_on"`
	DeclaredSurface float64   `db:"declared_surface" json:"declared_surface"`
	Commune         string    `db:"commune" json:"commune"`
	ParcelID        string    `db:"parcel_id" json:"parcel_id"`
}

// BuildingPermit is a "permis de construire" attached to a parcel.
type BuildingPermit struct {
	ID          string `db:"id" json:"id"`
	ParcelID    string `db:"parcel_id" json:"parcel_id"`
	Nature      string `db:"nature" json:"nature"`
	Destination string `db:"destination" json:"destination"`
	AnnexText   string `db:"annex_text" json:"annex_text"`
}

// Nature and destination codes carried by the building-permit registry.
const (
	NatureNewBuild   = "1" // construction nouvelle
	NatureRenovation = "2" // travaux sur construction existante

	DestIndividual = "1" // logement individuel
	DestCollective = "2" // logement collectif
)

// ParcelFiliation links a parent parcel to one child parcel produced by a
// subdivision.
type ParcelFiliation struct {
	ParentID string `db:"parent_id" json:"parent_id"`
	ChildID  string `db:"child_id" json:"child_id"`
}

// LandRecord is one row of the canonical output table. Rebuilt wholesale on
// every pipeline run, never mutated in place. Any row carrying a land-status
// tag is guaranteed to have non-null coordinates.
type LandRecord struct {
	ID              int64           `db:"id" json:"id"`
	TransactionID   string          `db:"transaction_id" json:"transaction_id"`
	PermitID        string          `db:"permit_id" json:"permit_id"`
	Status          LandStatus      `db:"status" json:"status"`
	Date            time.Time       `db:"date" json:"date"`
	Price           float64         `db:"price" json:"price"`
	BuiltSurface    float64         `db:"built_surface" json:"built_surface"`
	LandSurface     float64         `db:"land_surface" json:"land_surface"`
	Latitude        float64         `db:"latitude" json:"lat"`
	Longitude       float64         `db:"longitude" json:"lng"`
	Commune         string          `db:"commune" json:"commune"`
	DiagnosticClass sql.NullString  `db:"diagnostic_class" json:"diagnostic_class"`
	GlazingNorth    sql.NullFloat64 `db:"glazing_north" json:"glazing_north"`
	GlazingSouth    sql.NullFloat64 `db:"glazing_south" json:"glazing_south"`
	GlazingEast     sql.NullFloat64 `db:"glazing_east" json:"glazing_east"`
	GlazingWest     sql.NullFloat64 `db:"glazing_west" json:"glazing_west"`
	Pool            bool            `db:"pool" json:"pool"`
	Garage          bool            `db:"garage" json:"garage"`
	Conservatory    bool            `db:"conservatory" json:"conservatory"`
	PricePerBuilt   sql.NullFloat64 `db:"price_per_built" json:"price_per_built"`
	PricePerLand    sql.NullFloat64 `db:"price_per_land" json:"price_per_land"`
}

// LandRecordListItem is the lightweight shape returned by listing queries.
type LandRecordListItem struct {
	ID            int64      `db:"id" json:"id"`
	TransactionID string     `db:"transaction_id" json:"transaction_id"`
	Status        LandStatus `db:"status" json:"status"`
	Price         float64    `db:"price" json:"price"`
	LandSurface   float64    `db:"land_surface" json:"land_surface"`
	Latitude      float64    `db:"latitude" json:"lat"`
	Longitude     float64    `db:"longitude" json:"lng"`
	Commune       string     `db:"commune" json:"commune"`

	// DistanceM is filled only for radius searches.
	DistanceM *float64 `db:"-" json:"distance_m,omitempty"`
}
