package geo

import (
	"errors"
	"math"
)

// Lambert-93 (RGF93) projection parameters on the GRS80 ellipsoid.
const (
	semiMajorAxis = 6378137.0
	eccentricity  = 0.0818191910428158

	centralMeridian = 3.0 * math.Pi / 180.0  // 3°E
	originLatitude  = 46.5 * math.Pi / 180.0 // 46.5°N
	parallel1       = 44.0 * math.Pi / 180.0 // 44°N
	parallel2       = 49.0 * math.Pi / 180.0 // 49°N
	falseEasting    = 700000.0
	falseNorthing   = 6600000.0
)

// Continental-France bounding box. Results outside this box come from
// transposed or corrupt input coordinates and are rejected.
const (
	domainMinLat = 41.0
	domainMaxLat = 51.0
	domainMinLng = -5.0
	domainMaxLng = 10.0
)

const (
	latIterTolerance = 1e-10
	latMaxIterations = 100
)

// ErrOutOfDomain is returned when a reprojected point falls outside the
// continental-France bounding box.
var ErrOutOfDomain = errors.New("coordinates outside continental France")

// ErrNonConvergent is returned when the latitude iteration fails to settle.
var ErrNonConvergent = errors.New("latitude iteration did not converge")

// Projection constants derived from the parameters above. Read-only after
// package init, so the conversion functions are safe for concurrent use.
var (
	coneConstant float64 // n
	coneRadius   float64 // C
	poleNorthing float64 // Y of the projection pole
)

func init() {
	m1 := gridScale(parallel1)
	m2 := gridScale(parallel2)
	l0 := isometricLatitude(originLatitude)
	l1 := isometricLatitude(parallel1)
	l2 := isometricLatitude(parallel2)

	coneConstant = math.Log(m1/m2) / (l2 - l1)
	coneRadius = semiMajorAxis * m1 / coneConstant * math.Exp(coneConstant*l1)
	poleNorthing = falseNorthing + coneRadius*math.Exp(-coneConstant*l0)
}

// gridScale is the radius of a parallel divided by the semi-major axis.
func gridScale(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-eccentricity*eccentricity*s*s)
}

// isometricLatitude is the conformal (isometric) latitude of phi.
func isometricLatitude(phi float64) float64 {
	s := eccentricity * math.Sin(phi)
	return math.Log(math.Tan(math.Pi/4+phi/2)) - eccentricity/2*math.Log((1+s)/(1-s))
}

// ToGeographic converts planar Lambert-93 coordinates to geographic
// latitude/longitude in degrees. Pure function, no shared state.
func ToGeographic(x, y float64) (lat, lng float64, err error) {
	dx := x - falseEasting
	dy := poleNorthing - y

	radius := math.Hypot(dx, dy)
	if radius == 0 {
		return 0, 0, ErrOutOfDomain
	}

	// Longitude follows in closed form from the bearing of the point
	// relative to the projection pole.
	gamma := math.Atan2(dx, dy)
	lngRad := centralMeridian + gamma/coneConstant

	// Latitude is recovered by fixed-point iteration on the isometric
	// latitude, seeded with the conformal-sphere latitude.
	iso := -math.Log(radius/coneRadius) / coneConstant
	phi := 2*math.Atan(math.Exp(iso)) - math.Pi/2
	converged := false
	for i := 0; i < latMaxIterations; i++ {
		s := eccentricity * math.Sin(phi)
		next := 2*math.Atan(math.Exp(iso)*math.Pow((1+s)/(1-s), eccentricity/2)) - math.Pi/2
		if math.Abs(next-phi) < latIterTolerance {
			phi = next
			converged = true
			break
		}
		phi = next
	}
	if !converged {
		return 0, 0, ErrNonConvergent
	}

	lat = phi * 180 / math.Pi
	lng = lngRad * 180 / math.Pi

	if lat < domainMinLat || lat > domainMaxLat || lng < domainMinLng || lng > domainMaxLng {
		return 0, 0, ErrOutOfDomain
	}
	return lat, lng, nil
}

// FromGeographic converts geographic latitude/longitude in degrees to
// planar Lambert-93 coordinates. Inverse of ToGeographic.
func FromGeographic(lat, lng float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lambda := lng * math.Pi / 180

	radius := coneRadius * math.Exp(-coneConstant*isometricLatitude(phi))
	gamma := coneConstant * (lambda - centralMeridian)

	x = falseEasting + radius*math.Sin(gamma)
	y = poleNorthing - radius*math.Cos(gamma)
	return x, y
}
