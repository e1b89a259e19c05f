package geo

import (
	"strconv"
	"strings"
)

// Point is a planar coordinate pair.
type Point struct {
	X float64
	Y float64
}

// Centroid reduces a WKT POLYGON or MULTIPOLYGON to a single representative
// point: the arithmetic mean of all vertex coordinates. This is not an
// area-weighted centroid; for non-convex or unevenly sampled rings it drifts
// toward denser vertex clusters, which is acceptable for approximate spatial
// joins. Callers needing the geometric centroid should use AreaCentroid.
//
// Returns ok=false for missing or unparseable geometry.
func Centroid(wkt string) (Point, bool) {
	xs, ys := coordinatePairs(wkt)
	if len(xs) == 0 {
		return Point{}, false
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	n := float64(len(xs))
	return Point{X: sumX / n, Y: sumY / n}, true
}

// AreaCentroid computes the shoelace centroid of the vertex sequence. It
// treats the extracted vertices as one ring, so it is only meaningful for
// single-ring polygons; degenerate rings fall back to the vertex mean.
func AreaCentroid(wkt string) (Point, bool) {
	xs, ys := coordinatePairs(wkt)
	if len(xs) == 0 {
		return Point{}, false
	}
	if len(xs) < 3 {
		return Centroid(wkt)
	}

	var area, cx, cy float64
	for i := 0; i < len(xs); i++ {
		j := (i + 1) % len(xs)
		cross := xs[i]*ys[j] - xs[j]*ys[i]
		area += cross
		cx += (xs[i] + xs[j]) * cross
		cy += (ys[i] + ys[j]) * cross
	}
	area /= 2
	if area == 0 {
		return Centroid(wkt)
	}
	return Point{X: cx / (6 * area), Y: cy / (6 * area)}, true
}

// coordinatePairs tokenizes the numeric content of a WKT string into
// alternating x/y values. The source datasets only carry single-ring
// polygons without holes, so full WKT parsing is not needed.
func coordinatePairs(wkt string) (xs, ys []float64) {
	if strings.TrimSpace(wkt) == "" {
		return nil, nil
	}

	tokens := strings.FieldsFunc(wkt, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-'
	})

	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}

	// Pair up sequential values; a trailing unpaired value is dropped.
	for i := 0; i+1 < len(values); i += 2 {
		xs = append(xs, values[i])
		ys = append(ys, values[i+1])
	}
	return xs, ys
}
