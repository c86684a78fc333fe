package location

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Coord is a single coordinate of a location. Most coordinates are
// isotropic and carry just X. Anisotropic coordinates carry a second,
// vertical value Y, interpolated independently from X.
type Coord struct {
	X, Y        float64
	Anisotropic bool
}

// C wraps a plain number into an isotropic coordinate.
func C(v float64) Coord {
	return Coord{X: v, Y: v}
}

// CXY creates an anisotropic coordinate with split horizontal and
// vertical values.
func CXY(x, y float64) Coord {
	return Coord{X: x, Y: y, Anisotropic: true}
}

func (c Coord) String() string {
	if c.Anisotropic {
		return fmt.Sprintf("(%s,%s)", fmtFloat(c.X), fmtFloat(c.Y))
	}
	return fmtFloat(c.X)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Location is a point in design space: a mapping from axis names to
// coordinates. Locations are treated as value types: clients construct
// them fresh per computation and must not mutate them afterwards.
type Location map[string]Coord

// New creates an empty location.
func New() Location {
	return Location{}
}

// FromMap creates a location from a plain axis→number mapping.
func FromMap(m map[string]float64) Location {
	loc := make(Location, len(m))
	for axis, v := range m {
		loc[axis] = C(v)
	}
	return loc
}

// Clone returns an independent copy of loc.
func (loc Location) Clone() Location {
	c := make(Location, len(loc))
	for axis, v := range loc {
		c[axis] = v
	}
	return c
}

// Merge returns a new location holding all coordinates of loc, with
// coordinates from overlay taking precedence for axes present in both.
func (loc Location) Merge(overlay Location) Location {
	m := loc.Clone()
	for axis, v := range overlay {
		m[axis] = v
	}
	return m
}

// Axes returns the axis names of loc in sorted order.
func (loc Location) Axes() []string {
	axes := make([]string, 0, len(loc))
	for axis := range loc {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	return axes
}

// Equal reports whether two locations describe the same point. All
// coordinates have to match exactly (floating point equality).
func (loc Location) Equal(other Location) bool {
	if len(loc) != len(other) {
		return false
	}
	for axis, v := range loc {
		w, ok := other[axis]
		if !ok {
			return false
		}
		if v.X != w.X || v.Y != w.Y || v.Anisotropic != w.Anisotropic {
			return false
		}
	}
	return true
}

// IsAnisotropic reports whether any coordinate of loc is split.
func (loc Location) IsAnisotropic() bool {
	for _, v := range loc {
		if v.Anisotropic {
			return true
		}
	}
	return false
}

// IsotropicX returns a copy of loc with every split coordinate collapsed
// onto its horizontal value.
func (loc Location) IsotropicX() Location {
	c := make(Location, len(loc))
	for axis, v := range loc {
		c[axis] = C(v.X)
	}
	return c
}

// IsotropicY returns a copy of loc with every split coordinate collapsed
// onto its vertical value.
func (loc Location) IsotropicY() Location {
	c := make(Location, len(loc))
	for axis, v := range loc {
		c[axis] = C(v.Y)
	}
	return c
}

// Hash returns a canonical string key for loc, suitable for map keying.
// Axis order is normalized, coordinate formatting is exact.
func (loc Location) Hash() string {
	var sb strings.Builder
	for i, axis := range loc.Axes() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(axis)
		sb.WriteByte('=')
		sb.WriteString(loc[axis].String())
	}
	return sb.String()
}

func (loc Location) String() string {
	return "<" + loc.Hash() + ">"
}

// Distance returns the Euclidean distance between two locations over the
// union of their axes. An axis missing on one side counts as 0 there.
// Anisotropic coordinates are measured by their horizontal value.
func Distance(a, b Location) float64 {
	seen := map[string]bool{}
	d := 0.0
	for axis, v := range a {
		w := b[axis]
		d += (v.X - w.X) * (v.X - w.X)
		seen[axis] = true
	}
	for axis, w := range b {
		if !seen[axis] {
			d += w.X * w.X
		}
	}
	return math.Sqrt(d)
}
