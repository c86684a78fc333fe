package mutator

import (
	"math"
	"sort"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/designspace"
	"github.com/npillmayer/dspace/core/fontmath"
	"github.com/npillmayer/dspace/core/location"
)

// Item is one master sample: a value at a location.
type Item struct {
	Loc location.Location
	V   fontmath.Value
}

// delta is a stored difference value, keyed by its offset from the bias
// on its active axes.
type delta struct {
	offset map[string]float64
	value  fontmath.Value
}

// Mutator is an evaluable interpolation model over one value type.
type Mutator struct {
	axes    []designspace.Axis
	biasLoc location.Location
	neutral fontmath.Value
	deltas  []delta
	onAxis  map[string][]float64 // sorted per-axis sample offsets, incl. 0
}

// Build constructs a mutator from master samples.
//
// Every sample location is completed with axis defaults for axes it does
// not mention. When two samples share a location, the later one silently
// replaces the earlier. The bias becomes the sample nearest to the
// requested bias location (normally the design space default); ties
// break deterministically on the canonical location string.
func Build(items []Item, axes []designspace.Axis, bias location.Location) (*Mutator, error) {
	if len(items) == 0 {
		return nil, core.Error(core.EINVALID, "cannot build a mutator without master samples")
	}
	m := &Mutator{axes: axes, onAxis: make(map[string][]float64)}
	padded := make([]Item, 0, len(items))
	seen := map[string]int{}
	for _, it := range items {
		loc := pad(it.Loc, axes)
		if idx, dup := seen[loc.Hash()]; dup {
			padded[idx] = Item{Loc: loc, V: it.V}
			continue
		}
		seen[loc.Hash()] = len(padded)
		padded = append(padded, Item{Loc: loc, V: it.V})
	}
	if bias == nil {
		bias = location.New()
	}
	bias = pad(bias, axes)
	biasIdx := nearest(padded, bias)
	m.biasLoc = padded[biasIdx].Loc
	m.neutral = padded[biasIdx].V
	if !m.biasLoc.Equal(bias) {
		tracer().Infof("no master at bias %v, using nearest sample at %v", bias, m.biasLoc)
	}
	//
	// collect offsets from the bias, on-axis deltas before off-axis ones
	type pending struct {
		item   Item
		offset map[string]float64
		dist   float64
	}
	var rest []pending
	for i, it := range padded {
		if i == biasIdx {
			continue
		}
		offset := map[string]float64{}
		dist := 0.0
		for axis, coord := range it.Loc {
			d := coord.X - m.biasLoc[axis].X
			if d != 0 {
				offset[axis] = d
				dist += d * d
			}
		}
		rest = append(rest, pending{item: it, offset: offset, dist: math.Sqrt(dist)})
	}
	sort.Slice(rest, func(i, j int) bool {
		if len(rest[i].offset) != len(rest[j].offset) {
			return len(rest[i].offset) < len(rest[j].offset)
		}
		if rest[i].dist != rest[j].dist {
			return rest[i].dist < rest[j].dist
		}
		return rest[i].item.Loc.Hash() < rest[j].item.Loc.Hash()
	})
	for _, p := range rest {
		var base fontmath.Value
		if len(p.offset) <= 1 {
			base = m.neutral
		} else {
			// off-axis master: punch out what the model built so far
			// already predicts at this location
			predicted, err := m.Instance(p.item.Loc)
			if err != nil {
				return nil, err
			}
			base = predicted
		}
		d, err := p.item.V.Sub(base)
		if err != nil {
			return nil, err
		}
		m.deltas = append(m.deltas, delta{offset: p.offset, value: d})
		if len(p.offset) == 1 {
			for axis, off := range p.offset {
				m.onAxis[axis] = insertSorted(m.onAxis[axis], off)
			}
		}
	}
	tracer().Debugf("built mutator with %d deltas, bias %v", len(m.deltas), m.biasLoc)
	return m, nil
}

// Neutral returns the bias sample's value.
func (m *Mutator) Neutral() fontmath.Value {
	return m.neutral
}

// BiasLocation returns the location of the bias sample.
func (m *Mutator) BiasLocation() location.Location {
	return m.biasLoc
}

// Instance evaluates the model at the target location. Axes missing
// from the target default to their axis default. Anisotropic targets
// evaluate horizontal and vertical factors separately.
func (m *Mutator) Instance(target location.Location) (fontmath.Value, error) {
	target = pad(target, m.axes)
	aniso := target.IsAnisotropic()
	result := m.neutral
	for _, d := range m.deltas {
		fx := m.factor(d.offset, target, false)
		fy := fx
		if aniso {
			fy = m.factor(d.offset, target, true)
		}
		if fx == 0 && fy == 0 {
			continue
		}
		sum, err := result.Add(d.value.Scale(fx, fy))
		if err != nil {
			return nil, err
		}
		result = sum
	}
	return result, nil
}

// factor computes the weight of one delta at the target location: the
// product of its per-axis weights.
func (m *Mutator) factor(offset map[string]float64, target location.Location, vertical bool) float64 {
	f := 1.0
	for axis, p := range offset {
		coord := target[axis]
		t := coord.X - m.biasLoc[axis].X
		if vertical && coord.Anisotropic {
			t = coord.Y - m.biasLoc[axis].Y
		}
		f *= m.axisFactor(axis, p, t)
		if f == 0 {
			return 0
		}
	}
	return f
}

// axisFactor weighs a delta at per-axis position p against the target
// offset t, relative to the on-axis sample grid of that axis. The
// weight is a hat function peaking at p; targets outside the grid
// extend the outermost segment linearly.
func (m *Mutator) axisFactor(axis string, p, t float64) float64 {
	grid := m.onAxis[axis]
	if !contains(grid, p) || len(grid) == 0 {
		// no on-axis support for this position (purely off-axis
		// sample): fall back to the plain ratio
		return t / p
	}
	full := append([]float64{}, grid...)
	full = insertSorted(full, 0)
	lo, hi := segment(full, t)
	switch p {
	case hi:
		return (t - lo) / (hi - lo)
	case lo:
		return (hi - t) / (hi - lo)
	}
	return 0
}

// segment returns the grid segment enclosing t; beyond the outermost
// grid values it returns the outermost segment.
func segment(grid []float64, t float64) (lo, hi float64) {
	n := len(grid)
	for i := 0; i < n-2; i++ {
		if t < grid[i+1] {
			return grid[i], grid[i+1]
		}
	}
	return grid[n-2], grid[n-1]
}

func contains(grid []float64, v float64) bool {
	for _, g := range grid {
		if g == v {
			return true
		}
	}
	return false
}

func insertSorted(grid []float64, v float64) []float64 {
	if contains(grid, v) {
		return grid
	}
	grid = append(grid, v)
	sort.Float64s(grid)
	return grid
}

// pad completes loc with axis defaults for missing axes.
func pad(loc location.Location, axes []designspace.Axis) location.Location {
	full := location.New()
	for _, a := range axes {
		full[a.Name] = location.C(a.Default)
	}
	for axis, coord := range loc {
		full[axis] = coord
	}
	return full
}

// nearest returns the index of the sample closest to loc.
func nearest(items []Item, loc location.Location) int {
	best := 0
	bestDist := math.Inf(1)
	bestHash := ""
	for i, it := range items {
		d := location.Distance(it.Loc, loc)
		h := it.Loc.Hash()
		if d < bestDist || (d == bestDist && h < bestHash) {
			best, bestDist, bestHash = i, d, h
		}
	}
	return best
}
