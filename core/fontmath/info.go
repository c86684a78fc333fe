package fontmath

import (
	"math"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/ufo"
)

// Info is the interpolatable form of the font-wide information record.
// Only numeric fields take part in arithmetic; name fields and the
// verbatim-copy fields are carried from the first operand.
type Info struct {
	rec ufo.Info
}

var _ Value = (*Info)(nil)

// InfoFromFont snapshots a font's info record.
func InfoFromFont(f *ufo.Font) *Info {
	return &Info{rec: f.Info}
}

// ExtractTo writes the interpolated numeric fields and the carried name
// fields into target.
func (n *Info) ExtractTo(target *ufo.Info) {
	*target = n.rec
}

// zipPtr combines two optional fields; a missing side counts as 0 but
// the result exists only if at least one side exists.
func zipPtr(a, b *float64, op func(x, y float64) float64) *float64 {
	if a == nil && b == nil {
		return nil
	}
	x, y := 0.0, 0.0
	if a != nil {
		x = *a
	}
	if b != nil {
		y = *b
	}
	v := op(x, y)
	return &v
}

func zipList(name string, a, b []float64, op func(x, y float64) float64) ([]float64, error) {
	if len(a) == 0 && len(b) == 0 {
		return nil, nil
	}
	if len(a) == 0 || len(b) == 0 {
		longer := a
		if len(b) > len(a) {
			longer = b
		}
		out := make([]float64, len(longer))
		for i := range longer {
			if len(a) == 0 {
				out[i] = op(0, b[i])
			} else {
				out[i] = op(a[i], 0)
			}
		}
		return out, nil
	}
	if len(a) != len(b) {
		return nil, core.Error(core.EINVALID, "font info %s: list length mismatch (%d vs %d)",
			name, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = op(a[i], b[i])
	}
	return out, nil
}

func (n *Info) zip(other *Info, op func(x, y float64) float64) (*Info, error) {
	out := &Info{rec: n.rec}
	out.rec.UnitsPerEm = zipPtr(n.rec.UnitsPerEm, other.rec.UnitsPerEm, op)
	out.rec.Ascender = zipPtr(n.rec.Ascender, other.rec.Ascender, op)
	out.rec.Descender = zipPtr(n.rec.Descender, other.rec.Descender, op)
	out.rec.CapHeight = zipPtr(n.rec.CapHeight, other.rec.CapHeight, op)
	out.rec.XHeight = zipPtr(n.rec.XHeight, other.rec.XHeight, op)
	out.rec.ItalicAngle = zipPtr(n.rec.ItalicAngle, other.rec.ItalicAngle, op)
	var err error
	if out.rec.BlueValues, err = zipList("blueValues", n.rec.BlueValues, other.rec.BlueValues, op); err != nil {
		return nil, err
	}
	if out.rec.OtherBlues, err = zipList("otherBlues", n.rec.OtherBlues, other.rec.OtherBlues, op); err != nil {
		return nil, err
	}
	if out.rec.StemSnapH, err = zipList("stemSnapH", n.rec.StemSnapH, other.rec.StemSnapH, op); err != nil {
		return nil, err
	}
	if out.rec.StemSnapV, err = zipList("stemSnapV", n.rec.StemSnapV, other.rec.StemSnapV, op); err != nil {
		return nil, err
	}
	return out, nil
}

// Add implements Value.
func (n *Info) Add(other Value) (Value, error) {
	o, ok := other.(*Info)
	if !ok {
		return nil, core.Error(core.EINVALID, "font info: cannot add %T", other)
	}
	return n.zip(o, func(x, y float64) float64 { return x + y })
}

// Sub implements Value.
func (n *Info) Sub(other Value) (Value, error) {
	o, ok := other.(*Info)
	if !ok {
		return nil, core.Error(core.EINVALID, "font info: cannot subtract %T", other)
	}
	return n.zip(o, func(x, y float64) float64 { return x - y })
}

// Scale implements Value. Vertical metrics scale by y, the rest by x.
func (n *Info) Scale(x, y float64) Value {
	out := &Info{rec: n.rec}
	mul := func(p *float64, f float64) *float64 {
		if p == nil {
			return nil
		}
		v := *p * f
		return &v
	}
	mulList := func(list []float64, f float64) []float64 {
		if len(list) == 0 {
			return nil
		}
		out := make([]float64, len(list))
		for i, v := range list {
			out[i] = v * f
		}
		return out
	}
	out.rec.UnitsPerEm = mul(n.rec.UnitsPerEm, x)
	out.rec.ItalicAngle = mul(n.rec.ItalicAngle, x)
	out.rec.Ascender = mul(n.rec.Ascender, y)
	out.rec.Descender = mul(n.rec.Descender, y)
	out.rec.CapHeight = mul(n.rec.CapHeight, y)
	out.rec.XHeight = mul(n.rec.XHeight, y)
	out.rec.BlueValues = mulList(n.rec.BlueValues, y)
	out.rec.OtherBlues = mulList(n.rec.OtherBlues, y)
	out.rec.StemSnapH = mulList(n.rec.StemSnapH, y)
	out.rec.StemSnapV = mulList(n.rec.StemSnapV, x)
	return out
}

// Round implements Value. All numeric fields except the italic angle
// snap to integers.
func (n *Info) Round() Value {
	out := &Info{rec: n.rec}
	rnd := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		v := math.Round(*p)
		return &v
	}
	rndList := func(list []float64) []float64 {
		if len(list) == 0 {
			return nil
		}
		out := make([]float64, len(list))
		for i, v := range list {
			out[i] = math.Round(v)
		}
		return out
	}
	out.rec.UnitsPerEm = rnd(n.rec.UnitsPerEm)
	out.rec.Ascender = rnd(n.rec.Ascender)
	out.rec.Descender = rnd(n.rec.Descender)
	out.rec.CapHeight = rnd(n.rec.CapHeight)
	out.rec.XHeight = rnd(n.rec.XHeight)
	out.rec.BlueValues = rndList(n.rec.BlueValues)
	out.rec.OtherBlues = rndList(n.rec.OtherBlues)
	out.rec.StemSnapH = rndList(n.rec.StemSnapH)
	out.rec.StemSnapV = rndList(n.rec.StemSnapV)
	return out
}
