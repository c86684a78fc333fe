package fontmath

import (
	"math"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/ufo"
)

// Kerning is the interpolatable form of a kerning table. Arithmetic is
// sparse: a pair missing from one operand counts as 0. Group membership
// is carried along from the first operand so that instances end up with
// the groups their pair names refer to.
type Kerning struct {
	Pairs  ufo.Kerning
	Groups ufo.Groups
}

var _ Value = (*Kerning)(nil)

// KerningFromFont snapshots a font's kerning and groups.
func KerningFromFont(f *ufo.Font) *Kerning {
	k := &Kerning{Pairs: make(ufo.Kerning, len(f.Kerning)), Groups: make(ufo.Groups, len(f.Groups))}
	for pair, value := range f.Kerning {
		k.Pairs[pair] = value
	}
	for name, members := range f.Groups {
		k.Groups[name] = append([]string(nil), members...)
	}
	return k
}

// ExtractTo writes kerning and groups into f, replacing existing
// entries.
func (k *Kerning) ExtractTo(f *ufo.Font) {
	f.Kerning = make(ufo.Kerning, len(k.Pairs))
	for pair, value := range k.Pairs {
		f.Kerning[pair] = value
	}
	f.Groups = make(ufo.Groups, len(k.Groups))
	for name, members := range k.Groups {
		f.Groups[name] = append([]string(nil), members...)
	}
}

func (k *Kerning) zip(other *Kerning, op func(a, b float64) float64) *Kerning {
	out := &Kerning{Pairs: make(ufo.Kerning, len(k.Pairs)), Groups: k.Groups}
	for pair, value := range k.Pairs {
		out.Pairs[pair] = op(value, other.Pairs[pair])
	}
	for pair, value := range other.Pairs {
		if _, seen := k.Pairs[pair]; !seen {
			out.Pairs[pair] = op(0, value)
		}
	}
	return out
}

// Add implements Value.
func (k *Kerning) Add(other Value) (Value, error) {
	o, ok := other.(*Kerning)
	if !ok {
		return nil, core.Error(core.EINVALID, "kerning: cannot add %T", other)
	}
	return k.zip(o, func(a, b float64) float64 { return a + b }), nil
}

// Sub implements Value.
func (k *Kerning) Sub(other Value) (Value, error) {
	o, ok := other.(*Kerning)
	if !ok {
		return nil, core.Error(core.EINVALID, "kerning: cannot subtract %T", other)
	}
	return k.zip(o, func(a, b float64) float64 { return a - b }), nil
}

// Scale implements Value. Kerning is a horizontal adjustment; only the
// x factor applies.
func (k *Kerning) Scale(x, y float64) Value {
	out := &Kerning{Pairs: make(ufo.Kerning, len(k.Pairs)), Groups: k.Groups}
	for pair, value := range k.Pairs {
		out.Pairs[pair] = value * x
	}
	return out
}

// Round implements Value.
func (k *Kerning) Round() Value {
	out := &Kerning{Pairs: make(ufo.Kerning, len(k.Pairs)), Groups: k.Groups}
	for pair, value := range k.Pairs {
		out.Pairs[pair] = math.Round(value)
	}
	return out
}
