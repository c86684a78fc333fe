package fontmath

import (
	"math"

	"github.com/npillmayer/arithm"
	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/ufo"
)

// Glyph is the interpolatable form of a glyph: geometry, width and
// component references. Unicode values ride along untouched — they are
// identity, not geometry, and never take part in arithmetic.
type Glyph struct {
	Name       string
	Width      float64
	Unicodes   []rune
	Note       string
	Contours   []ufo.Contour
	Components []ufo.Component
	Anchors    []ufo.Anchor
}

var _ Value = (*Glyph)(nil)

// FromGlyph converts a font glyph into its interpolatable form.
func FromGlyph(g *ufo.Glyph) *Glyph {
	c := g.Copy()
	return &Glyph{
		Name:       c.Name,
		Width:      c.Width,
		Unicodes:   c.Unicodes,
		Note:       c.Note,
		Contours:   c.Contours,
		Components: c.Components,
		Anchors:    c.Anchors,
	}
}

// ExtractTo writes the glyph's geometry and width into target, clearing
// target's outline first. Name and unicode values of target are left to
// the caller.
func (g *Glyph) ExtractTo(target *ufo.Glyph) {
	target.ClearOutline()
	target.Width = g.Width
	for _, contour := range g.Contours {
		points := append([]ufo.Point(nil), contour.Points...)
		target.Contours = append(target.Contours, ufo.Contour{Points: points})
	}
	target.Components = append(target.Components, g.Components...)
	target.Anchors = append(target.Anchors, g.Anchors...)
}

func (g *Glyph) compatible(h *Glyph) error {
	if len(g.Contours) != len(h.Contours) {
		return core.Error(core.EINVALID, "glyph %s: contour count mismatch (%d vs %d)",
			g.Name, len(g.Contours), len(h.Contours))
	}
	for i := range g.Contours {
		if len(g.Contours[i].Points) != len(h.Contours[i].Points) {
			return core.Error(core.EINVALID, "glyph %s: point count mismatch in contour %d",
				g.Name, i)
		}
	}
	if len(g.Components) != len(h.Components) {
		return core.Error(core.EINVALID, "glyph %s: component count mismatch", g.Name)
	}
	for i := range g.Components {
		if g.Components[i].BaseGlyph != h.Components[i].BaseGlyph {
			return core.Error(core.EINVALID, "glyph %s: component %d references %s vs %s",
				g.Name, i, g.Components[i].BaseGlyph, h.Components[i].BaseGlyph)
		}
	}
	if len(g.Anchors) != len(h.Anchors) {
		return core.Error(core.EINVALID, "glyph %s: anchor count mismatch", g.Name)
	}
	return nil
}

func (g *Glyph) zip(h *Glyph, op func(a, b float64) float64) *Glyph {
	out := &Glyph{
		Name:     g.Name,
		Width:    op(g.Width, h.Width),
		Unicodes: append([]rune(nil), g.Unicodes...),
		Note:     g.Note,
	}
	for i, contour := range g.Contours {
		points := make([]ufo.Point, len(contour.Points))
		for j, p := range contour.Points {
			q := h.Contours[i].Points[j]
			points[j] = ufo.Point{
				P:      arithm.P(op(p.P.X(), q.P.X()), op(p.P.Y(), q.P.Y())),
				Type:   p.Type,
				Smooth: p.Smooth,
				Name:   p.Name,
			}
		}
		out.Contours = append(out.Contours, ufo.Contour{Points: points})
	}
	for i, c := range g.Components {
		d := h.Components[i]
		out.Components = append(out.Components, ufo.Component{
			BaseGlyph: c.BaseGlyph,
			Transform: ufo.Affine{
				XScale:  op(c.Transform.XScale, d.Transform.XScale),
				XYScale: op(c.Transform.XYScale, d.Transform.XYScale),
				YXScale: op(c.Transform.YXScale, d.Transform.YXScale),
				YScale:  op(c.Transform.YScale, d.Transform.YScale),
				XOffset: op(c.Transform.XOffset, d.Transform.XOffset),
				YOffset: op(c.Transform.YOffset, d.Transform.YOffset),
			},
		})
	}
	for i, a := range g.Anchors {
		b := h.Anchors[i]
		out.Anchors = append(out.Anchors, ufo.Anchor{
			P:    arithm.P(op(a.P.X(), b.P.X()), op(a.P.Y(), b.P.Y())),
			Name: a.Name,
		})
	}
	return out
}

// Add implements Value.
func (g *Glyph) Add(other Value) (Value, error) {
	h, ok := other.(*Glyph)
	if !ok {
		return nil, core.Error(core.EINVALID, "glyph %s: cannot add %T", g.Name, other)
	}
	if err := g.compatible(h); err != nil {
		return nil, err
	}
	return g.zip(h, func(a, b float64) float64 { return a + b }), nil
}

// Sub implements Value.
func (g *Glyph) Sub(other Value) (Value, error) {
	h, ok := other.(*Glyph)
	if !ok {
		return nil, core.Error(core.EINVALID, "glyph %s: cannot subtract %T", g.Name, other)
	}
	if err := g.compatible(h); err != nil {
		return nil, err
	}
	return g.zip(h, func(a, b float64) float64 { return a - b }), nil
}

// Scale implements Value. Horizontal parts scale by x, vertical parts
// by y.
func (g *Glyph) Scale(x, y float64) Value {
	out := &Glyph{
		Name:     g.Name,
		Width:    g.Width * x,
		Unicodes: append([]rune(nil), g.Unicodes...),
		Note:     g.Note,
	}
	for _, contour := range g.Contours {
		points := make([]ufo.Point, len(contour.Points))
		for j, p := range contour.Points {
			points[j] = ufo.Point{
				P:      arithm.P(p.P.X()*x, p.P.Y()*y),
				Type:   p.Type,
				Smooth: p.Smooth,
				Name:   p.Name,
			}
		}
		out.Contours = append(out.Contours, ufo.Contour{Points: points})
	}
	for _, c := range g.Components {
		out.Components = append(out.Components, ufo.Component{
			BaseGlyph: c.BaseGlyph,
			Transform: ufo.Affine{
				XScale:  c.Transform.XScale * x,
				YXScale: c.Transform.YXScale * x,
				XOffset: c.Transform.XOffset * x,
				XYScale: c.Transform.XYScale * y,
				YScale:  c.Transform.YScale * y,
				YOffset: c.Transform.YOffset * y,
			},
		})
	}
	for _, a := range g.Anchors {
		out.Anchors = append(out.Anchors, ufo.Anchor{
			P:    arithm.P(a.P.X()*x, a.P.Y()*y),
			Name: a.Name,
		})
	}
	return out
}

// Round implements Value: coordinates, offsets and width snap to the
// integer grid, half away from zero.
func (g *Glyph) Round() Value {
	r := math.Round
	out := &Glyph{
		Name:     g.Name,
		Width:    r(g.Width),
		Unicodes: append([]rune(nil), g.Unicodes...),
		Note:     g.Note,
	}
	for _, contour := range g.Contours {
		points := make([]ufo.Point, len(contour.Points))
		for j, p := range contour.Points {
			points[j] = ufo.Point{
				P:      arithm.P(r(p.P.X()), r(p.P.Y())),
				Type:   p.Type,
				Smooth: p.Smooth,
				Name:   p.Name,
			}
		}
		out.Contours = append(out.Contours, ufo.Contour{Points: points})
	}
	for _, c := range g.Components {
		t := c.Transform
		t.XOffset = r(t.XOffset)
		t.YOffset = r(t.YOffset)
		out.Components = append(out.Components, ufo.Component{BaseGlyph: c.BaseGlyph, Transform: t})
	}
	for _, a := range g.Anchors {
		out.Anchors = append(out.Anchors, ufo.Anchor{P: arithm.P(r(a.P.X()), r(a.P.Y())), Name: a.Name})
	}
	return out
}
