package ufo

import (
	"github.com/npillmayer/arithm"
)

// PointType discriminates the segment types of outline points, using the
// GLIF vocabulary. The zero value denotes an off-curve control point.
type PointType string

// Point types as used in GLIF files.
const (
	OffCurve PointType = ""
	Move     PointType = "move"
	Line     PointType = "line"
	Curve    PointType = "curve"
	QCurve   PointType = "qcurve"
)

// Point is one on-curve or off-curve point of a contour.
type Point struct {
	P      arithm.Pair
	Type   PointType
	Smooth bool
	Name   string
}

// Contour is a sequence of points.
type Contour struct {
	Points []Point
}

// Affine is a 2x3 affine transformation, with fields named after the
// GLIF component attributes. Applied as
//
//	x' = XScale·x + YXScale·y + XOffset
//	y' = XYScale·x + YScale·y + YOffset
type Affine struct {
	XScale  float64
	XYScale float64
	YXScale float64
	YScale  float64
	XOffset float64
	YOffset float64
}

// Identity is the neutral transformation.
var Identity = Affine{XScale: 1, YScale: 1}

// IsIdentity reports whether t is the neutral transformation.
func (t Affine) IsIdentity() bool {
	return t == Identity
}

// Apply transforms point p.
func (t Affine) Apply(p arithm.Pair) arithm.Pair {
	x, y := p.X(), p.Y()
	return arithm.P(t.XScale*x+t.YXScale*y+t.XOffset, t.XYScale*x+t.YScale*y+t.YOffset)
}

// Mul composes two transformations: the result applies u first, then t.
func (t Affine) Mul(u Affine) Affine {
	return Affine{
		XScale:  t.XScale*u.XScale + t.YXScale*u.XYScale,
		XYScale: t.XYScale*u.XScale + t.YScale*u.XYScale,
		YXScale: t.XScale*u.YXScale + t.YXScale*u.YScale,
		YScale:  t.XYScale*u.YXScale + t.YScale*u.YScale,
		XOffset: t.XScale*u.XOffset + t.YXScale*u.YOffset + t.XOffset,
		YOffset: t.XYScale*u.XOffset + t.YScale*u.YOffset + t.YOffset,
	}
}

// Component is a reference to another glyph of the same layer, placed
// with an affine transformation.
type Component struct {
	BaseGlyph string
	Transform Affine
}

// Anchor is a named attachment point.
type Anchor struct {
	P    arithm.Pair
	Name string
}

// Glyph is one glyph of a font layer.
type Glyph struct {
	Name       string
	Width      float64
	Unicodes   []rune
	Contours   []Contour
	Components []Component
	Anchors    []Anchor
	Note       string
	Lib        map[string]interface{}
}

// NewGlyph creates an empty glyph.
func NewGlyph(name string) *Glyph {
	return &Glyph{Name: name}
}

// ClearOutline removes contours, components and anchors, keeping name,
// width, unicodes and lib.
func (g *Glyph) ClearOutline() {
	g.Contours = nil
	g.Components = nil
	g.Anchors = nil
}

// Copy returns a deep copy of g.
func (g *Glyph) Copy() *Glyph {
	c := &Glyph{
		Name:  g.Name,
		Width: g.Width,
		Note:  g.Note,
	}
	c.Unicodes = append(c.Unicodes, g.Unicodes...)
	for _, contour := range g.Contours {
		points := append([]Point(nil), contour.Points...)
		c.Contours = append(c.Contours, Contour{Points: points})
	}
	c.Components = append(c.Components, g.Components...)
	c.Anchors = append(c.Anchors, g.Anchors...)
	if g.Lib != nil {
		c.Lib = make(map[string]interface{}, len(g.Lib))
		for k, v := range g.Lib {
			c.Lib[k] = v
		}
	}
	return c
}
