package fontmath

import (
	"testing"

	"github.com/npillmayer/arithm"
	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/ufo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func box(name string, s float64) *ufo.Glyph {
	g := ufo.NewGlyph(name)
	g.Width = s
	g.Unicodes = []rune{'A'}
	g.Contours = []ufo.Contour{{Points: []ufo.Point{
		{P: arithm.P(0, 0), Type: ufo.Line},
		{P: arithm.P(s, 0), Type: ufo.Line},
		{P: arithm.P(s, s), Type: ufo.Line},
		{P: arithm.P(0, s), Type: ufo.Line},
	}}}
	return g
}

func TestGlyphArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	a := FromGlyph(box("A", 100))
	b := FromGlyph(box("A", 500))
	delta, err := b.Sub(a)
	require.NoError(t, err)
	quarter := delta.Scale(0.25, 0.25)
	sum, err := a.Add(quarter)
	require.NoError(t, err)
	g := sum.(*Glyph)
	require.Equal(t, 200.0, g.Width)
	require.Equal(t, 200.0, g.Contours[0].Points[2].P.X())
	require.Equal(t, []rune{'A'}, g.Unicodes, "unicodes must ride along unchanged")
}

func TestGlyphIncompatible(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	a := FromGlyph(box("A", 100))
	short := box("A", 100)
	short.Contours[0].Points = short.Contours[0].Points[:3]
	b := FromGlyph(short)
	_, err := a.Add(b)
	require.Error(t, err, "point count mismatch must be rejected")
	require.Equal(t, core.EINVALID, core.Code(err))
}

func TestGlyphComponentArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	ga := ufo.NewGlyph("acomp")
	ga.Components = []ufo.Component{{BaseGlyph: "A", Transform: ufo.Affine{XScale: 1, YScale: 1, XOffset: 10, YOffset: 20}}}
	gb := ufo.NewGlyph("acomp")
	gb.Components = []ufo.Component{{BaseGlyph: "A", Transform: ufo.Affine{XScale: 1, YScale: 1, XOffset: 30, YOffset: 60}}}
	a, b := FromGlyph(ga), FromGlyph(gb)
	d, err := b.Sub(a)
	require.NoError(t, err)
	half := d.Scale(0.5, 0.5)
	m, err := a.Add(half)
	require.NoError(t, err)
	tr := m.(*Glyph).Components[0].Transform
	require.Equal(t, 20.0, tr.XOffset)
	require.Equal(t, 40.0, tr.YOffset)
	require.Equal(t, 1.0, tr.XScale)
	//
	gc := ufo.NewGlyph("acomp")
	gc.Components = []ufo.Component{{BaseGlyph: "B", Transform: ufo.Identity}}
	_, err = a.Add(FromGlyph(gc))
	require.Error(t, err, "component base mismatch must be rejected")
}

func TestGlyphRound(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	g := FromGlyph(box("A", 100)).Scale(1.0/3.0, 1.0/3.0).Round().(*Glyph)
	require.Equal(t, 33.0, g.Width)
	require.Equal(t, 33.0, g.Contours[0].Points[1].P.X())
}

func TestKerningArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	fa, fb := ufo.NewFont(), ufo.NewFont()
	fa.Kerning[ufo.KernPair{First: "A", Second: "V"}] = -40
	fa.Groups["public.kern1.A"] = []string{"A", "Aacute"}
	fb.Kerning[ufo.KernPair{First: "A", Second: "V"}] = -80
	fb.Kerning[ufo.KernPair{First: "T", Second: "o"}] = -100
	a, b := KerningFromFont(fa), KerningFromFont(fb)
	d, err := b.Sub(a)
	require.NoError(t, err)
	half := d.Scale(0.5, 0.5)
	m, err := a.Add(half)
	require.NoError(t, err)
	k := m.(*Kerning)
	require.Equal(t, -60.0, k.Pairs[ufo.KernPair{First: "A", Second: "V"}])
	require.Equal(t, -50.0, k.Pairs[ufo.KernPair{First: "T", Second: "o"}], "missing pair counts as 0")
	require.Equal(t, []string{"A", "Aacute"}, k.Groups["public.kern1.A"])
	//
	out := ufo.NewFont()
	k.ExtractTo(out)
	require.Equal(t, -60.0, out.Kerning[ufo.KernPair{First: "A", Second: "V"}])
	require.Equal(t, []string{"A", "Aacute"}, out.Groups["public.kern1.A"])
}

func TestInfoArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	fa, fb := ufo.NewFont(), ufo.NewFont()
	asc1, asc2 := 400.0, 600.0
	fa.Info.Ascender = &asc1
	fa.Info.FamilyName = "Test"
	fa.Info.Copyright = "from master 1"
	fb.Info.Ascender = &asc2
	a, b := InfoFromFont(fa), InfoFromFont(fb)
	d, err := b.Sub(a)
	require.NoError(t, err)
	m, err := a.Add(d.Scale(0.5, 0.5))
	require.NoError(t, err)
	var out ufo.Info
	m.(*Info).ExtractTo(&out)
	require.NotNil(t, out.Ascender)
	require.Equal(t, 500.0, *out.Ascender)
	require.Equal(t, "Test", out.FamilyName, "name fields carry over from the first operand")
	require.Equal(t, "from master 1", out.Copyright)
	//
	fa.Info.BlueValues = []float64{0, 10}
	fb.Info.BlueValues = []float64{0, 10, 20}
	_, err = InfoFromFont(fb).Sub(InfoFromFont(fa))
	require.Error(t, err, "blue zone count mismatch must be rejected")
}
