package ufo

import (
	"path/filepath"
	"testing"

	"github.com/npillmayer/arithm"
	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func makeTestFont(t *testing.T) *Font {
	t.Helper()
	f := NewFont()
	f.Info.FamilyName = "Test"
	f.Info.StyleName = "Regular"
	ascender := 800.0
	f.Info.Ascender = &ascender
	f.Info.Copyright = "test copyright"
	g := f.NewGlyph("A")
	g.Width = 500
	g.Unicodes = []rune{'A'}
	g.Contours = []Contour{{Points: []Point{
		{P: arithm.P(0, 0), Type: Line},
		{P: arithm.P(500, 0), Type: Line},
		{P: arithm.P(250, 700), Type: Line, Smooth: true},
	}}}
	g.Anchors = []Anchor{{P: arithm.P(250, 700), Name: "top"}}
	c := f.NewGlyph("Aacute")
	c.Width = 500
	c.Components = []Component{
		{BaseGlyph: "A"},
		{BaseGlyph: "acute", Transform: Affine{XScale: 1, YScale: 1, XOffset: 100, YOffset: 200}},
	}
	f.Kerning[KernPair{"A", "A"}] = -25
	f.Groups["public.kern1.A"] = []string{"A", "Aacute"}
	f.Lib["com.example.test"] = "lib entry"
	f.Features = "# feature text\n"
	return f
}

func TestGlifRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.ufo")
	defer teardown()
	//
	f := makeTestFont(t)
	g := f.Glyph("A")
	g.Lib = map[string]interface{}{"designspace.location": map[string]interface{}{"weight": 500.0}}
	data, err := WriteGlif(g)
	require.NoError(t, err)
	back, err := ParseGlif(data)
	require.NoError(t, err)
	require.Equal(t, "A", back.Name)
	require.Equal(t, 500.0, back.Width)
	require.Equal(t, []rune{'A'}, back.Unicodes)
	require.Len(t, back.Contours, 1)
	require.Len(t, back.Contours[0].Points, 3)
	require.True(t, back.Contours[0].Points[2].Smooth)
	require.Equal(t, 700.0, back.Contours[0].Points[2].P.Y())
	require.Len(t, back.Anchors, 1)
	loc, ok := back.Lib["designspace.location"].(map[string]interface{})
	require.True(t, ok, "glyph lib location dict should survive the round trip")
	w, ok := AsNumber(loc["weight"])
	require.True(t, ok)
	require.Equal(t, 500.0, w)
}

func TestUFOPackageRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.ufo")
	defer teardown()
	//
	f := makeTestFont(t)
	layer := f.NewLayer("#brace 500")
	lg := NewGlyph("A")
	lg.Width = 300
	lg.Lib = map[string]interface{}{"designspace.location": map[string]interface{}{"weight": 500.0}}
	layer.SetGlyph(lg)
	//
	path := filepath.Join(t.TempDir(), "Test-Regular.ufo")
	require.NoError(t, f.Save(path, 3))
	//
	v, err := FormatVersionAt(path)
	require.NoError(t, err)
	require.Equal(t, 3, v)
	//
	back, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "Test", back.Info.FamilyName)
	require.NotNil(t, back.Info.Ascender)
	require.Equal(t, 800.0, *back.Info.Ascender)
	require.Equal(t, "test copyright", back.Info.Copyright)
	require.Equal(t, []string{"A", "Aacute"}, back.GlyphNames())
	require.Equal(t, -25.0, back.Kerning[KernPair{"A", "A"}])
	require.Equal(t, []string{"A", "Aacute"}, back.Groups["public.kern1.A"])
	require.Equal(t, "lib entry", back.Lib["com.example.test"])
	require.Equal(t, "# feature text\n", back.Features)
	require.Equal(t, 100.0, back.Glyph("Aacute").Components[1].Transform.XOffset)
	//
	braces := back.Layer("#brace 500")
	require.NotNil(t, braces, "brace layer should survive the round trip")
	require.True(t, braces.HasGlyph("A"))
	require.Equal(t, 300.0, braces.Glyph("A").Width)
}

func TestSaveRefusesDowngrade(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.ufo")
	defer teardown()
	//
	f := makeTestFont(t)
	path := filepath.Join(t.TempDir(), "Test.ufo")
	require.NoError(t, f.Save(path, 3))
	err := f.Save(path, 2)
	require.Error(t, err, "saving UFO2 over existing UFO3 must be refused")
	require.Equal(t, core.EPOLICY, core.Code(err))
}

func TestAffineMulApply(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.ufo")
	defer teardown()
	//
	shift := Affine{XScale: 1, YScale: 1, XOffset: 10, YOffset: 20}
	double := Affine{XScale: 2, YScale: 2}
	// shift after double: p -> 2p + (10,20)
	m := shift.Mul(double)
	p := m.Apply(arithm.P(3, 4))
	if p.X() != 16 || p.Y() != 28 {
		t.Errorf("expected (16,28), got (%g,%g)", p.X(), p.Y())
	}
	if !Identity.Mul(Identity).IsIdentity() {
		t.Errorf("identity composition should stay identity")
	}
}
