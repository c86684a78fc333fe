package process

import (
	"path/filepath"
	"testing"

	"github.com/npillmayer/arithm"
	"github.com/npillmayer/dspace/core/designspace"
	"github.com/npillmayer/dspace/core/fontmath"
	"github.com/npillmayer/dspace/core/location"
	"github.com/npillmayer/dspace/core/ufo"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func boxOutline(g *ufo.Glyph, w float64) {
	g.Width = w
	g.Contours = []ufo.Contour{{Points: []ufo.Point{
		{P: arithm.P(0, 0), Type: ufo.Line},
		{P: arithm.P(w, 0), Type: ufo.Line},
		{P: arithm.P(w, w), Type: ufo.Line},
		{P: arithm.P(0, w), Type: ufo.Line},
	}}}
}

// masterFont builds a test master with glyphs A, dollar, dollar.alt and
// Aacute (a component reference onto A), scaled around a base width.
func masterFont(w float64) *ufo.Font {
	f := ufo.NewFont()
	a := f.NewGlyph("A")
	boxOutline(a, w)
	a.Unicodes = []rune{'A'}
	dollar := f.NewGlyph("dollar")
	boxOutline(dollar, w)
	dollar.Unicodes = []rune{'$'}
	alt := f.NewGlyph("dollar.alt")
	boxOutline(alt, w+20)
	aacute := f.NewGlyph("Aacute")
	aacute.Width = w
	aacute.Components = []ufo.Component{{
		BaseGlyph: "A",
		Transform: ufo.Affine{XScale: 1, YScale: 1, YOffset: 200},
	}}
	f.Kerning[ufo.KernPair{First: "A", Second: "dollar"}] = -w / 10
	f.Groups["public.kern1.round"] = []string{"dollar", "dollar.alt"}
	ascender := w * 2
	f.Info.Ascender = &ascender
	f.Info.FamilyName = "Test"
	f.Info.Copyright = "© testers"
	return f
}

func testDocument() *designspace.Document {
	doc := designspace.New()
	doc.AddAxis(designspace.Axis{Name: "weight", Tag: "wght", Minimum: 0, Maximum: 1000, Default: 0})
	doc.AddSource(designspace.Source{
		Name:     "light",
		Path:     "Light.ufo",
		Location: location.FromMap(map[string]float64{"weight": 0}),
		CopyInfo: true,
	})
	doc.AddSource(designspace.Source{
		Name:     "bold",
		Path:     "Bold.ufo",
		Location: location.FromMap(map[string]float64{"weight": 1000}),
	})
	return doc
}

func testProcessor() *Processor {
	proc := New(testDocument())
	proc.SetFont("light", masterFont(100))
	proc.SetFont("bold", masterFont(500))
	return proc
}

func instanceAt(w float64) *designspace.Instance {
	return &designspace.Instance{
		FamilyName: "Test",
		StyleName:  "Demo",
		Location:   location.FromMap(map[string]float64{"weight": w}),
		Info:       true,
		Kerning:    true,
	}
}

func TestMakeInstanceInterpolates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	font, err := proc.MakeInstance(instanceAt(250), false)
	require.NoError(t, err)
	g := font.Glyph("A")
	require.NotNil(t, g)
	require.Equal(t, 200.0, g.Width, "weight 250 between masters 100 and 500")
	require.Equal(t, []rune{'A'}, g.Unicodes, "unicodes come from the neutral master")
	require.Equal(t, -20.0, font.Kerning[ufo.KernPair{First: "A", Second: "dollar"}])
	require.NotNil(t, font.Info.Ascender)
	require.Equal(t, 400.0, *font.Info.Ascender)
	require.Equal(t, "Test", font.Info.FamilyName)
	require.Equal(t, "© testers", font.Info.Copyright, "info copied verbatim from the flagged source")
}

func TestMakeInstanceExtrapolates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	font, err := proc.MakeInstance(instanceAt(1500), false)
	require.NoError(t, err)
	require.Equal(t, 700.0, font.Glyph("A").Width, "extrapolation beyond the masters, no clamping")
}

func TestInstanceIdentityOverridesInterpolation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	inst := instanceAt(500)
	inst.StyleName = "Medium"
	inst.PostScriptFontName = "Test-Medium"
	font, err := proc.MakeInstance(inst, false)
	require.NoError(t, err)
	require.Equal(t, "Medium", font.Info.StyleName)
	require.Equal(t, "Test-Medium", font.Info.PostScriptFontName)
}

func TestGlyphMuting(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	doc := testDocument()
	doc.Sources[1].MutedGlyphNames = []string{"A"}
	proc := New(doc)
	proc.SetFont("light", masterFont(100))
	proc.SetFont("bold", masterFont(500))
	font, err := proc.MakeInstance(instanceAt(250), false)
	require.NoError(t, err)
	// A has the bold master muted: only the light master remains, the
	// model is constant
	require.Equal(t, 100.0, font.Glyph("A").Width)
	// other glyphs still see both masters
	require.Equal(t, 200.0, font.Glyph("dollar").Width)
}

func TestInstanceGlyphMute(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	inst := instanceAt(250)
	inst.Glyphs = map[string]designspace.GlyphSpec{"dollar.alt": {Mute: true}}
	font, err := proc.MakeInstance(inst, false)
	require.NoError(t, err)
	require.False(t, font.HasGlyph("dollar.alt"))
	require.True(t, font.HasGlyph("dollar"))
}

func TestOverrideMasters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	inst := instanceAt(250)
	inst.Glyphs = map[string]designspace.GlyphSpec{"A": {
		Masters: []designspace.GlyphMaster{{
			SourceName: "bold",
			Location:   location.FromMap(map[string]float64{"weight": 1000}),
		}},
	}}
	font, err := proc.MakeInstance(inst, false)
	require.NoError(t, err)
	require.Equal(t, 500.0, font.Glyph("A").Width, "single override master yields a constant model")
}

func TestSwapGlyphNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	f := masterFont(100)
	SwapGlyphNames(f, "dollar", "dollar.alt")
	require.Equal(t, 120.0, f.Glyph("dollar").Width, "dollar now carries the alternate shape")
	require.Equal(t, 100.0, f.Glyph("dollar.alt").Width)
	require.Equal(t, []rune{'$'}, f.Glyph("dollar").Unicodes, "unicodes stay with the name")
	require.Empty(t, f.Glyph("dollar.alt").Unicodes)
	require.Equal(t, -10.0, f.Kerning[ufo.KernPair{First: "A", Second: "dollar.alt"}],
		"kerning follows the shape")
	require.Equal(t, []string{"dollar.alt", "dollar"}, f.Groups["public.kern1.round"])
	for _, name := range f.GlyphNames() {
		require.NotContains(t, name, swapTempPrefix, "parking glyph must be removed")
	}
}

func TestSwapIsSelfInverse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	f := masterFont(100)
	SwapGlyphNames(f, "dollar", "dollar.alt")
	SwapGlyphNames(f, "dollar", "dollar.alt")
	require.Equal(t, 100.0, f.Glyph("dollar").Width)
	require.Equal(t, 120.0, f.Glyph("dollar.alt").Width)
	require.Equal(t, []rune{'$'}, f.Glyph("dollar").Unicodes)
	require.Equal(t, -10.0, f.Kerning[ufo.KernPair{First: "A", Second: "dollar"}])
	require.Equal(t, []string{"dollar", "dollar.alt"}, f.Groups["public.kern1.round"])
}

func TestSwapRemapsComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	f := masterFont(100)
	b := f.NewGlyph("B")
	boxOutline(b, 300)
	// Aacute references A; after swapping A and B it must reference B
	SwapGlyphNames(f, "A", "B")
	require.Equal(t, "B", f.Glyph("Aacute").Components[0].BaseGlyph)
	SwapGlyphNames(f, "A", "B")
	require.Equal(t, "A", f.Glyph("Aacute").Components[0].BaseGlyph)
}

func TestSwapMissingGlyphIsNoop(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	f := masterFont(100)
	SwapGlyphNames(f, "dollar", "nonexistent")
	require.Equal(t, 100.0, f.Glyph("dollar").Width)
}

func TestApplyRulesDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	rules := []designspace.Rule{{
		Name:          "alt dollar",
		ConditionSets: [][]designspace.Condition{{{AxisName: "weight", Minimum: 500, Maximum: 1000}}},
		Subs:          [][2]string{{"dollar", "dollar.alt"}},
	}}
	names := []string{"A", "dollar", "dollar.alt"}
	at := func(w float64) location.Location {
		return location.FromMap(map[string]float64{"weight": w})
	}
	first := ApplyRules(rules, at(800), names)
	second := ApplyRules(rules, at(800), names)
	require.Equal(t, first, second)
	require.Equal(t, []string{"A", "dollar.alt", "dollar.alt"}, first)
	require.Equal(t, names, ApplyRules(rules, at(100), names), "no match is the identity mapping")
}

func TestRuleSwapScenario(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	proc.doc.AddRule(designspace.Rule{
		Name:          "alt dollar",
		ConditionSets: [][]designspace.Condition{{{AxisName: "weight", Minimum: 500, Maximum: 1000}}},
		Subs:          [][2]string{{"dollar", "dollar.alt"}},
	})
	font, err := proc.MakeInstance(instanceAt(800), true)
	require.NoError(t, err)
	// the dollar slot carries the shape authored as dollar.alt
	// (interpolated widths at 800: dollar 420, dollar.alt 440)
	require.Equal(t, 440.0, font.Glyph("dollar").Width)
	require.Equal(t, 420.0, font.Glyph("dollar.alt").Width)
	require.Equal(t, []rune{'$'}, font.Glyph("dollar").Unicodes, "code point stays with the name")
}

func TestBraceSamplePickup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	light := proc.Font("light")
	brace := ufo.NewGlyph("A")
	boxOutline(brace, 340) // off the linear track between 100 and 500
	brace.Lib = map[string]interface{}{
		BraceLocationKey: map[string]interface{}{"weight": 500.0},
	}
	light.NewLayer("#brace 500").SetGlyph(brace)
	//
	m, err := proc.GlyphMutator("A", GlyphMutatorOptions{IncludeBraces: true})
	require.NoError(t, err)
	v, err := m.Instance(location.FromMap(map[string]float64{"weight": 500}))
	require.NoError(t, err)
	require.Equal(t, 340.0, v.(*fontmath.Glyph).Width, "the brace sample pins weight 500")
	// without braces the same stop interpolates the extremes
	m, err = proc.GlyphMutator("A", GlyphMutatorOptions{})
	require.NoError(t, err)
	v, err = m.Instance(location.FromMap(map[string]float64{"weight": 500}))
	require.NoError(t, err)
	require.Equal(t, 300.0, v.(*fontmath.Glyph).Width)
}

func TestBraceIgnoresMalformedRecord(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	light := proc.Font("light")
	brace := ufo.NewGlyph("A")
	boxOutline(brace, 999)
	brace.Lib = map[string]interface{}{
		BraceLocationKey: map[string]interface{}{"weight": "bold-ish"},
	}
	light.NewLayer("#broken").SetGlyph(brace)
	//
	require.Empty(t, proc.collectBraces("A"))
}

func TestDecomposeComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	m, err := proc.GlyphMutator("Aacute", GlyphMutatorOptions{Decompose: true})
	require.NoError(t, err)
	v, err := m.Instance(location.FromMap(map[string]float64{"weight": 250}))
	require.NoError(t, err)
	g := v.(*fontmath.Glyph)
	require.Empty(t, g.Components, "decomposed model carries no references")
	require.Len(t, g.Contours, 1)
	require.Equal(t, 200.0, g.Contours[0].Points[1].P.X())
	require.Equal(t, 200.0, g.Contours[0].Points[0].P.Y(), "component offset applied to the outline")
}

func TestGlyphNameIndex(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	require.Equal(t, []string{"A", "Aacute", "dollar", "dollar.alt"}, proc.GlyphNames())
	require.Equal(t, []string{"dollar", "dollar.alt"}, proc.GlyphNamesWithPrefix("dollar"))
	require.Empty(t, proc.GlyphNamesWithPrefix("zero"))
}

func TestGlyphMutatorCaching(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	proc := testProcessor()
	m1, err := proc.GlyphMutator("A", GlyphMutatorOptions{})
	require.NoError(t, err)
	m2, err := proc.GlyphMutator("A", GlyphMutatorOptions{})
	require.NoError(t, err)
	require.Same(t, m1, m2, "second lookup hits the cache")
	m3, err := proc.GlyphMutator("A", GlyphMutatorOptions{BypassCache: true})
	require.NoError(t, err)
	require.NotSame(t, m1, m3, "bypass rebuilds the model")
	proc.Invalidate()
	m4, err := proc.GlyphMutator("A", GlyphMutatorOptions{})
	require.NoError(t, err)
	require.NotSame(t, m3, m4, "invalidation drops the cache")
}

func TestUserLocationInstance(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	doc := testDocument()
	doc.Axes[0].Map = []designspace.MapPair{{Input: 0, Output: 0}, {Input: 400, Output: 250}, {Input: 1000, Output: 1000}}
	proc := New(doc)
	proc.SetFont("light", masterFont(100))
	proc.SetFont("bold", masterFont(500))
	inst := &designspace.Instance{
		UserLocation: location.FromMap(map[string]float64{"weight": 400}),
	}
	font, err := proc.MakeInstance(inst, false)
	require.NoError(t, err)
	require.Equal(t, 200.0, font.Glyph("A").Width, "user 400 maps to design 250")
}

func TestGenerateWritesInstances(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	dir := t.TempDir()
	require.NoError(t, masterFont(100).Save(filepath.Join(dir, "Light.ufo"), 3))
	require.NoError(t, masterFont(500).Save(filepath.Join(dir, "Bold.ufo"), 3))
	doc := testDocument()
	doc.Path = filepath.Join(dir, "test.designspace")
	inst := instanceAt(250)
	inst.Path = "instances/Test-Demo.ufo"
	doc.AddInstance(*inst)
	//
	proc := New(doc)
	proc.RoundGeometry = true
	require.NoError(t, proc.Generate(true))
	require.Empty(t, proc.Problems())
	//
	out, err := ufo.Open(filepath.Join(dir, "instances", "Test-Demo.ufo"))
	require.NoError(t, err)
	require.Equal(t, 200.0, out.Glyph("A").Width)
	require.Equal(t, []rune{'A'}, out.Glyph("A").Unicodes)
}

func TestMissingMasterIsAProblem(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.process")
	defer teardown()
	//
	dir := t.TempDir()
	require.NoError(t, masterFont(100).Save(filepath.Join(dir, "Light.ufo"), 3))
	doc := testDocument()
	doc.Path = filepath.Join(dir, "test.designspace")
	proc := New(doc)
	require.NoError(t, proc.LoadFonts(false), "a missing master is a problem, not an error")
	require.NotEmpty(t, proc.Problems())
	require.Equal(t, ProblemStructural, proc.Problems()[0].Class)
	require.NotNil(t, proc.Font("light"))
	require.Nil(t, proc.Font("bold"))
}
