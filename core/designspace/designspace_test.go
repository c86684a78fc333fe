package designspace

import (
	"path/filepath"
	"testing"

	"github.com/npillmayer/dspace/core/location"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func makeTestDocument(t *testing.T) *Document {
	t.Helper()
	doc := New()
	err := doc.AddAxis(Axis{
		Name: "weight", Tag: "wght", Minimum: 0, Maximum: 1000, Default: 0,
		Map:        []MapPair{{Input: 0, Output: 0}, {Input: 400, Output: 200}, {Input: 1000, Output: 1000}},
		LabelNames: map[string]string{"en": "Weight"},
	})
	require.NoError(t, err)
	err = doc.AddAxis(Axis{Name: "italic", Tag: "ital", Values: []float64{0, 1}, Default: 0})
	require.NoError(t, err)
	err = doc.AddSource(Source{
		Name:            "master.light",
		Path:            "masters/Light.ufo",
		Location:        location.FromMap(map[string]float64{"weight": 0, "italic": 0}),
		CopyInfo:        true,
		CopyFeatures:    true,
		MutedGlyphNames: []string{"x"},
	})
	require.NoError(t, err)
	err = doc.AddSource(Source{
		Name:                "master.bold",
		Path:                "masters/Bold.ufo",
		Location:            location.FromMap(map[string]float64{"weight": 1000, "italic": 0}),
		LocalisedFamilyName: map[string]string{"fr": "Test Gras"},
	})
	require.NoError(t, err)
	doc.AddRule(Rule{
		Name: "dollar alternates",
		ConditionSets: [][]Condition{
			{{AxisName: "weight", Minimum: 500, Maximum: 1000}},
		},
		Subs: [][2]string{{"dollar", "dollar.alt"}},
	})
	doc.AddInstance(Instance{
		FamilyName: "Test",
		StyleName:  "Medium",
		Path:       "instances/Test-Medium.ufo",
		Location:   location.FromMap(map[string]float64{"weight": 500, "italic": 0}),
		Info:       true,
		Kerning:    true,
		Glyphs: map[string]GlyphSpec{
			"narrow": {
				Unicodes:         []rune{0x123, 0x124},
				InstanceLocation: location.FromMap(map[string]float64{"weight": 400}),
			},
		},
	})
	return doc
}

func TestAxisMap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	a := Axis{Name: "weight", Tag: "wght", Minimum: 0, Maximum: 1000, Default: 0,
		Map: []MapPair{{0, 0}, {400, 200}, {1000, 1000}}}
	cases := []struct{ in, out float64 }{
		{0, 0}, {400, 200}, {1000, 1000},
		{200, 100},  // inside first segment
		{700, 600},  // inside second segment
		{1300, 1400}, // beyond the last pair: extend the last slope
		{-200, -100}, // before the first pair: extend the first slope
	}
	for _, c := range cases {
		if got := a.MapForward(c.in); got != c.out {
			t.Errorf("MapForward(%g) = %g, want %g", c.in, got, c.out)
		}
		if got := a.MapBackward(c.out); got != c.in {
			t.Errorf("MapBackward(%g) = %g, want %g", c.out, got, c.in)
		}
	}
}

func TestRuleMatching(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	r := Rule{ConditionSets: [][]Condition{
		{{AxisName: "weight", Minimum: 500, Maximum: 1000}},
	}}
	if !r.Matches(location.FromMap(map[string]float64{"weight": 500})) {
		t.Errorf("range minimum should be inclusive")
	}
	if !r.Matches(location.FromMap(map[string]float64{"weight": 1000})) {
		t.Errorf("range maximum should be inclusive")
	}
	if r.Matches(location.FromMap(map[string]float64{"weight": 499})) {
		t.Errorf("location below range should not match")
	}
	empty := Rule{}
	if empty.Matches(location.FromMap(map[string]float64{"weight": 500})) {
		t.Errorf("a rule without conditions must never fire")
	}
}

func TestDocumentValidate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	doc := makeTestDocument(t)
	require.NoError(t, doc.Validate())
	require.Error(t, doc.AddAxis(Axis{Name: "weight", Tag: "wot2"}), "duplicate axis name must be refused")
	require.Error(t, doc.AddAxis(Axis{Name: "other", Tag: "wght"}), "duplicate axis tag must be refused")
	require.Error(t, doc.AddSource(Source{Name: "s", LocalisedFamilyName: map[string]string{"no such tag": "x"}}))
}

func TestDefaultLocation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	doc := makeTestDocument(t)
	dflt := doc.DefaultLocation()
	require.True(t, dflt.Equal(location.FromMap(map[string]float64{"weight": 0, "italic": 0})))
	src := doc.DefaultSource()
	require.NotNil(t, src)
	require.Equal(t, "master.light", src.Name)
}

func TestDocumentRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	doc := makeTestDocument(t)
	doc.Lib["com.example.note"] = "kept"
	path := filepath.Join(t.TempDir(), "test.designspace")
	require.NoError(t, doc.Write(path))
	//
	back, err := Read(path)
	require.NoError(t, err)
	require.Len(t, back.Axes, 2)
	require.Equal(t, "wght", back.Axes[0].Tag)
	require.Equal(t, "Weight", back.Axes[0].LabelNames["en"])
	require.Len(t, back.Axes[0].Map, 3)
	require.True(t, back.Axes[1].IsDiscrete())
	require.Equal(t, []float64{0, 1}, back.Axes[1].Values)
	//
	require.Len(t, back.Sources, 2)
	require.True(t, back.Sources[0].CopyInfo)
	require.True(t, back.Sources[0].CopyFeatures)
	require.False(t, back.Sources[0].CopyLib)
	require.Equal(t, []string{"x"}, back.Sources[0].MutedGlyphNames)
	require.Equal(t, "Test Gras", back.Sources[1].LocalisedFamilyName["fr"])
	require.True(t, back.Sources[1].Location.Equal(
		location.FromMap(map[string]float64{"weight": 1000, "italic": 0})))
	//
	require.Len(t, back.Rules, 1)
	require.True(t, back.Rules[0].Matches(location.FromMap(map[string]float64{"weight": 800, "italic": 0})))
	require.Equal(t, [2]string{"dollar", "dollar.alt"}, back.Rules[0].Subs[0])
	//
	require.Len(t, back.Instances, 1)
	inst := back.Instances[0]
	require.True(t, inst.Info)
	require.True(t, inst.Kerning)
	spec, ok := inst.Glyphs["narrow"]
	require.True(t, ok)
	require.Equal(t, []rune{0x123, 0x124}, spec.Unicodes)
	require.True(t, spec.InstanceLocation.Equal(location.FromMap(map[string]float64{"weight": 400})))
	//
	require.Equal(t, "kept", back.Lib["com.example.note"])
}

func TestUserLocationMapping(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "dspace.core")
	defer teardown()
	//
	doc := makeTestDocument(t)
	user := location.FromMap(map[string]float64{"weight": 400})
	design := doc.MapUserLocation(user)
	require.Equal(t, 200.0, design["weight"].X)
}
