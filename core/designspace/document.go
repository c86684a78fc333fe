package designspace

import (
	"golang.org/x/text/language"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/location"
)

// MapPair is one (input, output) pair of an axis map.
type MapPair struct {
	Input, Output float64
}

// Axis is one dimension of a design space. A continuous axis carries a
// [Minimum, Maximum] range; a discrete axis carries an enumerated value
// set instead.
type Axis struct {
	Name       string
	Tag        string
	Minimum    float64
	Maximum    float64
	Default    float64
	Values     []float64 // discrete axes only
	Hidden     bool
	Map        []MapPair // ordered user→design remap
	LabelNames map[string]string
}

// IsDiscrete reports whether the axis is restricted to an enumerated
// value set.
func (a Axis) IsDiscrete() bool {
	return len(a.Values) > 0
}

// MapForward remaps a user-space value to design space along the axis
// map. Values beyond the outermost map segment follow that segment's
// slope (linear extension). An axis without a map is the identity.
func (a Axis) MapForward(u float64) float64 {
	return piecewise(a.Map, u, func(p MapPair) (float64, float64) { return p.Input, p.Output })
}

// MapBackward remaps a design-space value back to user space, with the
// same extension policy as MapForward.
func (a Axis) MapBackward(v float64) float64 {
	return piecewise(a.Map, v, func(p MapPair) (float64, float64) { return p.Output, p.Input })
}

func piecewise(m []MapPair, u float64, dir func(MapPair) (float64, float64)) float64 {
	if len(m) == 0 {
		return u
	}
	if len(m) == 1 {
		_, out := dir(m[0])
		return out
	}
	// find the segment containing u; outside the map, extend the
	// outermost segment linearly
	i := 0
	for i < len(m)-2 {
		in, _ := dir(m[i+1])
		if u < in {
			break
		}
		i++
	}
	in0, out0 := dir(m[i])
	in1, out1 := dir(m[i+1])
	if in1 == in0 {
		return out0
	}
	return out0 + (u-in0)/(in1-in0)*(out1-out0)
}

// Source describes one master: a font at a fixed location, with flags
// selecting which non-interpolating parts are copied verbatim into
// every instance.
type Source struct {
	Name                string
	Path                string
	LayerName           string
	Location            location.Location
	FamilyName          string
	StyleName           string
	LocalisedFamilyName map[string]string
	CopyInfo            bool
	CopyLib             bool
	CopyFeatures        bool
	CopyGroups          bool
	MutedGlyphNames     []string
}

// GlyphMuted reports whether the source excludes the named glyph from
// interpolation.
func (s Source) GlyphMuted(name string) bool {
	for _, muted := range s.MutedGlyphNames {
		if muted == name {
			return true
		}
	}
	return false
}

// GlyphMaster is one entry of a per-glyph override master list.
type GlyphMaster struct {
	SourceName string
	GlyphName  string
	Location   location.Location
}

// GlyphSpec is a per-glyph override record on an instance.
type GlyphSpec struct {
	Mute             bool
	Unicodes         []rune
	InstanceLocation location.Location
	Note             string
	Masters          []GlyphMaster
}

// Instance describes one target font. Location (design space) and
// UserLocation (pre-mapping) are mutually exclusive.
type Instance struct {
	Location           location.Location
	UserLocation       location.Location
	FamilyName         string
	StyleName          string
	PostScriptFontName string
	StyleMapFamilyName string
	StyleMapStyleName  string
	Path               string
	Info               bool
	Kerning            bool
	Glyphs             map[string]GlyphSpec
}

// Condition is one per-axis range condition of a rule. The range is
// inclusive on both ends.
type Condition struct {
	AxisName string
	Minimum  float64
	Maximum  float64
}

// Rule is a location-conditioned glyph substitution directive. A rule
// fires iff all conditions of at least one of its condition sets hold.
// A rule without conditions never fires.
type Rule struct {
	Name          string
	ConditionSets [][]Condition
	Subs          [][2]string // (old name, new name) pairs, in order
}

// Matches reports whether loc satisfies the rule. Condition sets
// combine as alternatives; the conditions within a set all have to
// hold, ranges inclusive. Empty sets and rules without sets match
// nothing — conditions are mandatory.
func (r Rule) Matches(loc location.Location) bool {
	for _, set := range r.ConditionSets {
		if len(set) == 0 {
			continue
		}
		all := true
		for _, cond := range set {
			v, ok := loc[cond.AxisName]
			if !ok || v.X < cond.Minimum || v.X > cond.Maximum {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// Document is a complete designspace description.
type Document struct {
	Path      string
	Axes      []Axis
	Sources   []Source
	Instances []Instance
	Rules     []Rule
	Lib       map[string]interface{}
}

// New creates an empty document.
func New() *Document {
	return &Document{Lib: make(map[string]interface{})}
}

// Axis returns the named axis, or nil.
func (doc *Document) Axis(name string) *Axis {
	for i := range doc.Axes {
		if doc.Axes[i].Name == name {
			return &doc.Axes[i]
		}
	}
	return nil
}

// AddAxis appends an axis, checking name and tag uniqueness.
func (doc *Document) AddAxis(a Axis) error {
	for _, other := range doc.Axes {
		if other.Name == a.Name {
			return core.Error(core.EINVALID, "duplicate axis name %q", a.Name)
		}
		if other.Tag == a.Tag {
			return core.Error(core.EINVALID, "duplicate axis tag %q", a.Tag)
		}
	}
	doc.Axes = append(doc.Axes, a)
	return nil
}

// AddSource appends a source after validating its localised name tags.
func (doc *Document) AddSource(s Source) error {
	for lang := range s.LocalisedFamilyName {
		if _, err := language.Parse(lang); err != nil {
			return core.WrapError(err, core.EINVALID,
				"source %s: bad language tag %q", s.Name, lang)
		}
	}
	doc.Sources = append(doc.Sources, s)
	return nil
}

// AddInstance appends an instance.
func (doc *Document) AddInstance(inst Instance) {
	doc.Instances = append(doc.Instances, inst)
}

// AddRule appends a rule. Rules evaluate in document order.
func (doc *Document) AddRule(r Rule) {
	doc.Rules = append(doc.Rules, r)
}

// DefaultLocation returns the location at which every axis sits on its
// default value.
func (doc *Document) DefaultLocation() location.Location {
	loc := location.New()
	for _, a := range doc.Axes {
		loc[a.Name] = location.C(a.Default)
	}
	return loc
}

// DefaultSource returns the source at the default location, or nil when
// no source sits exactly there.
func (doc *Document) DefaultSource() *Source {
	dflt := doc.DefaultLocation()
	for i := range doc.Sources {
		if doc.padded(doc.Sources[i].Location).Equal(dflt) {
			return &doc.Sources[i]
		}
	}
	return nil
}

// padded fills missing axes of loc with their default values.
func (doc *Document) padded(loc location.Location) location.Location {
	full := doc.DefaultLocation()
	return full.Merge(loc)
}

// PadLocation completes loc with default values for missing axes.
func (doc *Document) PadLocation(loc location.Location) location.Location {
	return doc.padded(loc)
}

// MapUserLocation converts a user-space location to design space by
// applying every axis's map.
func (doc *Document) MapUserLocation(user location.Location) location.Location {
	design := location.New()
	for name, coord := range user {
		axis := doc.Axis(name)
		if axis == nil {
			design[name] = coord
			continue
		}
		if coord.Anisotropic {
			design[name] = location.CXY(axis.MapForward(coord.X), axis.MapForward(coord.Y))
		} else {
			design[name] = location.C(axis.MapForward(coord.X))
		}
	}
	return design
}

// Validate performs the structural checks of the document: at least one
// axis, unique axis names and tags, discrete axes carrying value sets,
// a source present at the default location.
func (doc *Document) Validate() error {
	if len(doc.Axes) == 0 {
		return core.Error(core.EINVALID, "document has no axes")
	}
	seenName := map[string]bool{}
	seenTag := map[string]bool{}
	for _, a := range doc.Axes {
		if seenName[a.Name] {
			return core.Error(core.EINVALID, "duplicate axis name %q", a.Name)
		}
		if seenTag[a.Tag] {
			return core.Error(core.EINVALID, "duplicate axis tag %q", a.Tag)
		}
		seenName[a.Name] = true
		seenTag[a.Tag] = true
		if a.IsDiscrete() {
			found := false
			for _, v := range a.Values {
				if v == a.Default {
					found = true
				}
			}
			if !found {
				return core.Error(core.EINVALID,
					"discrete axis %q: default %g not in value set", a.Name, a.Default)
			}
		}
	}
	if doc.DefaultSource() == nil {
		tracer().Infof("document %s has no source at the default location", doc.Path)
	}
	return nil
}
