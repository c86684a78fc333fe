package ufo

import (
	"sort"
)

// DefaultLayerName is the name of a font's primary glyph layer.
const DefaultLayerName = "public.default"

// KernPair is a pair of kerning partners. Either side may be a glyph
// name or a kerning group name.
type KernPair struct {
	First, Second string
}

// Kerning maps kerning pairs to adjustment values.
type Kerning map[KernPair]float64

// Groups maps group names to member glyph names.
type Groups map[string][]string

// Info holds the font-wide information fields the engine interpolates or
// copies. Numeric fields that may legitimately be absent are pointers;
// a nil field does not take part in interpolation.
type Info struct {
	FamilyName         string
	StyleName          string
	StyleMapFamilyName string
	StyleMapStyleName  string
	PostScriptFontName string

	UnitsPerEm  *float64
	Ascender    *float64
	Descender   *float64
	CapHeight   *float64
	XHeight     *float64
	ItalicAngle *float64

	BlueValues []float64
	OtherBlues []float64
	StemSnapH  []float64
	StemSnapV  []float64

	// fields copied verbatim, never interpolated
	VersionMajor             int
	VersionMinor             int
	Copyright                string
	Trademark                string
	Note                     string
	OpenTypeNameDesigner     string
	OpenTypeNameManufacturer string
	OpenTypeOS2VendorID      string
}

// Layer is a named set of glyphs. Alternate layers hold glyph variants,
// e.g. intermediate designs tagged with a design space location.
type Layer struct {
	Name   string
	glyphs map[string]*Glyph
}

func newLayer(name string) *Layer {
	return &Layer{Name: name, glyphs: make(map[string]*Glyph)}
}

// Glyph returns the named glyph, or nil.
func (l *Layer) Glyph(name string) *Glyph {
	return l.glyphs[name]
}

// HasGlyph reports whether the layer contains the named glyph.
func (l *Layer) HasGlyph(name string) bool {
	_, ok := l.glyphs[name]
	return ok
}

// SetGlyph stores g under g.Name, replacing any previous glyph of that
// name.
func (l *Layer) SetGlyph(g *Glyph) {
	l.glyphs[g.Name] = g
}

// DeleteGlyph removes the named glyph, if present.
func (l *Layer) DeleteGlyph(name string) {
	delete(l.glyphs, name)
}

// GlyphNames returns the layer's glyph names in sorted order.
func (l *Layer) GlyphNames() []string {
	names := make([]string, 0, len(l.glyphs))
	for name := range l.glyphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of glyphs in the layer.
func (l *Layer) Len() int {
	return len(l.glyphs)
}

// Font is an in-memory UFO font: a default glyph layer, optional
// alternate layers, kerning, groups, info, features and a lib.
type Font struct {
	Path          string
	FormatVersion int

	Info     Info
	Kerning  Kerning
	Groups   Groups
	Features string
	Lib      map[string]interface{}

	layers     map[string]*Layer
	layerOrder []string
}

// NewFont creates an empty font with a default layer.
func NewFont() *Font {
	f := &Font{
		FormatVersion: 3,
		Kerning:       make(Kerning),
		Groups:        make(Groups),
		Lib:           make(map[string]interface{}),
		layers:        make(map[string]*Layer),
	}
	f.layers[DefaultLayerName] = newLayer(DefaultLayerName)
	f.layerOrder = []string{DefaultLayerName}
	return f
}

// DefaultLayer returns the font's primary glyph layer.
func (f *Font) DefaultLayer() *Layer {
	return f.layers[DefaultLayerName]
}

// Layer returns the named layer, or nil.
func (f *Font) Layer(name string) *Layer {
	return f.layers[name]
}

// NewLayer creates (or returns an existing) named layer.
func (f *Font) NewLayer(name string) *Layer {
	if l, ok := f.layers[name]; ok {
		return l
	}
	l := newLayer(name)
	f.layers[name] = l
	f.layerOrder = append(f.layerOrder, name)
	return l
}

// LayerOrder returns the layer names in document order, the default
// layer first.
func (f *Font) LayerOrder() []string {
	return append([]string(nil), f.layerOrder...)
}

// Glyph returns the named glyph from the default layer, or nil.
func (f *Font) Glyph(name string) *Glyph {
	return f.DefaultLayer().Glyph(name)
}

// HasGlyph reports whether the default layer contains the named glyph.
func (f *Font) HasGlyph(name string) bool {
	return f.DefaultLayer().HasGlyph(name)
}

// NewGlyph creates an empty glyph in the default layer, replacing any
// existing glyph of that name, and returns it.
func (f *Font) NewGlyph(name string) *Glyph {
	g := NewGlyph(name)
	f.DefaultLayer().SetGlyph(g)
	return g
}

// DeleteGlyph removes the named glyph from the default layer.
func (f *Font) DeleteGlyph(name string) {
	f.DefaultLayer().DeleteGlyph(name)
}

// GlyphNames returns the default layer's glyph names in sorted order.
func (f *Font) GlyphNames() []string {
	return f.DefaultLayer().GlyphNames()
}
