package process

import (
	"path/filepath"
	"sort"

	"github.com/derekparker/trie"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/designspace"
	"github.com/npillmayer/dspace/core/fontmath"
	"github.com/npillmayer/dspace/core/location"
	"github.com/npillmayer/dspace/core/ufo"
	"github.com/npillmayer/dspace/engine/mutator"
)

// BraceLocationKey is the glyph-lib key under which an alternate layer
// records its design space location, marking the layer as an
// intermediate (brace) master for that glyph.
const BraceLocationKey = "designspace.location"

// GlyphMutatorOptions select how a glyph's interpolation model is built.
type GlyphMutatorOptions struct {
	Decompose     bool // flatten component references into outlines
	IncludeBraces bool // pick up intermediate samples from alternate layers
	BypassCache   bool // force a rebuild, the result still enters the cache
}

type glyphKey struct {
	name      string
	decompose bool
	braces    bool
}

// Processor owns a designspace document together with its loaded master
// fonts, cached interpolation models and a problems log. It is not safe
// for concurrent use; hosts must serialize document edits against
// processing calls and invalidate caches after structural edits.
type Processor struct {
	RoundGeometry bool // round interpolated geometry to integers
	UFOVersion    int  // format version for generated instances

	doc    *designspace.Document
	fonts  map[string]*ufo.Font // source name → font, nil after a failed load
	loaded bool

	glyphNames *treeset.Set
	nameIndex  *trie.Trie

	glyphMutators map[glyphKey]*mutator.Mutator
	kerningMut    *mutator.Mutator
	infoMut       *mutator.Mutator
	problems      []Problem
}

// New creates a processor for doc. Fonts are loaded lazily on first
// use, or explicitly with LoadFonts.
func New(doc *designspace.Document) *Processor {
	proc := &Processor{
		UFOVersion: 3,
		doc:        doc,
	}
	proc.reset()
	return proc
}

// Document returns the processed designspace document.
func (proc *Processor) Document() *designspace.Document {
	return proc.doc
}

func (proc *Processor) reset() {
	proc.fonts = make(map[string]*ufo.Font)
	proc.loaded = false
	proc.glyphNames = treeset.NewWithStringComparator()
	proc.nameIndex = trie.New()
	proc.glyphMutators = make(map[glyphKey]*mutator.Mutator)
	proc.kerningMut = nil
	proc.infoMut = nil
}

// Invalidate drops all cached mutators and rebuilds the glyph name
// indexes from the loaded fonts. Hosts call this after structural
// edits to the document; reloading fonts resets the caches likewise.
func (proc *Processor) Invalidate() {
	tracer().Debugf("invalidating processor caches")
	proc.glyphMutators = make(map[glyphKey]*mutator.Mutator)
	proc.kerningMut = nil
	proc.infoMut = nil
	proc.glyphNames.Clear()
	proc.nameIndex = trie.New()
	for name, f := range proc.fonts {
		if f == nil {
			continue
		}
		for _, glyphName := range f.GlyphNames() {
			proc.glyphNames.Add(glyphName)
			proc.nameIndex.Add(glyphName, name)
		}
	}
}

// sourcePath resolves a source's UFO path relative to the document.
func (proc *Processor) sourcePath(src *designspace.Source) string {
	if filepath.IsAbs(src.Path) || proc.doc.Path == "" {
		return src.Path
	}
	return filepath.Join(filepath.Dir(proc.doc.Path), src.Path)
}

// LoadFonts reads every master font the document names. A second call
// is a no-op unless reload is set, which drops all fonts and caches
// first. Missing or unreadable masters are recorded as structural
// problems, not errors; only a malformed document fails hard.
func (proc *Processor) LoadFonts(reload bool) error {
	if proc.loaded && !reload {
		return nil
	}
	if err := proc.doc.Validate(); err != nil {
		return err
	}
	proc.reset()
	for i := range proc.doc.Sources {
		src := &proc.doc.Sources[i]
		path := proc.sourcePath(src)
		version, err := ufo.FormatVersionAt(path)
		if err != nil {
			proc.sourceProblemf(SevError, ProblemStructural, src.Name,
				"cannot probe master font at %s: %v", path, err)
			proc.fonts[src.Name] = nil
			continue
		}
		tracer().Debugf("loading master %s (UFO %d) from %s", src.Name, version, path)
		f, err := ufo.Open(path)
		if err != nil {
			proc.sourceProblemf(SevError, ProblemStructural, src.Name,
				"cannot load master font: %v", err)
			proc.fonts[src.Name] = nil
			continue
		}
		proc.fonts[src.Name] = f
		for _, glyphName := range f.GlyphNames() {
			proc.glyphNames.Add(glyphName)
			proc.nameIndex.Add(glyphName, src.Name)
		}
	}
	proc.loaded = true
	return nil
}

// SetFont installs an in-memory font for the named source, bypassing
// disk loading. Useful for hosts holding already-open fonts.
func (proc *Processor) SetFont(sourceName string, f *ufo.Font) {
	proc.fonts[sourceName] = f
	proc.loaded = true
	if f == nil {
		return
	}
	for _, glyphName := range f.GlyphNames() {
		proc.glyphNames.Add(glyphName)
		proc.nameIndex.Add(glyphName, sourceName)
	}
}

// Font returns the loaded font for a source name, or nil.
func (proc *Processor) Font(sourceName string) *ufo.Font {
	return proc.fonts[sourceName]
}

// GlyphNames returns the union of glyph names over all loaded masters,
// sorted.
func (proc *Processor) GlyphNames() []string {
	values := proc.glyphNames.Values()
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.(string))
	}
	return names
}

// GlyphNamesWithPrefix returns the glyph names starting with prefix,
// sorted.
func (proc *Processor) GlyphNamesWithPrefix(prefix string) []string {
	names := proc.nameIndex.PrefixSearch(prefix)
	sort.Strings(names)
	return names
}

// glyphFrom fetches a source's glyph, honoring the source's layer name.
func (proc *Processor) glyphFrom(src *designspace.Source, glyphName string) *ufo.Glyph {
	f := proc.fonts[src.Name]
	if f == nil {
		return nil
	}
	layer := f.DefaultLayer()
	if src.LayerName != "" {
		layer = f.Layer(src.LayerName)
		if layer == nil {
			return nil
		}
	}
	return layer.Glyph(glyphName)
}

// GlyphMutator returns the interpolation model for a glyph, built over
// every source that does not mute the glyph, plus intermediate brace
// samples if requested. Results are memoized per (name, options) until
// the caches are invalidated.
func (proc *Processor) GlyphMutator(glyphName string, opts GlyphMutatorOptions) (*mutator.Mutator, error) {
	if err := proc.LoadFonts(false); err != nil {
		return nil, err
	}
	key := glyphKey{name: glyphName, decompose: opts.Decompose, braces: opts.IncludeBraces}
	if !opts.BypassCache {
		if m, ok := proc.glyphMutators[key]; ok {
			return m, nil
		}
	}
	var items []mutator.Item
	for i := range proc.doc.Sources {
		src := &proc.doc.Sources[i]
		if src.GlyphMuted(glyphName) {
			tracer().Debugf("glyph %s muted in source %s", glyphName, src.Name)
			continue
		}
		if proc.fonts[src.Name] == nil {
			continue // load failure, already recorded
		}
		g := proc.glyphFrom(src, glyphName)
		if g == nil {
			proc.glyphProblemf(SevWarning, ProblemData, glyphName,
				"not present in master %s", src.Name)
			continue
		}
		if opts.Decompose && len(g.Components) > 0 {
			g = proc.decompose(src, g)
		}
		items = append(items, mutator.Item{
			Loc: proc.doc.PadLocation(src.Location),
			V:   fontmath.FromGlyph(g),
		})
	}
	if opts.IncludeBraces {
		items = append(items, proc.collectBraces(glyphName)...)
	}
	m, err := mutator.Build(items, proc.doc.Axes, proc.doc.DefaultLocation())
	if err != nil {
		return nil, core.WrapError(err, core.Code(err), "cannot build mutator for glyph %s", glyphName)
	}
	proc.glyphMutators[key] = m
	return m, nil
}

// collectBraces gathers intermediate master samples for a glyph from
// the default master's alternate layers. A layer glyph carrying a
// well-formed location record in its lib becomes an additional sample;
// layers without one are ignored. Brace samples are never decomposed,
// they are outline snapshots at exact supplementary stops.
func (proc *Processor) collectBraces(glyphName string) []mutator.Item {
	src := proc.doc.DefaultSource()
	if src == nil {
		return nil
	}
	if src.GlyphMuted(glyphName) {
		return nil
	}
	f := proc.fonts[src.Name]
	if f == nil {
		return nil
	}
	var items []mutator.Item
	for _, layerName := range f.LayerOrder() {
		if layerName == ufo.DefaultLayerName {
			continue
		}
		g := f.Layer(layerName).Glyph(glyphName)
		if g == nil {
			continue
		}
		loc, ok := braceLocation(g.Lib)
		if !ok {
			continue
		}
		tracer().Debugf("brace sample for glyph %s in layer %s at %v", glyphName, layerName, loc)
		items = append(items, mutator.Item{
			Loc: proc.doc.PadLocation(loc),
			V:   fontmath.FromGlyph(g),
		})
	}
	return items
}

// braceLocation reads a location record from a glyph lib. Malformed
// records are treated as absent.
func braceLocation(lib map[string]interface{}) (location.Location, bool) {
	if lib == nil {
		return nil, false
	}
	record, ok := lib[BraceLocationKey].(map[string]interface{})
	if !ok || len(record) == 0 {
		return nil, false
	}
	loc := location.New()
	for axis, v := range record {
		n, ok := ufo.AsNumber(v)
		if !ok {
			return nil, false
		}
		loc[axis] = location.C(n)
	}
	return loc, true
}

// KerningMutator returns the memoized interpolation model for kerning,
// built over all non-layer sources.
func (proc *Processor) KerningMutator() (*mutator.Mutator, error) {
	if proc.kerningMut != nil {
		return proc.kerningMut, nil
	}
	if err := proc.LoadFonts(false); err != nil {
		return nil, err
	}
	var items []mutator.Item
	for i := range proc.doc.Sources {
		src := &proc.doc.Sources[i]
		if src.LayerName != "" {
			continue // a layer source carries outlines only
		}
		f := proc.fonts[src.Name]
		if f == nil {
			continue
		}
		items = append(items, mutator.Item{
			Loc: proc.doc.PadLocation(src.Location),
			V:   fontmath.KerningFromFont(f),
		})
	}
	m, err := mutator.Build(items, proc.doc.Axes, proc.doc.DefaultLocation())
	if err != nil {
		return nil, core.WrapError(err, core.Code(err), "cannot build kerning mutator")
	}
	proc.kerningMut = m
	return m, nil
}

// InfoMutator returns the memoized interpolation model for font info,
// built over all non-layer sources.
func (proc *Processor) InfoMutator() (*mutator.Mutator, error) {
	if proc.infoMut != nil {
		return proc.infoMut, nil
	}
	if err := proc.LoadFonts(false); err != nil {
		return nil, err
	}
	var items []mutator.Item
	for i := range proc.doc.Sources {
		src := &proc.doc.Sources[i]
		if src.LayerName != "" {
			continue
		}
		f := proc.fonts[src.Name]
		if f == nil {
			continue
		}
		items = append(items, mutator.Item{
			Loc: proc.doc.PadLocation(src.Location),
			V:   fontmath.InfoFromFont(f),
		})
	}
	m, err := mutator.Build(items, proc.doc.Axes, proc.doc.DefaultLocation())
	if err != nil {
		return nil, core.WrapError(err, core.Code(err), "cannot build info mutator")
	}
	proc.infoMut = m
	return m, nil
}

// decompose flattens a glyph's component references into concrete
// outlines, so a model built from it does not depend on base glyphs
// existing in the output font.
func (proc *Processor) decompose(src *designspace.Source, g *ufo.Glyph) *ufo.Glyph {
	f := proc.fonts[src.Name]
	layer := f.DefaultLayer()
	if src.LayerName != "" {
		layer = f.Layer(src.LayerName)
	}
	out := g.Copy()
	out.Components = nil
	seen := map[string]bool{g.Name: true}
	for _, comp := range g.Components {
		proc.flattenComponent(layer, comp, ufo.Identity, out, seen, g.Name)
	}
	return out
}

func (proc *Processor) flattenComponent(layer *ufo.Layer, comp ufo.Component, outer ufo.Affine,
	out *ufo.Glyph, seen map[string]bool, topName string) {
	//
	base := layer.Glyph(comp.BaseGlyph)
	if base == nil {
		proc.glyphProblemf(SevWarning, ProblemData, topName,
			"component references missing glyph %s", comp.BaseGlyph)
		return
	}
	if seen[comp.BaseGlyph] {
		proc.glyphProblemf(SevWarning, ProblemData, topName,
			"component cycle through glyph %s", comp.BaseGlyph)
		return
	}
	seen[comp.BaseGlyph] = true
	defer delete(seen, comp.BaseGlyph)
	t := outer.Mul(comp.Transform)
	for _, contour := range base.Contours {
		points := make([]ufo.Point, len(contour.Points))
		for i, p := range contour.Points {
			points[i] = p
			points[i].P = t.Apply(p.P)
		}
		out.Contours = append(out.Contours, ufo.Contour{Points: points})
	}
	for _, nested := range base.Components {
		proc.flattenComponent(layer, nested, t, out, seen, topName)
	}
}
