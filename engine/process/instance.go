package process

import (
	"os"
	"path/filepath"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/designspace"
	"github.com/npillmayer/dspace/core/fontmath"
	"github.com/npillmayer/dspace/core/location"
	"github.com/npillmayer/dspace/core/ufo"
	"github.com/npillmayer/dspace/engine/mutator"
)

// instanceLocation resolves an instance's target location: a user
// location is mapped through the axis maps, a design location is taken
// as is, and missing axes are padded with their defaults.
func (proc *Processor) instanceLocation(inst *designspace.Instance) location.Location {
	if len(inst.UserLocation) > 0 {
		return proc.doc.PadLocation(proc.doc.MapUserLocation(inst.UserLocation))
	}
	return proc.doc.PadLocation(inst.Location)
}

// MakeInstance interpolates a complete font for an instance
// descriptor. Per-glyph failures are recorded as problems and the
// glyph skipped; only document-level contract violations return an
// error. With processRules set, the document's rules are evaluated at
// the instance location and the resulting glyph swaps applied to the
// finished font.
func (proc *Processor) MakeInstance(inst *designspace.Instance, processRules bool) (*ufo.Font, error) {
	if err := proc.LoadFonts(false); err != nil {
		return nil, err
	}
	loc := proc.instanceLocation(inst)
	tracer().Infof("making instance %s %s at %v", inst.FamilyName, inst.StyleName, loc)
	font := ufo.NewFont()
	font.FormatVersion = proc.UFOVersion

	if inst.Kerning {
		proc.interpolateKerning(font, loc)
	}
	if inst.Info {
		proc.interpolateInfo(font, loc)
	}
	// explicit identity always supersedes interpolated identity
	if inst.FamilyName != "" {
		font.Info.FamilyName = inst.FamilyName
	}
	if inst.StyleName != "" {
		font.Info.StyleName = inst.StyleName
	}
	if inst.PostScriptFontName != "" {
		font.Info.PostScriptFontName = inst.PostScriptFontName
	}
	if inst.StyleMapFamilyName != "" {
		font.Info.StyleMapFamilyName = inst.StyleMapFamilyName
	}
	if inst.StyleMapStyleName != "" {
		font.Info.StyleMapStyleName = inst.StyleMapStyleName
	}
	proc.copyVerbatim(font)

	for _, glyphName := range proc.GlyphNames() {
		spec, hasSpec := inst.Glyphs[glyphName]
		if hasSpec && spec.Mute {
			tracer().Debugf("glyph %s muted in instance", glyphName)
			continue
		}
		proc.buildInstanceGlyph(font, glyphName, spec, loc)
	}

	if processRules && len(proc.doc.Rules) > 0 {
		proc.applyRulesTo(font, loc)
	}
	return font, nil
}

func (proc *Processor) interpolateKerning(font *ufo.Font, loc location.Location) {
	km, err := proc.KerningMutator()
	if err != nil {
		proc.problemf(SevWarning, ProblemData, "cannot build kerning mutator: %v", err)
		return
	}
	v, err := km.Instance(loc)
	if err != nil {
		proc.problemf(SevWarning, ProblemData, "cannot interpolate kerning at %v: %v", loc, err)
		return
	}
	if proc.RoundGeometry {
		v = v.Round()
	}
	v.(*fontmath.Kerning).ExtractTo(font)
}

func (proc *Processor) interpolateInfo(font *ufo.Font, loc location.Location) {
	im, err := proc.InfoMutator()
	if err != nil {
		proc.problemf(SevWarning, ProblemData, "cannot build info mutator: %v", err)
		return
	}
	v, err := im.Instance(loc)
	if err != nil {
		proc.problemf(SevWarning, ProblemData, "cannot interpolate font info at %v: %v", loc, err)
		return
	}
	if proc.RoundGeometry {
		v = v.Round()
	}
	v.(*fontmath.Info).ExtractTo(&font.Info)
}

// copyVerbatim copies non-interpolating fields from sources flagged for
// verbatim copying. Copies win over interpolated values for the fields
// they cover.
func (proc *Processor) copyVerbatim(font *ufo.Font) {
	for i := range proc.doc.Sources {
		src := &proc.doc.Sources[i]
		master := proc.fonts[src.Name]
		if master == nil {
			continue
		}
		if src.CopyInfo {
			copyVerbatimInfo(&font.Info, &master.Info)
		}
		if src.CopyLib {
			font.Lib = make(map[string]interface{}, len(master.Lib))
			for k, v := range master.Lib {
				font.Lib[k] = v
			}
		}
		if src.CopyFeatures {
			font.Features = master.Features
		}
		if src.CopyGroups {
			font.Groups = make(ufo.Groups, len(master.Groups))
			for name, members := range master.Groups {
				font.Groups[name] = append([]string(nil), members...)
			}
		}
	}
}

func copyVerbatimInfo(dst, src *ufo.Info) {
	dst.VersionMajor = src.VersionMajor
	dst.VersionMinor = src.VersionMinor
	dst.Copyright = src.Copyright
	dst.Trademark = src.Trademark
	dst.Note = src.Note
	dst.OpenTypeNameDesigner = src.OpenTypeNameDesigner
	dst.OpenTypeNameManufacturer = src.OpenTypeNameManufacturer
	dst.OpenTypeOS2VendorID = src.OpenTypeOS2VendorID
}

// buildInstanceGlyph interpolates one glyph into font. Failures are
// recorded as problems and the glyph is skipped.
func (proc *Processor) buildInstanceGlyph(font *ufo.Font, glyphName string,
	spec designspace.GlyphSpec, loc location.Location) {
	//
	var m *mutator.Mutator
	var err error
	if len(spec.Masters) > 0 {
		m, err = proc.overrideMutator(glyphName, spec.Masters)
	} else {
		m, err = proc.GlyphMutator(glyphName, GlyphMutatorOptions{IncludeBraces: true})
	}
	if err != nil {
		proc.glyphProblemf(SevWarning, ProblemData, glyphName, "cannot build mutator: %v", err)
		return
	}
	glyphLoc := loc
	if len(spec.InstanceLocation) > 0 {
		glyphLoc = proc.doc.PadLocation(spec.InstanceLocation)
	}
	v, err := m.Instance(glyphLoc)
	if err != nil {
		proc.glyphProblemf(SevWarning, ProblemData, glyphName,
			"cannot interpolate at %v: %v", glyphLoc, err)
		return
	}
	if proc.RoundGeometry {
		v = v.Round()
	}
	target := font.NewGlyph(glyphName)
	v.(*fontmath.Glyph).ExtractTo(target)
	target.Note = spec.Note
	switch {
	case len(spec.Unicodes) > 0:
		target.Unicodes = append([]rune(nil), spec.Unicodes...)
	default:
		if neutral, ok := m.Neutral().(*fontmath.Glyph); ok {
			target.Unicodes = append([]rune(nil), neutral.Unicodes...)
		}
	}
}

// overrideMutator builds a one-off model over an explicit master list,
// bypassing the document-level cache.
func (proc *Processor) overrideMutator(glyphName string, masters []designspace.GlyphMaster) (*mutator.Mutator, error) {
	var items []mutator.Item
	for _, gm := range masters {
		f := proc.fonts[gm.SourceName]
		if f == nil {
			proc.glyphProblemf(SevWarning, ProblemData, glyphName,
				"override master %s not loaded", gm.SourceName)
			continue
		}
		masterGlyph := gm.GlyphName
		if masterGlyph == "" {
			masterGlyph = glyphName
		}
		g := f.Glyph(masterGlyph)
		if g == nil {
			proc.glyphProblemf(SevWarning, ProblemData, glyphName,
				"override master %s has no glyph %s", gm.SourceName, masterGlyph)
			continue
		}
		items = append(items, mutator.Item{
			Loc: proc.doc.PadLocation(gm.Location),
			V:   fontmath.FromGlyph(g),
		})
	}
	return mutator.Build(items, proc.doc.Axes, proc.doc.DefaultLocation())
}

// applyRulesTo evaluates the document's rules at loc and performs the
// resulting glyph swaps on font.
func (proc *Processor) applyRulesTo(font *ufo.Font, loc location.Location) {
	names := font.GlyphNames()
	renamed := ApplyRules(proc.doc.Rules, loc, names)
	done := make(map[[2]string]bool)
	for i, name := range names {
		if renamed[i] == name {
			continue
		}
		pair := [2]string{name, renamed[i]}
		if done[pair] || done[[2]string{pair[1], pair[0]}] {
			continue
		}
		done[pair] = true
		tracer().Debugf("swapping glyphs %s and %s", pair[0], pair[1])
		SwapGlyphNames(font, pair[0], pair[1])
	}
}

// Generate builds and saves every instance of the document that names
// an output path. Per-instance failures are recorded as problems; an
// on-disk font in a newer format than the requested output version is
// never overwritten (a policy problem is recorded and the write
// skipped).
func (proc *Processor) Generate(processRules bool) error {
	if err := proc.LoadFonts(false); err != nil {
		return err
	}
	for i := range proc.doc.Instances {
		inst := &proc.doc.Instances[i]
		if inst.Path == "" {
			proc.problemf(SevWarning, ProblemStructural,
				"instance %s %s has no output path, skipped", inst.FamilyName, inst.StyleName)
			continue
		}
		font, err := proc.MakeInstance(inst, processRules)
		if err != nil {
			proc.problemf(SevError, ProblemStructural,
				"cannot make instance %s %s: %v", inst.FamilyName, inst.StyleName, err)
			continue
		}
		path := inst.Path
		if !filepath.IsAbs(path) && proc.doc.Path != "" {
			path = filepath.Join(filepath.Dir(proc.doc.Path), path)
		}
		if onDisk, err := ufo.FormatVersionAt(path); err == nil && onDisk > proc.UFOVersion {
			proc.problemf(SevWarning, ProblemPolicy,
				"%s holds a UFO %d font, refusing to overwrite with UFO %d",
				path, onDisk, proc.UFOVersion)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			proc.problemf(SevError, ProblemStructural, "cannot create output directory: %v", err)
			continue
		}
		if err := font.Save(path, proc.UFOVersion); err != nil {
			class := ProblemStructural
			if core.Code(err) == core.EPOLICY {
				class = ProblemPolicy
			}
			proc.problemf(SevError, class, "cannot save instance to %s: %v", path, err)
			continue
		}
		tracer().Infof("saved instance %s", path)
	}
	return nil
}
