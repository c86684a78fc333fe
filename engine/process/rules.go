package process

import (
	"github.com/npillmayer/dspace/core/designspace"
	"github.com/npillmayer/dspace/core/location"
	"github.com/npillmayer/dspace/core/ufo"
)

// swapTempPrefix is reserved for the parking glyph of SwapGlyphNames.
const swapTempPrefix = "____dspace.swap."

// ApplyRules evaluates rules in document order against a location and
// returns the possibly renamed glyph names, positionally aligned with
// names. A firing rule's substitutions rename within the working list,
// so later rules see the renames of earlier ones.
func ApplyRules(rules []designspace.Rule, loc location.Location, names []string) []string {
	renamed := append([]string(nil), names...)
	for _, rule := range rules {
		if !rule.Matches(loc) {
			continue
		}
		tracer().Debugf("rule %s fires at %v", rule.Name, loc)
		for _, sub := range rule.Subs {
			for i, n := range renamed {
				if n == sub[0] {
					renamed[i] = sub[1]
				}
			}
		}
	}
	return renamed
}

// SwapGlyphNames exchanges the outlines, widths and notes of two glyphs
// while keeping each name's unicode values in place: the shapes move,
// the code-point identity of each glyph name stays put. Component
// references throughout the font, kerning pairs and group memberships
// follow the shapes. If either glyph is absent the call is a no-op.
//
// The exchange parks a copy of the first glyph under a reserved temp
// name (checked for absence), so components can be remapped in three
// passes without self-overwrite. The parking glyph is removed before
// returning.
func SwapGlyphNames(f *ufo.Font, nameA, nameB string) {
	ga, gb := f.Glyph(nameA), f.Glyph(nameB)
	if ga == nil || gb == nil {
		tracer().Debugf("swap %s/%s: glyph absent, nothing to do", nameA, nameB)
		return
	}
	temp := swapTempPrefix + nameA
	for f.HasGlyph(temp) {
		temp += "_"
	}
	parked := ga.Copy()
	parked.Name = temp
	f.DefaultLayer().SetGlyph(parked)

	swapBody(ga, gb)
	swapBody(gb, parked)

	renameComponents(f, nameA, temp)
	renameComponents(f, nameB, nameA)
	renameComponents(f, temp, nameB)

	swapKerningNames(f.Kerning, nameA, nameB)
	swapGroupMembers(f.Groups, nameA, nameB)

	f.DeleteGlyph(temp)
}

// swapBody moves src's outline, width, note and lib into dst. Name
// and unicodes of dst stay untouched.
func swapBody(dst, src *ufo.Glyph) {
	c := src.Copy()
	dst.Width = c.Width
	dst.Note = c.Note
	dst.Lib = c.Lib
	dst.Contours = c.Contours
	dst.Components = c.Components
	dst.Anchors = c.Anchors
}

// renameComponents retargets every component reference in the font's
// default layer from one base glyph name to another.
func renameComponents(f *ufo.Font, from, to string) {
	layer := f.DefaultLayer()
	for _, name := range layer.GlyphNames() {
		g := layer.Glyph(name)
		for i := range g.Components {
			if g.Components[i].BaseGlyph == from {
				g.Components[i].BaseGlyph = to
			}
		}
	}
}

func swapName(n, a, b string) string {
	switch n {
	case a:
		return b
	case b:
		return a
	}
	return n
}

func swapKerningNames(kerning ufo.Kerning, a, b string) {
	swapped := make(ufo.Kerning, len(kerning))
	for pair, v := range kerning {
		pair.First = swapName(pair.First, a, b)
		pair.Second = swapName(pair.Second, a, b)
		swapped[pair] = v
	}
	for pair := range kerning {
		delete(kerning, pair)
	}
	for pair, v := range swapped {
		kerning[pair] = v
	}
}

func swapGroupMembers(groups ufo.Groups, a, b string) {
	for _, members := range groups {
		for i, m := range members {
			members[i] = swapName(m, a, b)
		}
	}
}
