package designspace

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"howett.net/plist"

	"github.com/npillmayer/dspace/core"
	"github.com/npillmayer/dspace/core/location"
)

// XML serialization of .designspace documents.

type xmlDesignspace struct {
	XMLName   xml.Name      `xml:"designspace"`
	Format    string        `xml:"format,attr"`
	Axes      []xmlAxis     `xml:"axes>axis"`
	Rules     []xmlRule     `xml:"rules>rule"`
	Sources   []xmlSource   `xml:"sources>source"`
	Instances []xmlInstance `xml:"instances>instance"`
	Lib       *xmlLib       `xml:"lib"`
}

type xmlAxis struct {
	Name    string         `xml:"name,attr"`
	Tag     string         `xml:"tag,attr"`
	Minimum string         `xml:"minimum,attr,omitempty"`
	Maximum string         `xml:"maximum,attr,omitempty"`
	Default string         `xml:"default,attr"`
	Values  string         `xml:"values,attr,omitempty"`
	Hidden  string         `xml:"hidden,attr,omitempty"`
	Maps    []xmlMapPair   `xml:"map"`
	Labels  []xmlLabelName `xml:"labelname"`
}

type xmlMapPair struct {
	Input  string `xml:"input,attr"`
	Output string `xml:"output,attr"`
}

type xmlLabelName struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

type xmlRule struct {
	Name          string            `xml:"name,attr,omitempty"`
	ConditionSets []xmlConditionSet `xml:"conditionset"`
	Subs          []xmlSub          `xml:"sub"`
}

type xmlConditionSet struct {
	Conditions []xmlCondition `xml:"condition"`
}

type xmlCondition struct {
	Name    string `xml:"name,attr"`
	Minimum string `xml:"minimum,attr,omitempty"`
	Maximum string `xml:"maximum,attr,omitempty"`
}

type xmlSub struct {
	Name string `xml:"name,attr"`
	With string `xml:"with,attr"`
}

type xmlDimension struct {
	Name      string `xml:"name,attr"`
	XValue    string `xml:"xvalue,attr,omitempty"`
	YValue    string `xml:"yvalue,attr,omitempty"`
	UserValue string `xml:"uservalue,attr,omitempty"`
}

type xmlCopyFlag struct {
	Copy string `xml:"copy,attr,omitempty"`
}

type xmlMutedGlyph struct {
	Name string `xml:"name,attr"`
	Mute string `xml:"mute,attr,omitempty"`
}

type xmlSource struct {
	Name           string         `xml:"name,attr,omitempty"`
	Filename       string         `xml:"filename,attr"`
	FamilyName     string         `xml:"familyname,attr,omitempty"`
	StyleName      string         `xml:"stylename,attr,omitempty"`
	Layer          string         `xml:"layer,attr,omitempty"`
	LocalisedNames []xmlLabelName `xml:"familyname"`
	Location       []xmlDimension `xml:"location>dimension"`
	Lib            *xmlCopyFlag   `xml:"lib"`
	Info           *xmlCopyFlag   `xml:"info"`
	Features       *xmlCopyFlag   `xml:"features"`
	Groups         *xmlCopyFlag   `xml:"groups"`
	Glyphs         []xmlMutedGlyph `xml:"glyph"`
}

type xmlInstance struct {
	FamilyName     string             `xml:"familyname,attr,omitempty"`
	StyleName      string             `xml:"stylename,attr,omitempty"`
	PSFontName     string             `xml:"postscriptfontname,attr,omitempty"`
	StyleMapFamily string             `xml:"stylemapfamilyname,attr,omitempty"`
	StyleMapStyle  string             `xml:"stylemapstylename,attr,omitempty"`
	Filename       string             `xml:"filename,attr,omitempty"`
	Location       []xmlDimension     `xml:"location>dimension"`
	Info           *xmlEmpty          `xml:"info"`
	Kerning        *xmlEmpty          `xml:"kerning"`
	Glyphs         []xmlInstanceGlyph `xml:"glyphs>glyph"`
}

type xmlEmpty struct{}

type xmlInstanceGlyph struct {
	Name     string           `xml:"name,attr"`
	Unicode  string           `xml:"unicode,attr,omitempty"`
	Mute     string           `xml:"mute,attr,omitempty"`
	Location []xmlDimension   `xml:"location>dimension"`
	Note     string           `xml:"note,omitempty"`
	Masters  []xmlGlyphMaster `xml:"masters>master"`
}

type xmlGlyphMaster struct {
	Source    string         `xml:"source,attr"`
	GlyphName string         `xml:"glyphname,attr,omitempty"`
	Location  []xmlDimension `xml:"location>dimension"`
}

type xmlLib struct {
	InnerXML string `xml:",innerxml"`
}

// --- Reading ---------------------------------------------------------------

// Read loads a .designspace document from disk.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read designspace document %s", path)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes a .designspace document.
func Parse(data []byte) (*Document, error) {
	var x xmlDesignspace
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse designspace document")
	}
	doc := New()
	for _, xa := range x.Axes {
		a := Axis{Name: xa.Name, Tag: xa.Tag, Hidden: isTrue(xa.Hidden)}
		var err error
		a.Default, err = attrNum(xa.Default, 0, err)
		if xa.Values != "" {
			for _, field := range strings.Fields(xa.Values) {
				v, verr := strconv.ParseFloat(field, 64)
				if verr != nil {
					return nil, core.WrapError(verr, core.EINVALID, "axis %s: bad discrete value %q", xa.Name, field)
				}
				a.Values = append(a.Values, v)
			}
		} else {
			a.Minimum, err = attrNum(xa.Minimum, 0, err)
			a.Maximum, err = attrNum(xa.Maximum, 0, err)
		}
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "axis %s: bad numeric attribute", xa.Name)
		}
		for _, m := range xa.Maps {
			in, err1 := strconv.ParseFloat(m.Input, 64)
			out, err2 := strconv.ParseFloat(m.Output, 64)
			if err1 != nil || err2 != nil {
				return nil, core.Error(core.EINVALID, "axis %s: bad map pair", xa.Name)
			}
			a.Map = append(a.Map, MapPair{Input: in, Output: out})
		}
		for _, l := range xa.Labels {
			if a.LabelNames == nil {
				a.LabelNames = map[string]string{}
			}
			a.LabelNames[l.Lang] = strings.TrimSpace(l.Value)
		}
		if err := doc.AddAxis(a); err != nil {
			return nil, err
		}
	}
	for _, xr := range x.Rules {
		r := Rule{Name: xr.Name}
		for _, set := range xr.ConditionSets {
			var conds []Condition
			for _, c := range set.Conditions {
				var err error
				cond := Condition{AxisName: c.Name}
				cond.Minimum, err = attrNum(c.Minimum, negInf, err)
				cond.Maximum, err = attrNum(c.Maximum, posInf, err)
				if err != nil {
					return nil, core.WrapError(err, core.EINVALID, "rule %s: bad condition", xr.Name)
				}
				conds = append(conds, cond)
			}
			r.ConditionSets = append(r.ConditionSets, conds)
		}
		for _, s := range xr.Subs {
			r.Subs = append(r.Subs, [2]string{s.Name, s.With})
		}
		doc.AddRule(r)
	}
	for _, xs := range x.Sources {
		s := Source{
			Name:         xs.Name,
			Path:         xs.Filename,
			FamilyName:   xs.FamilyName,
			StyleName:    xs.StyleName,
			LayerName:    xs.Layer,
			CopyInfo:     xs.Info != nil && isTrue(xs.Info.Copy),
			CopyLib:      xs.Lib != nil && isTrue(xs.Lib.Copy),
			CopyFeatures: xs.Features != nil && isTrue(xs.Features.Copy),
			CopyGroups:   xs.Groups != nil && isTrue(xs.Groups.Copy),
		}
		loc, _, err := dimsToLocation(xs.Location)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "source %s: bad location", xs.Name)
		}
		s.Location = loc
		for _, l := range xs.LocalisedNames {
			if l.Lang == "" {
				continue
			}
			if s.LocalisedFamilyName == nil {
				s.LocalisedFamilyName = map[string]string{}
			}
			s.LocalisedFamilyName[l.Lang] = strings.TrimSpace(l.Value)
		}
		for _, g := range xs.Glyphs {
			if isTrue(g.Mute) {
				s.MutedGlyphNames = append(s.MutedGlyphNames, g.Name)
			}
		}
		if err := doc.AddSource(s); err != nil {
			return nil, err
		}
	}
	for _, xi := range x.Instances {
		inst := Instance{
			FamilyName:         xi.FamilyName,
			StyleName:          xi.StyleName,
			PostScriptFontName: xi.PSFontName,
			StyleMapFamilyName: xi.StyleMapFamily,
			StyleMapStyleName:  xi.StyleMapStyle,
			Path:               xi.Filename,
			Info:               xi.Info != nil,
			Kerning:            xi.Kerning != nil,
		}
		design, user, err := dimsToLocation(xi.Location)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "instance %s %s: bad location", xi.FamilyName, xi.StyleName)
		}
		if len(design) > 0 && len(user) > 0 {
			return nil, core.Error(core.EINVALID,
				"instance %s %s mixes design and user coordinates", xi.FamilyName, xi.StyleName)
		}
		inst.Location, inst.UserLocation = design, user
		for _, xg := range xi.Glyphs {
			spec := GlyphSpec{Mute: isTrue(xg.Mute), Note: strings.TrimSpace(xg.Note)}
			if xg.Unicode != "" {
				for _, field := range strings.Fields(xg.Unicode) {
					v, uerr := strconv.ParseUint(field, 16, 32)
					if uerr != nil {
						return nil, core.WrapError(uerr, core.EINVALID, "glyph %s: bad unicode %q", xg.Name, field)
					}
					spec.Unicodes = append(spec.Unicodes, rune(v))
				}
			}
			if len(xg.Location) > 0 {
				gloc, _, gerr := dimsToLocation(xg.Location)
				if gerr != nil {
					return nil, core.WrapError(gerr, core.EINVALID, "glyph %s: bad location", xg.Name)
				}
				spec.InstanceLocation = gloc
			}
			for _, m := range xg.Masters {
				mloc, _, merr := dimsToLocation(m.Location)
				if merr != nil {
					return nil, core.WrapError(merr, core.EINVALID, "glyph %s: bad master location", xg.Name)
				}
				gname := m.GlyphName
				if gname == "" {
					gname = xg.Name
				}
				spec.Masters = append(spec.Masters, GlyphMaster{
					SourceName: m.Source,
					GlyphName:  gname,
					Location:   mloc,
				})
			}
			if inst.Glyphs == nil {
				inst.Glyphs = map[string]GlyphSpec{}
			}
			inst.Glyphs[xg.Name] = spec
		}
		doc.AddInstance(inst)
	}
	if x.Lib != nil {
		lib, err := parseLibFragment(x.Lib.InnerXML)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "document lib is malformed")
		}
		doc.Lib = lib
	}
	return doc, nil
}

var negInf = math.Inf(-1)
var posInf = math.Inf(1)

func attrNum(s string, dflt float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if s == "" {
		return dflt, nil
	}
	return strconv.ParseFloat(s, 64)
}

func isTrue(s string) bool {
	return s == "1" || s == "true" || s == "yes"
}

// dimsToLocation splits a dimension list into a design location (xvalue,
// optionally anisotropic with yvalue) and a user location (uservalue).
func dimsToLocation(dims []xmlDimension) (design, user location.Location, err error) {
	for _, d := range dims {
		if d.UserValue != "" {
			v, perr := strconv.ParseFloat(d.UserValue, 64)
			if perr != nil {
				return nil, nil, perr
			}
			if user == nil {
				user = location.New()
			}
			user[d.Name] = location.C(v)
			continue
		}
		x, perr := strconv.ParseFloat(d.XValue, 64)
		if perr != nil {
			return nil, nil, perr
		}
		if design == nil {
			design = location.New()
		}
		if d.YValue != "" {
			y, perr := strconv.ParseFloat(d.YValue, 64)
			if perr != nil {
				return nil, nil, perr
			}
			design[d.Name] = location.CXY(x, y)
		} else {
			design[d.Name] = location.C(x)
		}
	}
	return design, user, nil
}

// --- Writing ---------------------------------------------------------------

// Write stores the document as a .designspace file.
func (doc *Document) Write(path string) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write designspace document %s", path)
	}
	doc.Path = path
	return nil
}

// Bytes serializes the document to designspace XML.
func (doc *Document) Bytes() ([]byte, error) {
	x := xmlDesignspace{Format: "4.1"}
	for _, a := range doc.Axes {
		xa := xmlAxis{
			Name:    a.Name,
			Tag:     a.Tag,
			Default: num(a.Default),
		}
		if a.IsDiscrete() {
			vals := make([]string, len(a.Values))
			for i, v := range a.Values {
				vals[i] = num(v)
			}
			xa.Values = strings.Join(vals, " ")
		} else {
			xa.Minimum = num(a.Minimum)
			xa.Maximum = num(a.Maximum)
		}
		if a.Hidden {
			xa.Hidden = "1"
		}
		for _, m := range a.Map {
			xa.Maps = append(xa.Maps, xmlMapPair{Input: num(m.Input), Output: num(m.Output)})
		}
		for lang, label := range a.LabelNames {
			xa.Labels = append(xa.Labels, xmlLabelName{Lang: lang, Value: label})
		}
		x.Axes = append(x.Axes, xa)
	}
	for _, r := range doc.Rules {
		xr := xmlRule{Name: r.Name}
		for _, set := range r.ConditionSets {
			xset := xmlConditionSet{}
			for _, c := range set {
				xc := xmlCondition{Name: c.AxisName}
				if c.Minimum != negInf {
					xc.Minimum = num(c.Minimum)
				}
				if c.Maximum != posInf {
					xc.Maximum = num(c.Maximum)
				}
				xset.Conditions = append(xset.Conditions, xc)
			}
			xr.ConditionSets = append(xr.ConditionSets, xset)
		}
		for _, sub := range r.Subs {
			xr.Subs = append(xr.Subs, xmlSub{Name: sub[0], With: sub[1]})
		}
		x.Rules = append(x.Rules, xr)
	}
	for _, s := range doc.Sources {
		xs := xmlSource{
			Name:       s.Name,
			Filename:   s.Path,
			FamilyName: s.FamilyName,
			StyleName:  s.StyleName,
			Layer:      s.LayerName,
			Location:   locationToDims(s.Location, false),
		}
		if s.CopyInfo {
			xs.Info = &xmlCopyFlag{Copy: "1"}
		}
		if s.CopyLib {
			xs.Lib = &xmlCopyFlag{Copy: "1"}
		}
		if s.CopyFeatures {
			xs.Features = &xmlCopyFlag{Copy: "1"}
		}
		if s.CopyGroups {
			xs.Groups = &xmlCopyFlag{Copy: "1"}
		}
		for lang, label := range s.LocalisedFamilyName {
			xs.LocalisedNames = append(xs.LocalisedNames, xmlLabelName{Lang: lang, Value: label})
		}
		for _, muted := range s.MutedGlyphNames {
			xs.Glyphs = append(xs.Glyphs, xmlMutedGlyph{Name: muted, Mute: "1"})
		}
		x.Sources = append(x.Sources, xs)
	}
	for _, inst := range doc.Instances {
		xi := xmlInstance{
			FamilyName:     inst.FamilyName,
			StyleName:      inst.StyleName,
			PSFontName:     inst.PostScriptFontName,
			StyleMapFamily: inst.StyleMapFamilyName,
			StyleMapStyle:  inst.StyleMapStyleName,
			Filename:       inst.Path,
		}
		if len(inst.UserLocation) > 0 {
			xi.Location = locationToDims(inst.UserLocation, true)
		} else {
			xi.Location = locationToDims(inst.Location, false)
		}
		if inst.Info {
			xi.Info = &xmlEmpty{}
		}
		if inst.Kerning {
			xi.Kerning = &xmlEmpty{}
		}
		for name, spec := range inst.Glyphs {
			xg := xmlInstanceGlyph{Name: name, Note: spec.Note}
			if spec.Mute {
				xg.Mute = "1"
			}
			if len(spec.Unicodes) > 0 {
				var hexes []string
				for _, u := range spec.Unicodes {
					hexes = append(hexes, fmt.Sprintf("%04X", u))
				}
				xg.Unicode = strings.Join(hexes, " ")
			}
			xg.Location = locationToDims(spec.InstanceLocation, false)
			for _, m := range spec.Masters {
				xg.Masters = append(xg.Masters, xmlGlyphMaster{
					Source:    m.SourceName,
					GlyphName: m.GlyphName,
					Location:  locationToDims(m.Location, false),
				})
			}
			xi.Glyphs = append(xi.Glyphs, xg)
		}
		x.Instances = append(x.Instances, xi)
	}
	if len(doc.Lib) > 0 {
		frag, err := writeLibFragment(doc.Lib)
		if err != nil {
			return nil, core.WrapError(err, core.EINTERNAL, "cannot encode document lib")
		}
		x.Lib = &xmlLib{InnerXML: frag}
	}
	out, err := xml.MarshalIndent(x, "", "  ")
	if err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot encode designspace document")
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func locationToDims(loc location.Location, user bool) []xmlDimension {
	var dims []xmlDimension
	for _, axis := range loc.Axes() {
		coord := loc[axis]
		d := xmlDimension{Name: axis}
		if user {
			d.UserValue = num(coord.X)
		} else {
			d.XValue = num(coord.X)
			if coord.Anisotropic {
				d.YValue = num(coord.Y)
			}
		}
		dims = append(dims, d)
	}
	return dims
}

// parseLibFragment decodes the inner XML of a designspace <lib> element,
// which holds a property list <dict>.
func parseLibFragment(inner string) (map[string]interface{}, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, nil
	}
	docStr := xml.Header + `<plist version="1.0">` + inner + `</plist>`
	lib := map[string]interface{}{}
	if _, err := plist.Unmarshal([]byte(docStr), &lib); err != nil {
		return nil, err
	}
	return lib, nil
}

func writeLibFragment(lib map[string]interface{}) (string, error) {
	out, err := plist.MarshalIndent(lib, plist.XMLFormat, "\t")
	if err != nil {
		return "", err
	}
	s := string(out)
	start := strings.Index(s, "<dict>")
	end := strings.LastIndex(s, "</dict>")
	if start < 0 || end < 0 {
		if strings.Contains(s, "<dict/>") {
			return "<dict/>", nil
		}
		return "", fmt.Errorf("unexpected plist serialization")
	}
	return s[start : end+len("</dict>")], nil
}
