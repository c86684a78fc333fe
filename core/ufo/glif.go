package ufo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/arithm"
	"github.com/npillmayer/dspace/core"
	"howett.net/plist"
)

// GLIF (version 2) serialization of single glyphs, the per-glyph file
// format inside UFO packages. Only the subset the engine operates on is
// supported: advance width, unicodes, note, outline, anchors and the
// glyph lib.

type glifGlyph struct {
	XMLName  xml.Name      `xml:"glyph"`
	Name     string        `xml:"name,attr"`
	Format   string        `xml:"format,attr"`
	Advance  *glifAdvance  `xml:"advance"`
	Unicodes []glifUnicode `xml:"unicode"`
	Note     string        `xml:"note,omitempty"`
	Outline  *glifOutline  `xml:"outline"`
	Anchors  []glifAnchor  `xml:"anchor"`
	Lib      *glifLib      `xml:"lib"`
}

type glifAdvance struct {
	Width string `xml:"width,attr,omitempty"`
}

type glifUnicode struct {
	Hex string `xml:"hex,attr"`
}

type glifOutline struct {
	Contours   []glifContour   `xml:"contour"`
	Components []glifComponent `xml:"component"`
}

type glifContour struct {
	Points []glifPoint `xml:"point"`
}

type glifPoint struct {
	X      string `xml:"x,attr"`
	Y      string `xml:"y,attr"`
	Type   string `xml:"type,attr,omitempty"`
	Smooth string `xml:"smooth,attr,omitempty"`
	Name   string `xml:"name,attr,omitempty"`
}

type glifComponent struct {
	Base    string `xml:"base,attr"`
	XScale  string `xml:"xScale,attr,omitempty"`
	XYScale string `xml:"xyScale,attr,omitempty"`
	YXScale string `xml:"yxScale,attr,omitempty"`
	YScale  string `xml:"yScale,attr,omitempty"`
	XOffset string `xml:"xOffset,attr,omitempty"`
	YOffset string `xml:"yOffset,attr,omitempty"`
}

type glifAnchor struct {
	X    string `xml:"x,attr"`
	Y    string `xml:"y,attr"`
	Name string `xml:"name,attr,omitempty"`
}

type glifLib struct {
	InnerXML string `xml:",innerxml"`
}

// ParseGlif decodes a GLIF file into a glyph.
func ParseGlif(data []byte) (*Glyph, error) {
	var gg glifGlyph
	if err := xml.Unmarshal(data, &gg); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse GLIF data")
	}
	g := NewGlyph(gg.Name)
	g.Note = strings.TrimSpace(gg.Note)
	if gg.Advance != nil && gg.Advance.Width != "" {
		w, err := strconv.ParseFloat(gg.Advance.Width, 64)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "glyph %s: bad advance width", gg.Name)
		}
		g.Width = w
	}
	for _, u := range gg.Unicodes {
		v, err := strconv.ParseUint(u.Hex, 16, 32)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "glyph %s: bad unicode value %q", gg.Name, u.Hex)
		}
		g.Unicodes = append(g.Unicodes, rune(v))
	}
	if gg.Outline != nil {
		for _, c := range gg.Outline.Contours {
			contour := Contour{}
			for _, p := range c.Points {
				x, err1 := strconv.ParseFloat(p.X, 64)
				y, err2 := strconv.ParseFloat(p.Y, 64)
				if err1 != nil || err2 != nil {
					return nil, core.Error(core.EINVALID, "glyph %s: bad point coordinates", gg.Name)
				}
				contour.Points = append(contour.Points, Point{
					P:      arithm.P(x, y),
					Type:   PointType(p.Type),
					Smooth: p.Smooth == "yes",
					Name:   p.Name,
				})
			}
			g.Contours = append(g.Contours, contour)
		}
		for _, c := range gg.Outline.Components {
			t := Identity
			var err error
			t.XScale, err = glifNum(c.XScale, 1, err)
			t.XYScale, err = glifNum(c.XYScale, 0, err)
			t.YXScale, err = glifNum(c.YXScale, 0, err)
			t.YScale, err = glifNum(c.YScale, 1, err)
			t.XOffset, err = glifNum(c.XOffset, 0, err)
			t.YOffset, err = glifNum(c.YOffset, 0, err)
			if err != nil {
				return nil, core.WrapError(err, core.EINVALID, "glyph %s: bad component transform", gg.Name)
			}
			g.Components = append(g.Components, Component{BaseGlyph: c.Base, Transform: t})
		}
	}
	for _, a := range gg.Anchors {
		x, err1 := strconv.ParseFloat(a.X, 64)
		y, err2 := strconv.ParseFloat(a.Y, 64)
		if err1 != nil || err2 != nil {
			return nil, core.Error(core.EINVALID, "glyph %s: bad anchor coordinates", gg.Name)
		}
		g.Anchors = append(g.Anchors, Anchor{P: arithm.P(x, y), Name: a.Name})
	}
	if gg.Lib != nil {
		lib, err := parseLibFragment(gg.Lib.InnerXML)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "glyph %s: bad lib", gg.Name)
		}
		g.Lib = lib
	}
	return g, nil
}

func glifNum(s string, dflt float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if s == "" {
		return dflt, nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteGlif encodes a glyph as a GLIF (version 2) file.
func WriteGlif(g *Glyph) ([]byte, error) {
	gg := glifGlyph{Name: g.Name, Format: "2", Note: g.Note}
	if g.Width != 0 {
		gg.Advance = &glifAdvance{Width: fmtNum(g.Width)}
	}
	for _, u := range g.Unicodes {
		gg.Unicodes = append(gg.Unicodes, glifUnicode{Hex: fmt.Sprintf("%04X", u)})
	}
	if len(g.Contours) > 0 || len(g.Components) > 0 {
		gg.Outline = &glifOutline{}
		for _, contour := range g.Contours {
			gc := glifContour{}
			for _, p := range contour.Points {
				gp := glifPoint{
					X:    fmtNum(p.P.X()),
					Y:    fmtNum(p.P.Y()),
					Type: string(p.Type),
					Name: p.Name,
				}
				if p.Smooth {
					gp.Smooth = "yes"
				}
				gc.Points = append(gc.Points, gp)
			}
			gg.Outline.Contours = append(gg.Outline.Contours, gc)
		}
		for _, c := range g.Components {
			gg.Outline.Components = append(gg.Outline.Components, glifComponent{
				Base:    c.BaseGlyph,
				XScale:  fmtNumDflt(c.Transform.XScale, 1),
				XYScale: fmtNumDflt(c.Transform.XYScale, 0),
				YXScale: fmtNumDflt(c.Transform.YXScale, 0),
				YScale:  fmtNumDflt(c.Transform.YScale, 1),
				XOffset: fmtNumDflt(c.Transform.XOffset, 0),
				YOffset: fmtNumDflt(c.Transform.YOffset, 0),
			})
		}
	}
	for _, a := range g.Anchors {
		gg.Anchors = append(gg.Anchors, glifAnchor{X: fmtNum(a.P.X()), Y: fmtNum(a.P.Y()), Name: a.Name})
	}
	if len(g.Lib) > 0 {
		frag, err := writeLibFragment(g.Lib)
		if err != nil {
			return nil, core.WrapError(err, core.EINTERNAL, "glyph %s: cannot encode lib", g.Name)
		}
		gg.Lib = &glifLib{InnerXML: frag}
	}
	out, err := xml.MarshalIndent(gg, "", "\t")
	if err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "glyph %s: cannot encode GLIF", g.Name)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtNumDflt(v, dflt float64) string {
	if v == dflt {
		return ""
	}
	return fmtNum(v)
}

// parseLibFragment decodes the inner XML of a GLIF <lib> element, which
// holds a property list <dict>.
func parseLibFragment(inner string) (map[string]interface{}, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, nil
	}
	doc := xml.Header + `<plist version="1.0">` + inner + `</plist>`
	lib := map[string]interface{}{}
	if _, err := plist.Unmarshal([]byte(doc), &lib); err != nil {
		return nil, err
	}
	return lib, nil
}

// writeLibFragment encodes a glyph lib as the inner XML of a <lib>
// element.
func writeLibFragment(lib map[string]interface{}) (string, error) {
	out, err := plist.MarshalIndent(lib, plist.XMLFormat, "\t")
	if err != nil {
		return "", err
	}
	s := string(out)
	start := strings.Index(s, "<dict>")
	end := strings.LastIndex(s, "</dict>")
	if start < 0 || end < 0 {
		// empty dict serializes to a self-closing element
		if idx := strings.Index(s, "<dict/>"); idx >= 0 {
			return "<dict/>", nil
		}
		return "", fmt.Errorf("unexpected plist serialization")
	}
	return s[start : end+len("</dict>")], nil
}
