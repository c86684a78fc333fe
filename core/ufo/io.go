package ufo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/dspace/core"
	"howett.net/plist"
)

// File names inside a UFO package.
const (
	metaInfoFile      = "metainfo.plist"
	fontInfoFile      = "fontinfo.plist"
	libFile           = "lib.plist"
	groupsFile        = "groups.plist"
	kerningFile       = "kerning.plist"
	featuresFile      = "features.fea"
	layerContentsFile = "layercontents.plist"
	glyphContentsFile = "contents.plist"
	defaultGlyphsDir  = "glyphs"
)

const creatorID = "com.github.npillmayer.dspace"

// AsNumber coerces a decoded plist value into a float64. Property lists
// distinguish <integer> and <real>; both count as numbers here.
func AsNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// FormatVersionAt probes the UFO format version of the package at path
// by reading only its metainfo file. The full font is not loaded.
func FormatVersionAt(path string) (int, error) {
	data, err := os.ReadFile(filepath.Join(path, metaInfoFile))
	if err != nil {
		return 0, core.WrapError(err, core.EMISSING, "no UFO metainfo at %s", path)
	}
	meta := map[string]interface{}{}
	if _, err := plist.Unmarshal(data, &meta); err != nil {
		return 0, core.WrapError(err, core.EINVALID, "unreadable UFO metainfo at %s", path)
	}
	v, ok := AsNumber(meta["formatVersion"])
	if !ok {
		return 0, core.Error(core.EINVALID, "UFO metainfo at %s lacks a format version", path)
	}
	return int(v), nil
}

// Open reads a UFO package from disk.
func Open(path string) (*Font, error) {
	version, err := FormatVersionAt(path)
	if err != nil {
		return nil, err
	}
	f := NewFont()
	f.Path = path
	f.FormatVersion = version
	tracer().Debugf("opening UFO%d package at %s", version, path)
	if err := readFontInfo(path, &f.Info); err != nil {
		return nil, err
	}
	if err := readPlistInto(filepath.Join(path, libFile), &f.Lib); err != nil {
		return nil, err
	}
	if err := readGroups(path, f.Groups); err != nil {
		return nil, err
	}
	if err := readKerning(path, f.Kerning); err != nil {
		return nil, err
	}
	if data, err := os.ReadFile(filepath.Join(path, featuresFile)); err == nil {
		f.Features = string(data)
	}
	layerDirs, err := readLayerContents(path)
	if err != nil {
		return nil, err
	}
	for _, lc := range layerDirs {
		layer := f.DefaultLayer()
		if lc.dir != defaultGlyphsDir {
			layer = f.NewLayer(lc.name)
		}
		if err := readGlyphLayer(filepath.Join(path, lc.dir), layer); err != nil {
			return nil, err
		}
	}
	return f, nil
}

type layerEntry struct {
	name, dir string
}

func readLayerContents(path string) ([]layerEntry, error) {
	data, err := os.ReadFile(filepath.Join(path, layerContentsFile))
	if err != nil {
		// UFO2 packages have a single glyphs directory and no layer list
		return []layerEntry{{name: DefaultLayerName, dir: defaultGlyphsDir}}, nil
	}
	var raw [][]string
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "unreadable layer contents at %s", path)
	}
	var layers []layerEntry
	for _, pair := range raw {
		if len(pair) != 2 {
			return nil, core.Error(core.EINVALID, "malformed layer contents at %s", path)
		}
		layers = append(layers, layerEntry{name: pair[0], dir: pair[1]})
	}
	return layers, nil
}

func readGlyphLayer(dir string, layer *Layer) error {
	data, err := os.ReadFile(filepath.Join(dir, glyphContentsFile))
	if err != nil {
		return nil // empty layer
	}
	contents := map[string]string{}
	if _, err := plist.Unmarshal(data, &contents); err != nil {
		return core.WrapError(err, core.EINVALID, "unreadable glyph contents in %s", dir)
	}
	for name, file := range contents {
		glifData, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			return core.WrapError(err, core.EMISSING, "missing glyph file %s", file)
		}
		g, err := ParseGlif(glifData)
		if err != nil {
			return err
		}
		if g.Name == "" {
			g.Name = name
		}
		layer.SetGlyph(g)
	}
	return nil
}

func readPlistInto(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil // optional file
	}
	if _, err := plist.Unmarshal(data, dst); err != nil {
		return core.WrapError(err, core.EINVALID, "unreadable property list %s", path)
	}
	return nil
}

func readGroups(path string, groups Groups) error {
	raw := map[string]interface{}{}
	if err := readPlistInto(filepath.Join(path, groupsFile), &raw); err != nil {
		return err
	}
	for name, v := range raw {
		members, ok := v.([]interface{})
		if !ok {
			return core.Error(core.EINVALID, "group %s is not a list", name)
		}
		var list []string
		for _, m := range members {
			s, ok := m.(string)
			if !ok {
				return core.Error(core.EINVALID, "group %s has a non-name member", name)
			}
			list = append(list, s)
		}
		groups[name] = list
	}
	return nil
}

func readKerning(path string, kerning Kerning) error {
	raw := map[string]interface{}{}
	if err := readPlistInto(filepath.Join(path, kerningFile), &raw); err != nil {
		return err
	}
	for first, v := range raw {
		seconds, ok := v.(map[string]interface{})
		if !ok {
			return core.Error(core.EINVALID, "kerning entry %s is not a dict", first)
		}
		for second, vv := range seconds {
			value, ok := AsNumber(vv)
			if !ok {
				return core.Error(core.EINVALID, "kerning value for %s/%s is not a number", first, second)
			}
			kerning[KernPair{first, second}] = value
		}
	}
	return nil
}

func readFontInfo(path string, info *Info) error {
	raw := map[string]interface{}{}
	if err := readPlistInto(filepath.Join(path, fontInfoFile), &raw); err != nil {
		return err
	}
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	num := func(key string) *float64 {
		if v, ok := AsNumber(raw[key]); ok {
			return &v
		}
		return nil
	}
	list := func(key string) []float64 {
		vv, ok := raw[key].([]interface{})
		if !ok {
			return nil
		}
		var out []float64
		for _, v := range vv {
			if n, ok := AsNumber(v); ok {
				out = append(out, n)
			}
		}
		return out
	}
	info.FamilyName = str("familyName")
	info.StyleName = str("styleName")
	info.StyleMapFamilyName = str("styleMapFamilyName")
	info.StyleMapStyleName = str("styleMapStyleName")
	info.PostScriptFontName = str("postscriptFontName")
	info.UnitsPerEm = num("unitsPerEm")
	info.Ascender = num("ascender")
	info.Descender = num("descender")
	info.CapHeight = num("capHeight")
	info.XHeight = num("xHeight")
	info.ItalicAngle = num("italicAngle")
	info.BlueValues = list("postscriptBlueValues")
	info.OtherBlues = list("postscriptOtherBlues")
	info.StemSnapH = list("postscriptStemSnapH")
	info.StemSnapV = list("postscriptStemSnapV")
	if v, ok := AsNumber(raw["versionMajor"]); ok {
		info.VersionMajor = int(v)
	}
	if v, ok := AsNumber(raw["versionMinor"]); ok {
		info.VersionMinor = int(v)
	}
	info.Copyright = str("copyright")
	info.Trademark = str("trademark")
	info.Note = str("note")
	info.OpenTypeNameDesigner = str("openTypeNameDesigner")
	info.OpenTypeNameManufacturer = str("openTypeNameManufacturer")
	info.OpenTypeOS2VendorID = str("openTypeOS2VendorID")
	return nil
}

func fontInfoDict(info Info) map[string]interface{} {
	raw := map[string]interface{}{}
	setStr := func(key, v string) {
		if v != "" {
			raw[key] = v
		}
	}
	setNum := func(key string, v *float64) {
		if v != nil {
			raw[key] = *v
		}
	}
	setList := func(key string, v []float64) {
		if len(v) > 0 {
			raw[key] = v
		}
	}
	setStr("familyName", info.FamilyName)
	setStr("styleName", info.StyleName)
	setStr("styleMapFamilyName", info.StyleMapFamilyName)
	setStr("styleMapStyleName", info.StyleMapStyleName)
	setStr("postscriptFontName", info.PostScriptFontName)
	setNum("unitsPerEm", info.UnitsPerEm)
	setNum("ascender", info.Ascender)
	setNum("descender", info.Descender)
	setNum("capHeight", info.CapHeight)
	setNum("xHeight", info.XHeight)
	setNum("italicAngle", info.ItalicAngle)
	setList("postscriptBlueValues", info.BlueValues)
	setList("postscriptOtherBlues", info.OtherBlues)
	setList("postscriptStemSnapH", info.StemSnapH)
	setList("postscriptStemSnapV", info.StemSnapV)
	if info.VersionMajor != 0 || info.VersionMinor != 0 {
		raw["versionMajor"] = info.VersionMajor
		raw["versionMinor"] = info.VersionMinor
	}
	setStr("copyright", info.Copyright)
	setStr("trademark", info.Trademark)
	setStr("note", info.Note)
	setStr("openTypeNameDesigner", info.OpenTypeNameDesigner)
	setStr("openTypeNameManufacturer", info.OpenTypeNameManufacturer)
	setStr("openTypeOS2VendorID", info.OpenTypeOS2VendorID)
	return raw
}

// Save writes the font as a UFO package of the given format version.
//
// If a UFO already exists at path and declares a newer format version
// than requested, the write is refused with an EPOLICY error. The check
// is advisory and based on the on-disk metainfo only.
func (f *Font) Save(path string, formatVersion int) error {
	if onDisk, err := FormatVersionAt(path); err == nil && onDisk > formatVersion {
		return core.Error(core.EPOLICY, "will not overwrite existing UFO%d with UFO%d at %s",
			onDisk, formatVersion, path)
	}
	tracer().Infof("saving UFO%d package to %s", formatVersion, path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create UFO package at %s", path)
	}
	meta := map[string]interface{}{
		"creator":       creatorID,
		"formatVersion": formatVersion,
	}
	if err := writePlist(filepath.Join(path, metaInfoFile), meta); err != nil {
		return err
	}
	if err := writePlist(filepath.Join(path, fontInfoFile), fontInfoDict(f.Info)); err != nil {
		return err
	}
	if len(f.Lib) > 0 {
		if err := writePlist(filepath.Join(path, libFile), f.Lib); err != nil {
			return err
		}
	}
	if len(f.Groups) > 0 {
		if err := writePlist(filepath.Join(path, groupsFile), f.Groups); err != nil {
			return err
		}
	}
	if len(f.Kerning) > 0 {
		nested := map[string]map[string]float64{}
		for pair, value := range f.Kerning {
			if nested[pair.First] == nil {
				nested[pair.First] = map[string]float64{}
			}
			nested[pair.First][pair.Second] = value
		}
		if err := writePlist(filepath.Join(path, kerningFile), nested); err != nil {
			return err
		}
	}
	if f.Features != "" {
		if err := os.WriteFile(filepath.Join(path, featuresFile), []byte(f.Features), 0644); err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot write features to %s", path)
		}
	}
	var layerContents [][]string
	for i, layerName := range f.layerOrder {
		layer := f.layers[layerName]
		dir := defaultGlyphsDir
		if i > 0 {
			dir = defaultGlyphsDir + "." + sanitizeFileName(layerName)
		}
		if i > 0 && layer.Len() == 0 {
			continue
		}
		layerContents = append(layerContents, []string{layerName, dir})
		if err := writeGlyphLayer(filepath.Join(path, dir), layer); err != nil {
			return err
		}
	}
	if formatVersion >= 3 {
		if err := writePlist(filepath.Join(path, layerContentsFile), layerContents); err != nil {
			return err
		}
	}
	f.Path = path
	f.FormatVersion = formatVersion
	return nil
}

func writeGlyphLayer(dir string, layer *Layer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create glyphs directory %s", dir)
	}
	contents := map[string]string{}
	for _, name := range layer.GlyphNames() {
		file := glifFileName(name)
		contents[name] = file
		data, err := WriteGlif(layer.Glyph(name))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, file), data, 0644); err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot write glyph file %s", file)
		}
	}
	return writePlist(filepath.Join(dir, glyphContentsFile), contents)
}

func writePlist(path string, v interface{}) error {
	data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode property list %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write property list %s", path)
	}
	return nil
}

// glifFileName derives an on-disk file name from a glyph name, following
// the UFO convention of marking upper-case letters with a trailing
// underscore and replacing characters illegal in file names.
func glifFileName(glyphName string) string {
	var sb strings.Builder
	for i, r := range glyphName {
		switch {
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r)
			sb.WriteByte('_')
		case r == '.' && i == 0:
			sb.WriteByte('_')
		case strings.ContainsRune(`"*+/:<>?[\]|`, r) || r < 0x20:
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String() + ".glif"
}

// sanitizeFileName makes a layer name safe as a directory suffix.
func sanitizeFileName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`"*+/:<>?[\]|#% `, r) || r < 0x20 {
			sb.WriteByte('_')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
