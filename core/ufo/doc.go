/*
Package ufo implements an in-memory model of UFO fonts, together with
reading and writing of the on-disk UFO package format.

The model is deliberately small: it covers the attributes the
interpolation engine consumes and produces — glyph outlines with widths
and unicode values, components with affine transformations, anchors,
kerning, kerning groups, font info, feature text and the font lib. It is
not a general font editing library.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

*/
package ufo

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'dspace.ufo'
func tracer() tracing.Trace {
	return tracing.Select("dspace.ufo")
}
