/*
Package fontmath implements arithmetic on font data.

Glyph outlines, kerning tables and font-info records become values of a
single capability interface supporting addition, subtraction, scaling
and rounding. The interpolation engine in engine/mutator is generic over
this interface and never branches on the concrete type.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

*/
package fontmath

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'dspace.core'
func tracer() tracing.Trace {
	return tracing.Select("dspace.core")
}
