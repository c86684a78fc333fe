/*
Package process drives designspace documents: it loads the master
fonts a document names, builds and caches interpolation models for
glyphs, kerning and font info, and generates instance fonts at
arbitrary design-space locations.

The central type is Processor, which wraps a designspace.Document
together with its master fonts and an ordered problems log. Processing
is deliberately forgiving: a missing master, a glyph absent from some
source or a model that fails to evaluate is recorded as a problem and
skipped, while malformed documents surface as hard errors.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

*/
package process

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'dspace.process'
func tracer() tracing.Trace {
	return tracing.Select("dspace.process")
}
