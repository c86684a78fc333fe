/*
Package designspace implements the designspace document model: axes,
sources (masters), instances and substitution rules, together with
reading and writing of .designspace XML files.

A designspace document is declarative; it describes a design space and
the outputs wanted from it, but performs no interpolation itself. The
processing engine lives in package engine/process.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

*/
package designspace

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'dspace.core'
func tracer() tracing.Trace {
	return tracing.Select("dspace.core")
}
