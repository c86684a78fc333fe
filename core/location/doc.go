/*
Package location implements points in an n-dimensional design space.

A location maps axis names to coordinates. Coordinates are usually a
single number, but may be anisotropic: a horizontal and a vertical value
which are interpolated independently.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

*/
package location

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'dspace.core'
func tracer() tracing.Trace {
	return tracing.Select("dspace.core")
}
