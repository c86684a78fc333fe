/*
Package mutator builds evaluable interpolation models from scattered
master samples in a design space.

A mutator holds a neutral (bias) value and a set of deltas keyed by
their offset from the bias. On-axis deltas carry the difference between
a master and the neutral; off-axis deltas are "punched": they carry the
difference between the master and what the already collected deltas
predict at the master's location. With a full factorial master set this
yields true tensor-product interpolation; with masters only at the axis
extremes it reduces to plain linear interpolation. Outside the sampled
range the outermost segment of each axis extends linearly — instances
beyond the masters extrapolate, they are not clamped.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

*/
package mutator

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'dspace.mutator'
func tracer() tracing.Trace {
	return tracing.Select("dspace.mutator")
}
