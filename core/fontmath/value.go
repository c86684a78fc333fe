package fontmath

// Value is the algebraic substrate of the interpolation engine: anything
// that can be added, subtracted, scaled and rounded can be interpolated.
//
// Scale takes separate horizontal and vertical factors; anisotropic
// design space locations scale the vertical parts of a value by a
// factor of their own. Values with no vertical dimension ignore y.
//
// Add and Sub fail when the two operands are structurally incompatible,
// e.g. glyph outlines with differing point counts.
type Value interface {
	Add(other Value) (Value, error)
	Sub(other Value) (Value, error)
	Scale(x, y float64) Value
	Round() Value
}
