// Package odim reads CHMI ODIM_H5 radar composites.
package odim

// Grid is a decoded two-dimensional radar composite. Raw holds the encoded
// pixel values row-major; physical values are raw*Gain + Offset.
type Grid struct {
	Width  int
	Height int
	Raw    []float32

	Gain     float64
	Offset   float64
	Nodata   float64
	Undetect float64
}

// Physical returns the decoded physical value (dBZ or mm) at index i.
func (g *Grid) Physical(i int) float64 {
	return float64(g.Raw[i])*g.Gain + g.Offset
}

// Valid reports whether the pixel at index i carries a measurement,
// i.e. is neither the nodata nor the undetect marker.
func (g *Grid) Valid(i int) bool {
	v := float64(g.Raw[i])
	return v != g.Nodata && v != g.Undetect
}

// Len returns the number of pixels.
func (g *Grid) Len() int {
	return g.Width * g.Height
}
