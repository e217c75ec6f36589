package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"radarview/internal/odim"
)

// Renderer rasterizes a decoded composite into a transparent-background PNG
// and reports the rain score, the fraction of pixels carrying a visible echo.
type Renderer interface {
	Name() string
	Render(grid *odim.Grid) (pngData []byte, rainScore float64, err error)
}

// ReflectivityRenderer renders maxz and pseudocappi2km composites. When
// VisibleMinRaw is set, weak echoes are suppressed in raw space the way CHMI
// renders CAPPI products; otherwise everything at or above 4 dBZ is shown.
type ReflectivityRenderer struct {
	VisibleMinRaw *int
}

// Name returns the renderer name.
func (r *ReflectivityRenderer) Name() string {
	return "reflectivity"
}

// Render maps each visible pixel to its legend color and leaves invalid or
// suppressed pixels fully transparent.
func (r *ReflectivityRenderer) Render(grid *odim.Grid) ([]byte, float64, error) {
	return renderClasses(grid, func(i int) int {
		if !grid.Valid(i) {
			return -1
		}
		dbz := grid.Physical(i)
		if r.VisibleMinRaw != nil {
			if float64(grid.Raw[i]) < float64(*r.VisibleMinRaw) {
				return -1
			}
		} else if dbz < dbzThresholds[0] {
			return -1
		}
		return reflectivityClass(dbz)
	})
}

// AccumulationRenderer renders merge1h precipitation totals using the
// accumulation levels of the legend.
type AccumulationRenderer struct{}

// Name returns the renderer name.
func (r *AccumulationRenderer) Name() string {
	return "accumulation"
}

// Render bins physical mm values into the legend; values below the lowest
// level stay transparent.
func (r *AccumulationRenderer) Render(grid *odim.Grid) ([]byte, float64, error) {
	return renderClasses(grid, func(i int) int {
		if !grid.Valid(i) {
			return -1
		}
		return accumulationClass(grid.Physical(i))
	})
}

// renderClasses produces the RGBA image and rain score from a per-pixel
// class function. Class -1 means transparent.
func renderClasses(grid *odim.Grid, classAt func(i int) int) ([]byte, float64, error) {
	if grid.Width <= 0 || grid.Height <= 0 || len(grid.Raw) != grid.Len() {
		return nil, 0, fmt.Errorf("malformed grid: %dx%d with %d samples", grid.Width, grid.Height, len(grid.Raw))
	}

	out := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	visible := 0

	for i := 0; i < grid.Len(); i++ {
		cls := classAt(i)
		if cls < 0 {
			continue
		}
		if cls >= len(legendPalette) {
			cls = len(legendPalette) - 1
		}
		visible++
		c := legendPalette[cls]
		o := i * 4
		out.Pix[o] = c.R
		out.Pix[o+1] = c.G
		out.Pix[o+2] = c.B
		out.Pix[o+3] = 0xFF
	}

	rainScore := float64(visible) / float64(grid.Len())

	var buf bytes.Buffer
	buf.Grow(grid.Len())
	if err := png.Encode(&buf, out); err != nil {
		return nil, 0, fmt.Errorf("failed to encode composite as PNG: %w", err)
	}
	return buf.Bytes(), rainScore, nil
}

// NewRenderer builds a renderer by configured name.
func NewRenderer(name string, visibleMinRaw *int) (Renderer, error) {
	switch name {
	case "reflectivity":
		return &ReflectivityRenderer{VisibleMinRaw: visibleMinRaw}, nil
	case "accumulation":
		return &AccumulationRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer: %s", name)
	}
}
