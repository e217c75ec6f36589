package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// BasemapOverlayCommand composites the radar layer over an SVG basemap
// (typically a country outline) rasterized at the radar raster size.
type BasemapOverlayCommand struct {
	name    string
	svgPath string
	svgData []byte
}

// NewBasemapOverlayCommand creates a new basemap overlay command. The
// "svgPath" parameter is required and is read once at construction time.
func NewBasemapOverlayCommand(params map[string]any) (Command, error) {
	if err := ValidateRequiredParams(params, []string{"svgPath"}); err != nil {
		return nil, err
	}

	svgPath := GetStringParam(params, "svgPath", "")
	svgData, err := os.ReadFile(svgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read basemap SVG %s: %w", svgPath, err)
	}

	return &BasemapOverlayCommand{
		name:    "BasemapOverlayCommand",
		svgPath: svgPath,
		svgData: svgData,
	}, nil
}

// Name returns the command name.
func (c *BasemapOverlayCommand) Name() string {
	return c.name
}

// Execute renders the basemap at the radar image size and draws the radar
// layer on top of it. The result keeps a transparent background outside the
// basemap strokes.
func (c *BasemapOverlayCommand) Execute(imageData []byte) ([]byte, error) {
	radar, err := png.Decode(bytes.NewReader(imageData))
	if err != nil {
		slog.Error("BasemapOverlayCommand: failed to decode PNG image", "error", err)
		return nil, fmt.Errorf("failed to decode PNG image: %w", err)
	}

	bounds := radar.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	base, err := renderSVG(c.svgData, width, height)
	if err != nil {
		slog.Error("BasemapOverlayCommand: failed to render basemap",
			"svg_path", c.svgPath, "error", err)
		return nil, fmt.Errorf("failed to render basemap %s: %w", c.svgPath, err)
	}

	draw.Draw(base, bounds, radar, bounds.Min, draw.Over)

	var buf bytes.Buffer
	buf.Grow(width * height)
	if err := png.Encode(&buf, base); err != nil {
		return nil, fmt.Errorf("failed to encode composited PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// renderSVG rasterizes an SVG byte slice onto a transparent canvas of the
// given dimensions.
func renderSVG(svgData []byte, targetW, targetH int) (*image.RGBA, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", targetW, targetH)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.RGBA{}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}

func init() {
	if err := DefaultRegistry.Register("BasemapOverlayCommand", NewBasemapOverlayCommand); err != nil {
		panic(fmt.Sprintf("failed to register BasemapOverlayCommand: %v", err))
	}
}
