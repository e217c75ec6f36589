package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"radarview/internal/odim"
)

// Converter turns one downloaded HDF5 composite into its final PNG product.
// The rain score is embedded in the output filename so listings can carry it
// without reopening the file: <base>_<score>.png with the score formatted to
// three decimals.
type Converter struct {
	reader   GridReader
	renderer Renderer
	invoker  *CommandInvoker
}

// GridReader is satisfied by odim.FileReader; tests substitute fakes.
type GridReader interface {
	Read(path string) (*odim.Grid, error)
}

// NewConverter wires a reader, a renderer, and an optional post-processing chain.
func NewConverter(reader GridReader, renderer Renderer, commands []Command) *Converter {
	return &Converter{
		reader:   reader,
		renderer: renderer,
		invoker:  NewCommandInvoker(commands),
	}
}

// Convert reads hdfPath, renders it, runs the post-processing chain, and
// writes the product into outputDir. The PNG is first written under a
// temporary name and only renamed to its final score-suffixed name once
// complete, so readers never observe partial products.
func (c *Converter) Convert(hdfPath, outputDir string) (string, float64, error) {
	grid, err := c.reader.Read(hdfPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", filepath.Base(hdfPath), err)
	}

	pngData, rainScore, err := c.renderer.Render(grid)
	if err != nil {
		return "", 0, fmt.Errorf("failed to render %s: %w", filepath.Base(hdfPath), err)
	}

	pngData, err = c.invoker.Execute(pngData)
	if err != nil {
		return "", 0, err
	}

	base := strings.TrimSuffix(filepath.Base(hdfPath), filepath.Ext(hdfPath))
	tempPath := filepath.Join(outputDir, base+".png")
	finalPath := filepath.Join(outputDir, FinalName(base, rainScore))

	slog.Info("converting composite",
		"source", filepath.Base(hdfPath),
		"target", filepath.Base(finalPath),
		"rain_score", rainScore)

	if err := os.WriteFile(tempPath, pngData, 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("failed to rename %s: %w", tempPath, err)
	}

	return finalPath, rainScore, nil
}

// FinalName builds the score-suffixed product filename for a composite base name.
func FinalName(base string, rainScore float64) string {
	return fmt.Sprintf("%s_%.3f.png", base, rainScore)
}
