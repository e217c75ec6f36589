package convert

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="16" height="16" viewBox="0 0 16 16">
<rect x="0" y="0" width="16" height="16" fill="#202020"/>
</svg>`

func writeTestSVG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "basemap.svg")
	if err := os.WriteFile(path, []byte(testSVG), 0o644); err != nil {
		t.Fatalf("failed to write test SVG: %v", err)
	}
	return path
}

func TestNewBasemapOverlayCommand_MissingParam(t *testing.T) {
	if _, err := NewBasemapOverlayCommand(map[string]any{}); err == nil {
		t.Fatal("Expected error for missing svgPath")
	}
}

func TestNewBasemapOverlayCommand_MissingFile(t *testing.T) {
	params := map[string]any{"svgPath": filepath.Join(t.TempDir(), "nope.svg")}
	if _, err := NewBasemapOverlayCommand(params); err == nil {
		t.Fatal("Expected error for unreadable SVG file")
	}
}

func TestBasemapOverlayCommand_Execute(t *testing.T) {
	command, err := NewBasemapOverlayCommand(map[string]any{"svgPath": writeTestSVG(t)})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}

	out, err := command.Execute(encodeTestPNG(t, 16, 16))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("Expected 16x16 output, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestBasemapOverlayCommand_Execute_InvalidInput(t *testing.T) {
	command, err := NewBasemapOverlayCommand(map[string]any{"svgPath": writeTestSVG(t)})
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}
	if _, err := command.Execute([]byte("not a png")); err == nil {
		t.Fatal("Expected error for invalid PNG input")
	}
}
