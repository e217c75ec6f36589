package odim

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

// CHMI composites keep the first dataset of the first dataset group.
const (
	dataPath = "dataset1/data1/data"
	whatPath = "dataset1/data1/what"
)

// Reader produces a Grid from a file on disk. Implementations other than
// FileReader exist only in tests.
type Reader interface {
	Read(path string) (*Grid, error)
}

// FileReader reads ODIM_H5 files via the HDF5 C library.
type FileReader struct{}

// NewFileReader returns a Reader backed by libhdf5.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read opens an ODIM_H5 composite and decodes dataset1/data1 together with
// its gain/offset/nodata/undetect scaling attributes.
func (r *FileReader) Read(path string) (*Grid, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open HDF5 file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dset, err := f.OpenDataset(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", dataPath, err)
	}
	defer func() { _ = dset.Close() }()

	space := dset.Space()
	defer func() { _ = space.Close() }()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset extent: %w", err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected a 2D composite, got %d dimensions", len(dims))
	}
	height := int(dims[0])
	width := int(dims[1])

	// The HDF5 library converts the on-disk type (uint8 or uint16 depending
	// on the product) to float32 during the read.
	raw := make([]float32, width*height)
	if err := dset.Read(&raw); err != nil {
		return nil, fmt.Errorf("failed to read composite data: %w", err)
	}

	grid := &Grid{
		Width:  width,
		Height: height,
		Raw:    raw,
		Gain:   1.0,
	}

	what, err := f.OpenGroup(whatPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open group %s: %w", whatPath, err)
	}
	defer func() { _ = what.Close() }()

	attrs := []struct {
		name string
		dst  *float64
	}{
		{"gain", &grid.Gain},
		{"offset", &grid.Offset},
		{"nodata", &grid.Nodata},
		{"undetect", &grid.Undetect},
	}
	for _, a := range attrs {
		if err := readFloatAttr(what, a.name, a.dst); err != nil {
			return nil, err
		}
	}

	return grid, nil
}

func readFloatAttr(g *hdf5.Group, name string, dst *float64) error {
	attr, err := g.OpenAttribute(name)
	if err != nil {
		return fmt.Errorf("failed to open attribute %s: %w", name, err)
	}
	defer func() { _ = attr.Close() }()

	if err := attr.Read(dst, hdf5.T_NATIVE_DOUBLE); err != nil {
		return fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return nil
}
