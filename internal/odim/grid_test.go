package odim

import "testing"

func TestGrid_Physical(t *testing.T) {
	g := &Grid{
		Width:  2,
		Height: 1,
		Raw:    []float32{0, 80},
		Gain:   0.5,
		Offset: -32,
	}

	if got := g.Physical(0); got != -32 {
		t.Errorf("Physical(0) = %v, want -32", got)
	}
	if got := g.Physical(1); got != 8 {
		t.Errorf("Physical(1) = %v, want 8", got)
	}
}

func TestGrid_Valid(t *testing.T) {
	g := &Grid{
		Width:    3,
		Height:   1,
		Raw:      []float32{255, 0, 100},
		Gain:     1,
		Nodata:   255,
		Undetect: 0,
	}

	tests := []struct {
		index int
		want  bool
	}{
		{0, false}, // nodata
		{1, false}, // undetect
		{2, true},
	}
	for _, tt := range tests {
		if got := g.Valid(tt.index); got != tt.want {
			t.Errorf("Valid(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestGrid_Len(t *testing.T) {
	g := &Grid{Width: 4, Height: 3}
	if got := g.Len(); got != 12 {
		t.Errorf("Len() = %d, want 12", got)
	}
}
