package convert

import "image/color"

// The CHMI radar legend has 15 bins. Reflectivity bins start at 4 dBZ in
// 4 dBZ steps; the hourly accumulation product uses mm levels instead.

// dbzThresholds are the lower bounds of the legend bins in dBZ.
var dbzThresholds = [15]float64{4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 44, 48, 52, 56, 60}

// precipLevels are the lower bounds of the merge1h accumulation bins in mm.
var precipLevels = [15]float64{0.1, 0.5, 1, 2, 4, 6, 10, 15, 20, 30, 40, 60, 80, 100, 150}

// legendPalette holds the 15 legend colors, weakest echo first.
var legendPalette = [15]color.NRGBA{
	{R: 0x40, G: 0x40, B: 0xFF, A: 0xFF},
	{R: 0x00, G: 0x96, B: 0xFF, A: 0xFF},
	{R: 0x00, G: 0xC8, B: 0xFF, A: 0xFF},
	{R: 0x00, G: 0xE6, B: 0xB4, A: 0xFF},
	{R: 0x00, G: 0xD2, B: 0x00, A: 0xFF},
	{R: 0x46, G: 0xE6, B: 0x00, A: 0xFF},
	{R: 0x96, G: 0xFF, B: 0x00, A: 0xFF},
	{R: 0xDC, G: 0xFF, B: 0x00, A: 0xFF},
	{R: 0xFF, G: 0xE6, B: 0x00, A: 0xFF},
	{R: 0xFF, G: 0xB4, B: 0x00, A: 0xFF},
	{R: 0xFF, G: 0x78, B: 0x00, A: 0xFF},
	{R: 0xFF, G: 0x3C, B: 0x00, A: 0xFF},
	{R: 0xE6, G: 0x00, B: 0x00, A: 0xFF},
	{R: 0xB4, G: 0x00, B: 0x64, A: 0xFF},
	{R: 0xFF, G: 0x00, B: 0xFF, A: 0xFF},
}

// classify returns the bin index (0..len-1) of the last threshold <= value,
// or -1 when the value falls below the first threshold.
func classify(thresholds [15]float64, value float64) int {
	cls := -1
	for i, th := range thresholds {
		if value < th {
			break
		}
		cls = i
	}
	return cls
}

// reflectivityClass bins a dBZ value into the legend.
func reflectivityClass(dbz float64) int {
	return classify(dbzThresholds, dbz)
}

// accumulationClass bins an accumulation value in mm into the legend.
func accumulationClass(mm float64) int {
	return classify(precipLevels, mm)
}
