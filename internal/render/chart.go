package render

import (
	"image/color"
)

// Bar is one column of an hourly strip chart, in reference units relative to the chart origin.
type Bar struct {
	Value float64
	// Norm is 0 at the series maximum and 1 at the minimum.
	Norm  float64
	X0    float64
	X1    float64
	Top   float64
	Label bool
}

// ChartSpec describes one strip chart in reference units.
type ChartSpec struct {
	X, Y        float64
	Width       float64
	Height      float64
	CapWidth    float64
	LowerOffset float64
	LabelEvery  int
	// Fixed range; when nil the series' own min and max are used.
	Range *[2]float64

	Fill color.Color
	Cap  color.Color
}

// Normalize maps v into [0,1] with max at 0 and min at 1. A flat series
// (min == max) maps every value to 0.5.
func Normalize(v, min, max float64) float64 {
	if min == max {
		return 0.5
	}
	return (v - max) / (min - max)
}

// Bars lays out one bar per value.
func Bars(values []float64, spec ChartSpec) []Bar {
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	if spec.Range != nil {
		lo, hi = spec.Range[0], spec.Range[1]
	} else {
		for _, v := range values[1:] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}

	seg := spec.Width / float64(len(values))
	bars := make([]Bar, len(values))
	for i, v := range values {
		n := Normalize(v, lo, hi)
		bars[i] = Bar{
			Value: v,
			Norm:  n,
			X0:    float64(i) * seg,
			X1:    float64(i+1) * seg,
			Top:   n * spec.Height,
			Label: spec.LabelEvery > 0 && i%spec.LabelEvery == 0,
		}
	}
	return bars
}

// chartX is where strip charts start: right aligned with a 7% inset of their width.
func chartX(width float64) float64 {
	return RefWidth - width*1.07
}

// DrawChart fills each bar from its data point down to the baseline and marks
// the data point with a cap.
func (c Canvas) DrawChart(bars []Bar, spec ChartSpec) {
	bottom := spec.Y + spec.Height + spec.LowerOffset
	for _, b := range bars {
		x0, x1 := spec.X+b.X0, spec.X+b.X1
		top := spec.Y + b.Top
		c.FillRect(x0, top, x1, bottom, spec.Fill)
		c.FillRect(x0, top, x1, top+spec.CapWidth, spec.Cap)
	}
}
