package render

import (
	"math"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		v, min, max float64
		want        float64
	}{
		{name: "max maps to top", v: 20, min: 10, max: 20, want: 0},
		{name: "min maps to bottom", v: 10, min: 10, max: 20, want: 1},
		{name: "midpoint", v: 15, min: 10, max: 20, want: 0.5},
		{name: "flat series", v: 7, min: 7, max: 7, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.v, tt.min, tt.max)
			if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Normalize(%v, %v, %v) = %v, want %v", tt.v, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestBarsFlatSeries(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = 12.5
	}
	spec := ChartSpec{Width: 710, Height: 45, LabelEvery: 4}

	bars := Bars(values, spec)
	if len(bars) != len(values) {
		t.Fatalf("expected %d bars, got %d", len(values), len(bars))
	}
	for i, b := range bars {
		if math.IsNaN(b.Norm) || math.IsInf(b.Norm, 0) {
			t.Fatalf("bar %d has non-finite height", i)
		}
		if b.Top != bars[0].Top {
			t.Fatalf("flat series should give a flat bar set, bar %d top %v vs %v", i, b.Top, bars[0].Top)
		}
	}
}

func TestBarsLayout(t *testing.T) {
	values := []float64{0, 50, 100, 25, 75, 10}
	spec := ChartSpec{Width: 600, Height: 15, LabelEvery: 3, Range: &[2]float64{0, 100}}

	bars := Bars(values, spec)
	if bars[0].Norm != 1 || bars[2].Norm != 0 {
		t.Fatalf("fixed range not applied: %v %v", bars[0].Norm, bars[2].Norm)
	}
	if bars[1].X0 != 100 || bars[1].X1 != 200 {
		t.Fatalf("unexpected segment %v..%v", bars[1].X0, bars[1].X1)
	}
	var labels []int
	for i, b := range bars {
		if b.Label {
			labels = append(labels, i)
		}
	}
	if len(labels) != 2 || labels[0] != 0 || labels[1] != 3 {
		t.Fatalf("expected labels on bars 0 and 3, got %v", labels)
	}
	if Bars(nil, spec) != nil {
		t.Fatalf("empty series should produce no bars")
	}
}

func TestMoonAgeGolden(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-01-11", 29},
		{"2025-03-15", 15},
		{"2022-06-01", 1},
	}
	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := MoonAge(d); got != tt.want {
			t.Fatalf("MoonAge(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestMoonAgeRange(t *testing.T) {
	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*366; i++ {
		age := MoonAge(d.AddDate(0, 0, i))
		if age < 0 || age > 29 {
			t.Fatalf("age %d out of range", age)
		}
	}
}

func TestMoonRaster(t *testing.T) {
	theme := DefaultTheme()
	img := Moon(7, 60, true, theme.MoonLight, theme.MoonDark)
	if img.Bounds().Dx() != 60 || img.Bounds().Dy() != 60 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("corner outside the disc should stay transparent")
	}
	if _, _, _, a := img.At(30, 30).RGBA(); a == 0 {
		t.Fatalf("centre of the disc should be painted")
	}

	if f := MoonDarkFraction(0); f < 0.99 {
		t.Fatalf("new moon should be dark, got %v", f)
	}
	if f := MoonDarkFraction(15); f > 0.01 {
		t.Fatalf("full moon should be lit, got %v", f)
	}
}
