package render

import "image/color"

// FontSizes are point sizes at zoom 1.
type FontSizes struct {
	Date     float64
	Clock    float64
	Smallest float64
	Small    float64
	Medium   float64
	Big      float64
	Huge     float64
}

// Theme holds the palette and font sizes of the dashboard.
type Theme struct {
	Background color.RGBA
	MainFont   color.RGBA
	Black      color.RGBA
	Alert      color.RGBA
	MoonLight  color.RGBA
	MoonDark   color.RGBA
	Yellow     color.RGBA
	DarkYellow color.RGBA
	Blue       color.RGBA
	DarkBlue   color.RGBA

	Sizes FontSizes
}

// DefaultTheme is a light theme that survives dithering to a two-colour panel.
func DefaultTheme() Theme {
	blue := color.RGBA{R: 0, G: 150, B: 255, A: 255}
	return Theme{
		Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		MainFont:   color.RGBA{R: 0, G: 0, B: 0, A: 255},
		Black:      color.RGBA{R: 0, G: 0, B: 0, A: 255},
		Alert:      color.RGBA{R: 220, G: 40, B: 40, A: 255},
		MoonLight:  color.RGBA{R: 255, G: 243, B: 196, A: 255},
		MoonDark:   color.RGBA{R: 40, G: 40, B: 40, A: 255},
		Yellow:     color.RGBA{R: 255, G: 214, B: 0, A: 255},
		DarkYellow: color.RGBA{R: 204, G: 150, B: 0, A: 255},
		Blue:       blue,
		DarkBlue:   color.RGBA{R: blue.R, G: 100, B: 255, A: 255},
		Sizes: FontSizes{
			Date:     26,
			Clock:    62,
			Smallest: 13,
			Small:    16,
			Medium:   22,
			Big:      36,
			Huge:     80,
		},
	}
}
