package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color helpers for custom form themes. HSL strings use the bare
// "H S% L%" triplet form so the frontend can drop them straight into
// CSS custom properties.

// HexToHSL converts a "#rrggbb" color to an "H S% L%" string with each
// component rounded to the nearest integer.
func HexToHSL(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return "0 0% 0%"
	}

	rv, err1 := strconv.ParseUint(hex[0:2], 16, 8)
	gv, err2 := strconv.ParseUint(hex[2:4], 16, 8)
	bv, err3 := strconv.ParseUint(hex[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return "0 0% 0%"
	}

	r := float64(rv) / 255
	g := float64(gv) / 255
	b := float64(bv) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	var h, s float64
	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		case b:
			h = (r-g)/d + 4
		}
		h *= 60
	}

	return fmt.Sprintf("%.0f %.0f%% %.0f%%", h, s*100, l*100)
}

// HSLToHex converts an "H S% L%" string back to "#rrggbb". Malformed
// input (fewer than three numeric parts) falls back to black.
func HSLToHex(hsl string) string {
	h, s, l, ok := parseHSL(hsl)
	if !ok {
		return "#000000"
	}

	s /= 100
	l /= 100

	var r, g, b float64
	if s == 0 {
		r, g, b = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		r = hueToRGB(p, q, h/360+1.0/3)
		g = hueToRGB(p, q, h/360)
		b = hueToRGB(p, q, h/360-1.0/3)
	}

	return fmt.Sprintf("#%02x%02x%02x",
		int(math.Round(r*255)),
		int(math.Round(g*255)),
		int(math.Round(b*255)))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// Lighten raises the lightness of a hex color by amount percentage
// points, clamped to [0,100]. Unparseable input is returned unchanged.
func Lighten(hex string, amount float64) string {
	return adjustLightness(hex, amount)
}

// Darken lowers the lightness of a hex color by amount percentage
// points, clamped to [0,100]. Unparseable input is returned unchanged.
func Darken(hex string, amount float64) string {
	return adjustLightness(hex, -amount)
}

func adjustLightness(hex string, delta float64) string {
	h, s, l, ok := parseHSL(HexToHSL(hex))
	if !ok {
		return hex
	}

	l += delta
	if l < 0 {
		l = 0
	}
	if l > 100 {
		l = 100
	}

	return HSLToHex(fmt.Sprintf("%.0f %.0f%% %.0f%%", h, s, l))
}

func parseHSL(hsl string) (h, s, l float64, ok bool) {
	parts := strings.Fields(hsl)
	if len(parts) < 3 {
		return 0, 0, 0, false
	}

	h, err1 := strconv.ParseFloat(strings.TrimSuffix(parts[0], "%"), 64)
	s, err2 := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
	l, err3 := strconv.ParseFloat(strings.TrimSuffix(parts[2], "%"), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}

	return h, s, l, true
}
