// Package contrast implements WCAG 2.x relative luminance and contrast-ratio
// checks, and the palette repair applied to every generated spec.
package contrast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// AAThreshold is the WCAG AA minimum for normal text.
	AAThreshold = 4.5

	White     = "#FFFFFF"
	NearBlack = "#0B0B0B"
)

var ErrMalformedColor = errors.New("contrast: malformed color")

// Luminance returns the relative luminance of a "#RRGGBB" or "RRGGBB" color.
func Luminance(color string) (float64, error) {
	r, g, b, err := decode(color)
	if err != nil {
		return 0, err
	}
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b), nil
}

// Ratio returns the contrast ratio between two colors, in [1, 21].
func Ratio(a, b string) (float64, error) {
	la, err := Luminance(a)
	if err != nil {
		return 0, err
	}
	lb, err := Luminance(b)
	if err != nil {
		return 0, err
	}
	if lb > la {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05), nil
}

// PassesAA reports whether fg on bg reaches threshold.
func PassesAA(fg, bg string, threshold float64) (bool, error) {
	r, err := Ratio(fg, bg)
	if err != nil {
		return false, err
	}
	return r >= threshold, nil
}

// Repair picks a foreground for bg: white when white reaches AA, otherwise
// near-black. The current foreground is not consulted.
func Repair(fg, bg string) string {
	r, err := Ratio(White, bg)
	if err == nil && r >= AAThreshold {
		return White
	}
	return NearBlack
}

func decode(color string) (r, g, b float64, err error) {
	h := strings.TrimPrefix(color, "#")
	if len(h) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedColor, color)
	}
	v, perr := strconv.ParseUint(h, 16, 32)
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMalformedColor, color)
	}
	return float64(v>>16&0xFF) / 255, float64(v>>8&0xFF) / 255, float64(v&0xFF) / 255, nil
}

func linear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
