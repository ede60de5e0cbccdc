package contrast

import (
	"errors"
	"fmt"

	"designagent/internal/designspec"
)

var ErrMissingPaletteKey = errors.New("contrast: missing palette key")

// Pair is a foreground role checked against a background role.
type Pair struct {
	Foreground string
	Background string
}

// Pairs are the role pairs every palette must satisfy, in check order.
var Pairs = []Pair{
	{Foreground: "onBg", Background: "bg"},
	{Foreground: "onSurface", Background: "surface"},
	{Foreground: "onPrimary", Background: "primary"},
}

// Fix records one foreground replacement.
type Fix struct {
	Role string
	From string
	To   string
}

// FixPalette repairs every failing pair in p in place and returns the
// replacements made. All roles are checked before anything is changed, so a
// failed call leaves p untouched.
func FixPalette(p designspec.Palette) ([]Fix, error) {
	for _, pair := range Pairs {
		for _, role := range []string{pair.Foreground, pair.Background} {
			c, ok := p[role]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingPaletteKey, role)
			}
			if _, err := Luminance(c); err != nil {
				return nil, fmt.Errorf("palette %s: %w", role, err)
			}
		}
	}

	var fixes []Fix
	for _, pair := range Pairs {
		fg, bg := p[pair.Foreground], p[pair.Background]
		ok, _ := PassesAA(fg, bg, AAThreshold)
		if ok {
			continue
		}
		// Mid-grey backgrounds fail with both candidates; the near-black
		// result is kept and not reported again.
		to := Repair(fg, bg)
		if to == fg {
			continue
		}
		p[pair.Foreground] = to
		fixes = append(fixes, Fix{Role: pair.Foreground, From: fg, To: to})
	}
	return fixes, nil
}

// ValidateAndFixPalette brings the document's palette to AA contrast.
func ValidateAndFixPalette(doc *designspec.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: no document", ErrMissingPaletteKey)
	}
	_, err := FixPalette(doc.DesignSystem.Palette)
	return err
}

// PairResult is the contrast outcome of one pair.
type PairResult struct {
	Pair
	FG    string
	BG    string
	Ratio float64
	Pass  bool
	Err   error
}

// Report evaluates every pair without modifying p.
func Report(p designspec.Palette) []PairResult {
	out := make([]PairResult, 0, len(Pairs))
	for _, pair := range Pairs {
		res := PairResult{Pair: pair, FG: p[pair.Foreground], BG: p[pair.Background]}
		switch {
		case res.FG == "":
			res.Err = fmt.Errorf("%w: %s", ErrMissingPaletteKey, pair.Foreground)
		case res.BG == "":
			res.Err = fmt.Errorf("%w: %s", ErrMissingPaletteKey, pair.Background)
		default:
			res.Ratio, res.Err = Ratio(res.FG, res.BG)
			res.Pass = res.Err == nil && res.Ratio >= AAThreshold
		}
		out = append(out, res)
	}
	return out
}
