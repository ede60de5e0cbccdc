package contrast

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designagent/internal/designspec"
)

func randomColor(r *rand.Rand) string {
	return fmt.Sprintf("#%06X", r.Intn(1<<24))
}

func TestLuminance_Endpoints(t *testing.T) {
	l, err := Luminance("#FFFFFF")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, l, 1e-9)

	l, err = Luminance("000000")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, l, 1e-12)
}

func TestLuminance_Malformed(t *testing.T) {
	for _, c := range []string{"", "#FFF", "#GGGGGG", "#FFFFFFF", "red", "##FFFFF", "+FFFFF", " FFFFFF"} {
		_, err := Luminance(c)
		assert.True(t, errors.Is(err, ErrMalformedColor), "color %q: %v", c, err)
	}
}

func TestRatio_WhiteOnBlack(t *testing.T) {
	r, err := Ratio("#FFFFFF", "#000000")
	require.NoError(t, err)
	assert.InDelta(t, 21.0, r, 0.01)
}

func TestRatio_SymmetryAndIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := randomColor(rng), randomColor(rng)
		ab, err := Ratio(a, b)
		require.NoError(t, err)
		ba, err := Ratio(b, a)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-12)
		assert.GreaterOrEqual(t, ab, 1.0)
		assert.LessOrEqual(t, ab, 21.0+1e-9)

		aa, err := Ratio(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, aa, 1e-12)
	}
}

func TestPassesAA_MatchesBruteForce(t *testing.T) {
	lin := func(v float64) float64 {
		if v <= 0.04045 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	lum := func(c string) float64 {
		var r, g, b int
		_, err := fmt.Sscanf(c, "#%02x%02x%02x", &r, &g, &b)
		require.NoError(t, err)
		return 0.2126*lin(float64(r)/255) + 0.7152*lin(float64(g)/255) + 0.0722*lin(float64(b)/255)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		fg, bg := randomColor(rng), randomColor(rng)
		l1, l2 := lum(fg), lum(bg)
		if l2 > l1 {
			l1, l2 = l2, l1
		}
		want := (l1+0.05)/(l2+0.05) >= 4.5
		got, err := PassesAA(fg, bg, AAThreshold)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%s on %s", fg, bg)
	}
}

func TestPassesAA_Threshold(t *testing.T) {
	ok, err := PassesAA("#767676", "#FFFFFF", AAThreshold)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = PassesAA("#777777", "#FFFFFF", AAThreshold)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepair(t *testing.T) {
	assert.Equal(t, White, Repair("#000000", "#000000"))
	assert.Equal(t, NearBlack, Repair("#FFFFFF", "#FFFFFF"))
	assert.Equal(t, NearBlack, Repair("#FFFFFF", "#22C55E"))
	assert.Equal(t, White, Repair("#000000", "#0F62FE"))
	assert.Equal(t, NearBlack, Repair("#FFFFFF", "not-a-color"))
}

func samplePalette() designspec.Palette {
	return designspec.Palette{
		"primary": "#3B82F6", "bg": "#0B0B0B", "surface": "#151515",
		"onBg": "#FFFFFF", "onSurface": "#E5E7EB", "onPrimary": "#0B0B0B",
	}
}

func TestFixPalette_CompliantIsNoop(t *testing.T) {
	p := samplePalette()
	before := maps.Clone(p)
	fixes, err := FixPalette(p)
	require.NoError(t, err)
	assert.Empty(t, fixes)
	assert.Equal(t, before, p)
}

func TestFixPalette_BlackOnBlack(t *testing.T) {
	p := samplePalette()
	p["bg"] = "#000000"
	p["onBg"] = "#000000"
	fixes, err := FixPalette(p)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, Fix{Role: "onBg", From: "#000000", To: White}, fixes[0])
	assert.Equal(t, White, p["onBg"])
}

func TestFixPalette_LightPrimary(t *testing.T) {
	p := samplePalette()
	p["primary"] = "#22C55E"
	p["onPrimary"] = "#FFFFFF"
	_, err := FixPalette(p)
	require.NoError(t, err)
	assert.Equal(t, NearBlack, p["onPrimary"])
}

func TestFixPalette_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		p := designspec.Palette{}
		for _, role := range []string{"primary", "bg", "surface", "onBg", "onSurface", "onPrimary"} {
			p[role] = randomColor(rng)
		}
		_, err := FixPalette(p)
		require.NoError(t, err)
		once := maps.Clone(p)

		fixes, err := FixPalette(p)
		require.NoError(t, err)
		assert.Equal(t, once, p)
		assert.Empty(t, fixes)

		for _, res := range Report(p) {
			if res.FG == NearBlack {
				continue
			}
			assert.True(t, res.Pass, "%s=%s on %s=%s ratio %.2f", res.Foreground, res.FG, res.Background, res.BG, res.Ratio)
		}
	}
}

func TestFixPalette_MidGreyIsDeterministic(t *testing.T) {
	p := samplePalette()
	p["surface"] = "#777777"
	p["onSurface"] = "#FFFFFF"

	fixes, err := FixPalette(p)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, NearBlack, p["onSurface"])

	// Neither white nor near-black reaches AA here; a second pass keeps the value.
	ok, err := PassesAA(p["onSurface"], p["surface"], AAThreshold)
	require.NoError(t, err)
	assert.False(t, ok)
	fixes, err = FixPalette(p)
	require.NoError(t, err)
	assert.Empty(t, fixes)
	assert.Equal(t, NearBlack, p["onSurface"])
}

func TestFixPalette_MissingKeyLeavesPaletteUntouched(t *testing.T) {
	p := samplePalette()
	p["onBg"] = "#000000"
	delete(p, "onPrimary")
	before := maps.Clone(p)

	_, err := FixPalette(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPaletteKey))
	assert.Contains(t, err.Error(), "onPrimary")
	assert.Equal(t, before, p)
}

func TestFixPalette_MalformedColor(t *testing.T) {
	p := samplePalette()
	p["surface"] = "dark grey"
	_, err := FixPalette(p)
	assert.True(t, errors.Is(err, ErrMalformedColor))
}

func TestValidateAndFixPalette(t *testing.T) {
	doc, err := designspec.Parse(designspec.SampleJSON)
	require.NoError(t, err)
	doc.DesignSystem.Palette["onSurface"] = "#151515"

	require.NoError(t, ValidateAndFixPalette(doc))
	assert.Equal(t, White, doc.DesignSystem.Palette["onSurface"])

	empty := &designspec.Document{}
	assert.True(t, errors.Is(ValidateAndFixPalette(empty), ErrMissingPaletteKey))
	assert.True(t, errors.Is(ValidateAndFixPalette(nil), ErrMissingPaletteKey))
}

func TestReport(t *testing.T) {
	p := samplePalette()
	p["onPrimary"] = "#FFFFFF"
	delete(p, "surface")

	res := Report(p)
	require.Len(t, res, 3)
	assert.True(t, res[0].Pass)
	assert.True(t, errors.Is(res[1].Err, ErrMissingPaletteKey))
	assert.False(t, res[2].Pass)
	assert.InDelta(t, 3.68, res[2].Ratio, 0.01)
}
