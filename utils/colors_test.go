package utils

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToHSL(t *testing.T) {
	assert.Equal(t, "160 84% 39%", HexToHSL("#10b981"))
	assert.Equal(t, "0 0% 0%", HexToHSL("#000000"))
	assert.Equal(t, "0 0% 100%", HexToHSL("#ffffff"))
	assert.Equal(t, "0 100% 50%", HexToHSL("#ff0000"))
}

func TestHexToHSLMalformed(t *testing.T) {
	assert.Equal(t, "0 0% 0%", HexToHSL("#fff"))
	assert.Equal(t, "0 0% 0%", HexToHSL("not-a-color"))
	assert.Equal(t, "0 0% 0%", HexToHSL("#zzzzzz"))
}

func TestHSLToHex(t *testing.T) {
	assert.Equal(t, "#000000", HSLToHex("0 0% 0%"))
	assert.Equal(t, "#ffffff", HSLToHex("0 0% 100%"))
	assert.Equal(t, "#ff0000", HSLToHex("0 100% 50%"))
}

func TestHSLToHexMalformed(t *testing.T) {
	assert.Equal(t, "#000000", HSLToHex(""))
	assert.Equal(t, "#000000", HSLToHex("160 84%"))
	assert.Equal(t, "#000000", HSLToHex("a b% c%"))
}

func TestHexHSLRoundTrip(t *testing.T) {
	colors := []string{"#10b981", "#3b82f6", "#ef4444", "#f59e0b", "#8b5cf6", "#111827", "#f9fafb"}
	for _, hex := range colors {
		got := HSLToHex(HexToHSL(hex))
		assertHexClose(t, hex, got)
	}
}

func TestLightenDarken(t *testing.T) {
	// Lighten then darken by the same amount lands close to the original.
	lightened := Lighten("#10b981", 10)
	assert.NotEqual(t, "#10b981", lightened)
	assertHexClose(t, "#10b981", Darken(lightened, 10))

	// Clamped at the ends of the lightness range.
	assert.Equal(t, "#ffffff", Lighten("#ffffff", 20))
	assert.Equal(t, "#000000", Darken("#000000", 20))
	assert.Equal(t, "#ffffff", Lighten("#efefef", 90))
}

func TestLightenMalformedInput(t *testing.T) {
	// HexToHSL of bad input yields the black fallback, which still parses,
	// so only truly unparseable HSL falls back to the original string.
	assert.Equal(t, "#000000", Lighten("#zz0000", 0))
}

// assertHexClose tolerates the loss from rounding H, S and L to whole
// degrees/percents on the way through; one percent of lightness alone
// moves a channel by up to ~2.5 units.
func assertHexClose(t *testing.T, want, got string) {
	t.Helper()
	require.Len(t, got, 7)
	for i := 1; i < 7; i += 2 {
		wantCh, err := strconv.ParseInt(want[i:i+2], 16, 32)
		require.NoError(t, err)
		gotCh, err := strconv.ParseInt(got[i:i+2], 16, 32)
		require.NoError(t, err)
		diff := wantCh - gotCh
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, int64(4),
			fmt.Sprintf("channel %d of %s vs %s", i/2, want, got))
	}
}
