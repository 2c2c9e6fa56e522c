package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncode_KnownSequence verifies symbol values and checksum for a known input.
func TestEncode_KnownSequence(t *testing.T) {
	symbols, err := Encode("AB")
	require.NoError(t, err)

	// 'A' = 65-32 = 33, 'B' = 66-32 = 34.
	// checksum = (104 + 33*1 + 34*2) % 103 = 205 % 103 = 102
	assert.Equal(t, []int{104, 33, 34, 102, 106}, symbols)
}

// TestEncode_ChecksumRoundTrip verifies that re-deriving the checksum from the
// emitted sequence reproduces the embedded checksum value.
func TestEncode_ChecksumRoundTrip(t *testing.T) {
	inputs := []string{
		"A",
		"WB123456789",
		"1013580001",
		"Hello, World! 42",
		"~~~",
		" ",
	}

	for _, in := range inputs {
		symbols, err := Encode(in)
		require.NoError(t, err, in)

		embedded := symbols[len(symbols)-2]
		assert.Equal(t, embedded, Checksum(symbols), "checksum mismatch for %q", in)
	}
}

// TestEncode_Deterministic verifies repeated encodes produce identical output.
func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode("ORDER1013580001")
	require.NoError(t, err)
	b, err := Encode("ORDER1013580001")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// TestEncode_UnsupportedChar verifies out-of-range characters are rejected.
func TestEncode_UnsupportedChar(t *testing.T) {
	_, err := Encode("ok\tthen")
	assert.ErrorIs(t, err, ErrUnsupportedChar)

	_, err = Encode("héllo")
	assert.ErrorIs(t, err, ErrUnsupportedChar)
}

// TestRenderSVG_Width verifies the documented width formula.
func TestRenderSVG_Width(t *testing.T) {
	symbols, err := Encode("X")
	require.NoError(t, err)

	barModules := 0
	for _, s := range symbols {
		barModules += len(patterns[s])
	}
	wantWidth := (barModules + 2*quietModules) * moduleWidth

	svg, err := RenderSVG("X", 50)
	require.NoError(t, err)

	assert.Contains(t, svg, fmt.Sprintf(`width="%d"`, wantWidth))
	assert.Contains(t, svg, `height="50"`)
}

// TestRenderSVG_DefaultHeight verifies a non-positive height falls back.
func TestRenderSVG_DefaultHeight(t *testing.T) {
	svg, err := RenderSVG("X", 0)
	require.NoError(t, err)
	assert.Contains(t, svg, fmt.Sprintf(`height="%d"`, defaultHeight))
}

// TestRenderSVG_Deterministic verifies byte-identical output across calls.
func TestRenderSVG_Deterministic(t *testing.T) {
	a, err := RenderSVG("WB5550001", 70)
	require.NoError(t, err)
	b, err := RenderSVG("WB5550001", 70)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// TestRenderSVG_UnsupportedChar verifies encode errors propagate.
func TestRenderSVG_UnsupportedChar(t *testing.T) {
	_, err := RenderSVG("bad\x01", 80)
	assert.ErrorIs(t, err, ErrUnsupportedChar)
}

// TestRenderSVG_BarCount verifies every '1' module emits exactly one rect.
func TestRenderSVG_BarCount(t *testing.T) {
	symbols, err := Encode("Z9")
	require.NoError(t, err)

	ones := 0
	for _, s := range symbols {
		ones += strings.Count(patterns[s], "1")
	}

	svg, err := RenderSVG("Z9", 80)
	require.NoError(t, err)

	// One background rect plus one rect per set module.
	assert.Equal(t, ones+1, strings.Count(svg, "<rect"))
}

// TestPatternTable verifies the symbol table shape: 109 entries, every symbol
// 11 modules wide except the terminated stop variant at 108.
func TestPatternTable(t *testing.T) {
	require.Len(t, patterns, 109)

	for i := 0; i <= 107; i++ {
		assert.Len(t, patterns[i], 11, "symbol %d", i)
	}
	assert.Len(t, patterns[108], 13)
	assert.Equal(t, "11000111010", patterns[stopCode])
}

// TestParcelReference verifies the zero-padded label code layout.
func TestParcelReference(t *testing.T) {
	assert.Equal(t, "WB1234560001", ParcelReference("WB123456", 1))
	assert.Equal(t, "WB1234560012", ParcelReference("WB123456", 12))
	assert.Equal(t, "WB1234560123", ParcelReference("WB123456", 123))
}
