package shader

import (
	"strconv"
	"strings"
)

// F32 formats a float32 as a WGSL f32 literal for ${name} substitution.
//
// Parameters:
//   - v: the value to format
//
// Returns:
//   - string: the literal, always carrying a decimal point or exponent
func F32(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// U32 formats a uint32 as a WGSL u32 literal (e.g. "256u").
func U32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10) + "u"
}
