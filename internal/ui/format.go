package ui

import (
	"math"
	"strconv"

	"lifegraph/internal/core"
)

// formatValue prints ints plainly and floats with as many decimals as the
// control's step needs.
func formatValue(c core.ParameterControl, v float64) string {
	if c.Type == core.ParamTypeInt {
		return strconv.Itoa(int(math.Round(v)))
	}
	decimals := 1
	for s := c.Step; s > 0 && s < 0.1 && decimals < 4; s *= 10 {
		decimals++
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
