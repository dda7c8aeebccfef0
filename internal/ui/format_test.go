package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lifegraph/internal/core"
)

func TestFormatValue(t *testing.T) {
	rule := core.ParameterControl{Type: core.ParamTypeInt, Step: 1}
	assert.Equal(t, "6152", formatValue(rule, 6152))

	density := core.ParameterControl{Type: core.ParamTypeFloat, Step: 0.05}
	assert.Equal(t, "0.45", formatValue(density, 0.45))
	assert.Equal(t, "0.5", formatValue(core.ParameterControl{Type: core.ParamTypeFloat, Step: 0.5}, 0.5))
	assert.Equal(t, "0.1250", formatValue(core.ParameterControl{Type: core.ParamTypeFloat, Step: 0.0001}, 0.125))
}
