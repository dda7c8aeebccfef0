package app

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigBind(t *testing.T) {
	c := NewConfig()
	fs := pflag.NewFlagSet("ca", pflag.ContinueOnError)
	c.Bind(fs)
	require.NoError(t, fs.Parse([]string{"--scale", "2", "--set", "rule=B36/S23", "--set", "w=64,h=32"}))

	assert.Equal(t, 2, c.Scale)
	assert.Equal(t, "life", c.Sim)
	params, err := c.SimParams()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"rule": "B36/S23", "w": "64", "h": "32"}, params)
}

func TestSimParamsRejectsMalformed(t *testing.T) {
	c := NewConfig()
	c.Params = []string{"rule"}
	_, err := c.SimParams()
	assert.Error(t, err)
}
