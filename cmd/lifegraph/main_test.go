package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifegraph/internal/table"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-format", "json", "--log-level", "error"))
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), strings.Join(args, " "))
	return out.String()
}

func TestCommandPipeline(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "grid.json")
	csvPath := filepath.Join(dir, "sweep.csv")
	storePath := filepath.Join(dir, "store")
	tablePath := filepath.Join(dir, "rules.json")
	reportPath := filepath.Join(dir, "run.json")

	execute(t, "grid", "--width", "5", "--height", "4", "--wrap", "--output", graphPath)
	data, err := os.ReadFile(graphPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"diagonal"`)

	common := []string{"--graph", graphPath, "--iterations", "4", "--restarts", "2", "--seed", "9"}

	execute(t, append([]string{"run", "life", "--states", "--output", reportPath}, common...)...)
	msg := execute(t, append([]string{"check", "B3/S23", reportPath}, common...)...)
	assert.Contains(t, msg, "4 transitions follow B3/S23")

	sweep := append([]string{"sweep", "--max-neighbors", "1", "--store", storePath, "--output", csvPath, "--workers", "2"}, common...)
	msg = execute(t, sweep...)
	assert.Contains(t, msg, "16 rules written")
	msg = execute(t, sweep...)
	assert.Contains(t, msg, "0 rules written, 16 skipped")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	rows, err := table.ReadSweep(f)
	f.Close()
	require.NoError(t, err)
	assert.Len(t, rows, 16)

	execute(t, append([]string{"export", "--max-neighbors", "1", "--store", storePath, "--output", tablePath}, common...)...)
	msg = execute(t, "nearest", tablePath, "--reference", "5", "--count", "3")
	assert.Contains(t, msg, "reference 5")
	assert.Contains(t, msg, "combined")

	msg = execute(t, "nearest", csvPath, "--reference", "5", "--count", "3", "--metrics", "rho,D")
	assert.Contains(t, msg, "rho")
}
