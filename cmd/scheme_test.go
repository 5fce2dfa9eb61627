package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-rowe/minimizer/src/pipeline"
	"github.com/will-rowe/minimizer/src/version"
)

var runFile = `
minimizer_size = 15
width = 9
canonical = true
hasher = "identity"
seed = 7

[sketch]
output = "minimizers.tsv.gz"
format = "msgpack"
`

func TestBuildInfo(t *testing.T) {
	// flag defaults apply when there is no config file
	info, err := buildInfo(statsCmd, statsScheme)
	require.NoError(t, err)
	assert.Equal(t, 21, info.MinimizerSize)
	assert.Equal(t, 11, info.Width)
	assert.Equal(t, "xx", info.Hasher)
	require.NoError(t, info.Check())

	// the config file wins over defaults, flags set on the command line win over the config file
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(runFile), 0644))
	*configFile = path
	defer func() { *configFile = "" }()
	require.NoError(t, sketchCmd.Flags().Set("width", "7"))
	info, err = buildInfo(sketchCmd, sketchScheme)
	require.NoError(t, err)
	assert.Equal(t, 15, info.MinimizerSize)
	assert.Equal(t, 7, info.Width)
	assert.True(t, info.Canonical)
	assert.Equal(t, "identity", info.Hasher)
	assert.Equal(t, uint64(7), info.Seed)
	assert.Equal(t, "minimizers.tsv.gz", info.Sketch.Output)
	assert.Equal(t, "msgpack", info.Sketch.Format)
	require.NoError(t, info.Check())

	*configFile = filepath.Join(t.TempDir(), "missing.toml")
	_, err = buildInfo(sketchCmd, sketchScheme)
	require.Error(t, err)
}

func TestBuildInfoFromRunInfo(t *testing.T) {
	saved := pipeline.NewInfo(version.GetBaseVersion() + ".0")
	saved.MinimizerSize = 31
	saved.Width = 15
	saved.Canonical = true
	saved.ModMinimizer = true
	saved.Hasher = pipeline.HasherNtHash
	path := filepath.Join(t.TempDir(), "sketch.info")
	require.NoError(t, saved.Dump(path))

	*configFile = path
	defer func() { *configFile = "" }()
	info, err := buildInfo(statsCmd, statsScheme)
	require.NoError(t, err)
	assert.Equal(t, 31, info.MinimizerSize)
	assert.Equal(t, 15, info.Width)
	assert.True(t, info.Canonical)
	assert.True(t, info.ModMinimizer)
	assert.Equal(t, pipeline.HasherNtHash, info.Hasher)
	assert.Equal(t, version.GetVersion(), info.Version)
	require.NoError(t, info.Check())

	saved.Version = "0.0.1"
	require.NoError(t, saved.Dump(path))
	_, err = buildInfo(statsCmd, statsScheme)
	require.Error(t, err)
}
