package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/cdfio"
	"github.com/scigolib/scalemerge/internal/config"
	"github.com/scigolib/scalemerge/internal/model"
)

func writeScaleFile(t *testing.T, dir, name string, scale float64) {
	t.Helper()
	s, err := cdfio.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, s.Define(&model.Schema{
		Dimensions: []model.Dimension{{Name: "x", Size: 3}},
		Variables: []model.Variable{
			{Name: "x", Type: model.Double, Dimensions: []string{"x"}},
			{Name: "u", Type: model.Double, Dimensions: []string{"x"}},
		},
		Attributes: []model.Attribute{{Name: "filter_scale", Value: []float64{scale}}},
	}))
	require.NoError(t, s.Write("x", []float64{0, 1, 2}))
	require.NoError(t, s.Write("u", []float64{scale, scale, scale}))
	require.NoError(t, s.Close())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	writeScaleFile(t, dir, "post_a.nc", 2000)
	writeScaleFile(t, dir, "post_b.nc", 1000)
	output := filepath.Join(dir, "merged.nc")

	out, err := execute(t,
		"--file_pattern", filepath.Join(dir, "post_*.nc"),
		"--output_filename", output,
		"--print_level", "1",
		"--log_mode", "silent")
	require.NoError(t, err)
	require.Contains(t, out, "merged 2 files")

	src, err := scalemerge.OpenSource(output)
	require.NoError(t, err)
	defer src.Close()

	data, err := src.Read("ell")
	require.NoError(t, err)
	require.Equal(t, []float64{1000, 2000}, data)

	data, err = src.Read("u")
	require.NoError(t, err)
	require.Equal(t, []float64{1000, 1000, 1000, 2000, 2000, 2000}, data)
}

func TestMergeCommandConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeScaleFile(t, dir, "post_a.nc", 5)

	cfg := config.GetDefaultConfig()
	cfg.LogMode = "silent"
	cfg.Merge.FilePattern = filepath.Join(dir, "post_*.nc")
	cfg.Merge.OutputFilename = filepath.Join(dir, "from_config.nc")
	cfg.Merge.PrintLevel = 1
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))

	// The explicit flag wins over the file.
	override := filepath.Join(dir, "from_flag.nc")
	_, err := execute(t, "--config", path, "--output_filename", override)
	require.NoError(t, err)

	require.FileExists(t, override)
	require.NoFileExists(t, cfg.Merge.OutputFilename)
}

func TestMergeCommandErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing pattern", []string{"--output_filename", "x.nc"}, "file_pattern"},
		{"missing output", []string{"--file_pattern", "*.nc"}, "output_filename"},
		{"bad level", []string{"--file_pattern", "*.nc", "--output_filename", "x.nc", "--print_level", "7"}, "print_level"},
		{"no inputs", []string{
			"--file_pattern", filepath.Join(dir, "none_*.nc"),
			"--output_filename", filepath.Join(dir, "x.nc"),
			"--log_mode", "silent",
		}, "no input files"},
		{"bad format", []string{
			"--file_pattern", "*.nc", "--output_filename", "x.nc", "--format", "zarr",
		}, "unknown format"},
		{"missing config", []string{"--config", filepath.Join(dir, "none.yaml")}, "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRunMainExitCode(t *testing.T) {
	dir := t.TempDir()
	code := runMain([]string{
		"--file_pattern", filepath.Join(dir, "*.nc"),
		"--output_filename", filepath.Join(dir, "out.nc"),
		"--log_mode", "silent",
	})
	require.Equal(t, 1, code)

	_, err := os.Stat(filepath.Join(dir, "out.nc"))
	require.True(t, os.IsNotExist(err), fmt.Sprint(err))
}
