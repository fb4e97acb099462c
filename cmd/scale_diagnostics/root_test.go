package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/cdfio"
	"github.com/scigolib/scalemerge/internal/diagnostics"
	"github.com/scigolib/scalemerge/internal/model"
)

const (
	nScale = 2
	nTime  = 3
	nLat   = 2
	nLon   = 2
)

var (
	testLat  = []float64{0, 0.1}
	testLon  = []float64{0, 0.1}
	testMask = []float64{1, 1, 1, 0}
)

func writeFile(t *testing.T, path string, schema *model.Schema, data map[string][]float64) {
	t.Helper()
	s, err := cdfio.Create(path)
	require.NoError(t, err)
	require.NoError(t, s.Define(schema))
	for _, v := range schema.Variables {
		require.NoError(t, s.Write(v.Name, data[v.Name]), v.Name)
	}
	require.NoError(t, s.Close())
}

// stacked fills a (scale, time, depth, lat, lon) variable from f(scale, time).
func stacked(f func(s, t int) float64) []float64 {
	out := make([]float64, 0, nScale*nTime*nLat*nLon)
	for s := 0; s < nScale; s++ {
		for t := 0; t < nTime; t++ {
			for p := 0; p < nLat*nLon; p++ {
				out = append(out, f(s, t))
			}
		}
	}
	return out
}

// writeMerged writes a small merged file in the layout scale_diagnostics reads.
func writeMerged(t *testing.T, dir string) string {
	t.Helper()
	full := []string{"ell", "time", "depth", "latitude", "longitude"}
	schema := &model.Schema{
		Dimensions: []model.Dimension{
			{Name: "ell", Size: nScale},
			{Name: "time", Size: nTime},
			{Name: "depth", Size: 1},
			{Name: "latitude", Size: nLat},
			{Name: "longitude", Size: nLon},
		},
	}
	data := map[string][]float64{
		"ell":       {1e4, 5e4},
		"time":      {0, 1, 2},
		"depth":     {0},
		"latitude":  testLat,
		"longitude": testLon,
		"mask":      testMask,
		"u_r":       stacked(func(s, _ int) float64 { return float64(s + 1) }),
		"u_lon":     stacked(func(int, int) float64 { return 0 }),
		"u_lat":     stacked(func(int, int) float64 { return 0 }),
		"vort_r": stacked(func(s, t int) float64 {
			if s == 1 {
				return float64(t)
			}
			return 0
		}),
		"vort_lon": stacked(func(int, int) float64 { return 0 }),
		"vort_lat": stacked(func(int, int) float64 { return 0 }),
		"baroclinic_transfer": stacked(func(s, _ int) float64 {
			if s == 0 {
				return 1
			}
			return 0
		}),
	}
	for _, name := range []string{"ell", "time", "depth", "latitude", "longitude"} {
		schema.Variables = append(schema.Variables, model.Variable{Name: name, Type: model.Double, Dimensions: []string{name}})
	}
	schema.Variables = append(schema.Variables, model.Variable{Name: "mask", Type: model.Double, Dimensions: []string{"latitude", "longitude"}})
	for _, name := range []string{"u_r", "u_lon", "u_lat", "vort_r", "vort_lon", "vort_lat", "baroclinic_transfer"} {
		schema.Variables = append(schema.Variables, model.Variable{Name: name, Type: model.Double, Dimensions: full})
	}

	path := filepath.Join(dir, "merged.nc")
	writeFile(t, path, schema, data)
	return path
}

// writeUnfiltered writes uo = 4, vo = 0 everywhere.
func writeUnfiltered(t *testing.T, dir string) string {
	t.Helper()
	dims := []string{"time", "depth", "latitude", "longitude"}
	n := nTime * nLat * nLon
	uo := make([]float64, n)
	for i := range uo {
		uo[i] = 4
	}
	path := filepath.Join(dir, "input.nc")
	writeFile(t, path, &model.Schema{
		Dimensions: []model.Dimension{
			{Name: "time", Size: nTime},
			{Name: "depth", Size: 1},
			{Name: "latitude", Size: nLat},
			{Name: "longitude", Size: nLon},
		},
		Variables: []model.Variable{
			{Name: "uo", Type: model.Double, Dimensions: dims},
			{Name: "vo", Type: model.Double, Dimensions: dims},
		},
	}, map[string][]float64{"uo": uo, "vo": make([]float64, n)})
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log_mode", "silent"))
	return cmd.Execute()
}

func readVar(t *testing.T, path, name string) []float64 {
	t.Helper()
	src, err := scalemerge.OpenSource(path)
	require.NoError(t, err)
	defer src.Close()
	raw, err := src.Read(name)
	require.NoError(t, err)
	data, err := model.ToFloat64(raw)
	require.NoError(t, err)
	return data
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestKEBands(t *testing.T) {
	dir := t.TempDir()
	input := writeMerged(t, dir)
	source := writeUnfiltered(t, dir)
	outDir := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "ke-bands",
		"--input", input,
		"--source", source,
		"--output_dir", outDir,
		"--worker_index", "1",
		"--worker_count", "2",
		"--jobs", "2"))

	// Worker 1 of 2 handles frame 1 only.
	require.NoFileExists(t, framePath(outDir, 0))
	require.NoFileExists(t, framePath(outDir, 2))
	path := framePath(outDir, 1)
	require.FileExists(t, path)

	np := nLat * nLon
	require.Equal(t, append(repeat(0.5, np), repeat(2, np)...), readVar(t, path, "KE"))
	require.Equal(t, repeat(0.5, np), readVar(t, path, "KE_below"))
	require.Equal(t, repeat(2, np), readVar(t, path, "KE_above"))
	// 0.5*4² - 0.5*(1+2)²
	require.Equal(t, repeat(3.5, np), readVar(t, path, "KE_residual"))
	require.Equal(t, testMask, readVar(t, path, "mask"))
	require.Equal(t, []float64{1e4, 5e4}, readVar(t, path, "scale"))
}

func TestKEBandsAllFrames(t *testing.T) {
	dir := t.TempDir()
	input := writeMerged(t, dir)
	outDir := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "ke-bands", "--input", input, "--output_dir", outDir))
	for f := 0; f < nTime; f++ {
		require.FileExists(t, framePath(outDir, f))
	}

	src, err := scalemerge.OpenSource(framePath(outDir, 0))
	require.NoError(t, err)
	defer src.Close()
	_, ok := src.Schema().Variable("KE_residual")
	require.False(t, ok, "no residual without an unfiltered source")
}

func TestEnstrophyFlux(t *testing.T) {
	dir := t.TempDir()
	input := writeMerged(t, dir)
	output := filepath.Join(dir, "flux.nc")

	require.NoError(t, execute(t, "enstrophy-flux", "--input", input, "--output", output))

	areas, err := diagnostics.AreaWeights(testLat, testLon, diagnostics.EarthRadius)
	require.NoError(t, err)
	var weight float64
	for i, a := range areas {
		weight += a * testMask[i]
	}

	require.Equal(t, []float64{0, 3600, 7200}, readVar(t, output, "time"))
	require.Equal(t, []float64{1e4}, readVar(t, output, "band"))

	// EN = ½ρ(T/3600)², so dEN/dT = ρT/3600².
	flux := readVar(t, output, "net_EN_flux")
	require.Len(t, flux, nTime)
	unit := diagnostics.ReferenceDensity / 3600 * weight
	require.InDelta(t, 0, flux[0], 1e-6*unit)
	require.InEpsilon(t, unit, flux[1], 1e-6)
	require.InEpsilon(t, 2*unit, flux[2], 1e-6)

	lambda := readVar(t, output, "net_lambda")
	for _, v := range lambda {
		require.InEpsilon(t, weight, v, 1e-9)
	}
}

func TestDiagnosticsErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeMerged(t, dir)

	require.ErrorContains(t, execute(t, "ke-bands"), "input is required")
	require.ErrorContains(t, execute(t, "ke-bands", "--input", input,
		"--worker_index", "3", "--worker_count", "2"), "worker_index")
	require.ErrorContains(t, execute(t, "ke-bands", "--input", input,
		"--depth_index", "4", "--output_dir", filepath.Join(dir, "out")), "out of range")
	require.Error(t, execute(t, "enstrophy-flux", "--input", filepath.Join(dir, "missing.nc")))
}
