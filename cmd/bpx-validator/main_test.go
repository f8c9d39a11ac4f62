package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bpxgo/validator/internal/testdoc"
	"github.com/bpxgo/validator/pkg/issue"
)

func writeJSON(t *testing.T, dir, name string, doc map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	config, err := parseFlags(args, &bytes.Buffer{})
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer
	code := run(config, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseFlags(t *testing.T) {
	config, err := parseFlags([]string{"-vtol", "0.05", "-output", "JSON", "-workers", "3", "-strict", "a.json", "b.yaml"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.InDelta(t, 0.05, config.Tolerance, 1e-12)
	assert.Equal(t, OutputJSON, config.Output)
	assert.Equal(t, 3, config.Workers)
	assert.True(t, config.Strict)
	assert.Equal(t, []string{"a.json", "b.yaml"}, config.Files)

	_, err = parseFlags([]string{"-nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunValid(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "spm.json", testdoc.SPM())

	code, stdout, _ := runCLI(t, "", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Status: VALID")
	assert.Contains(t, stdout, "Model: SPM")
}

func TestRunInvalidJSONOutput(t *testing.T) {
	dir := t.TempDir()
	broken := testdoc.DFN()
	testdoc.Set(broken, 1.0, "Parameterisation", "Electrolyte", "bad")
	good := writeJSON(t, dir, "a.json", testdoc.DFN())
	bad := writeJSON(t, dir, "b.json", broken)

	code, stdout, _ := runCLI(t, "", "-output", "json", good, bad)
	assert.Equal(t, 1, code)

	var outputs []ValidationOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &outputs))
	require.Len(t, outputs, 2)
	assert.True(t, outputs[0].Valid)
	assert.False(t, outputs[1].Valid)
	require.Len(t, outputs[1].Issues, 1)
	assert.Equal(t, []string{"Parameterisation.Electrolyte.bad"}, outputs[1].Issues[0].Expression)
	assert.Positive(t, outputs[1].Issues[0].Line)
}

func TestRunWarningsAndStrict(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "cell.json", testdoc.NonBlended())

	code, stdout, _ := runCLI(t, "", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "WARN  [consistency]")

	code, _, _ = runCLI(t, "", "-vtol", "0.25", "-strict", path)
	assert.Equal(t, 0, code)

	code, _, _ = runCLI(t, "", "-strict", path)
	assert.Equal(t, 1, code)
}

func TestParseFlagsTolerance(t *testing.T) {
	tests := []struct {
		name string
		vtol string
	}{
		{"negative", "-1"},
		{"nan", "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			config, err := parseFlags([]string{"-vtol", tt.vtol, "a.json", "b.json"}, &stderr)
			require.Error(t, err)
			assert.ErrorIs(t, err, issue.ErrConfiguration)
			assert.Nil(t, config)
			assert.Equal(t, 1, strings.Count(stderr.String(), "v_tol should not be negative"))
		})
	}

	config, err := parseFlags([]string{"-vtol", "0", "a.json"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Zero(t, config.Tolerance)
}

func TestRunStdinYAML(t *testing.T) {
	data, err := yaml.Marshal(testdoc.Partial())
	require.NoError(t, err)

	code, stdout, _ := runCLI(t, string(data), "-format", "yaml", "-dump", "-")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "== stdin ==")
	assert.Contains(t, stdout, "-- stdin decoded --")
	assert.Contains(t, stdout, "Nominal")
}

func TestRunMissingFile(t *testing.T) {
	code, stdout, _ := runCLI(t, "", filepath.Join(t.TempDir(), "none-*.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "no files match pattern")
}

func TestRunMetrics(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "cell.json", testdoc.SPM())

	code, _, stderr := runCLI(t, "", "-quiet", "-metrics", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, `"documents_total": 1`)
}
