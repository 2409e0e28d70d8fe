package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../../internal/scenario/testdata"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Text(t *testing.T) {
	code, out, _ := runCLI(t,
		filepath.Join(testdata, "bubbling.yaml"),
		filepath.Join(testdata, "immediate.toml"),
	)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "ok   bubbling: 11 steps")
	assert.Contains(t, out, "ok   immediate: 5 steps")
}

func TestRun_JSON(t *testing.T) {
	code, out, _ := runCLI(t, "-format", "json", filepath.Join(testdata, "nested.yaml"))
	require.Equal(t, exitOK, code)

	var reports []struct {
		Scenario string `json:"scenario"`
		Steps    []struct {
			Action      string `json:"action"`
			ReturnValue any    `json:"return_value"`
		} `json:"steps"`
	}
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "nested", reports[0].Scenario)
	require.Len(t, reports[0].Steps, 3)
	assert.Equal(t, "trigger", reports[0].Steps[2].Action)
	assert.EqualValues(t, 42, reports[0].Steps[2].ReturnValue)
}

func TestRun_Parallel(t *testing.T) {
	code, out, _ := runCLI(t, "-parallel", "3",
		filepath.Join(testdata, "bubbling.yaml"),
		filepath.Join(testdata, "nested.yaml"),
		filepath.Join(testdata, "immediate.toml"),
	)

	assert.Equal(t, exitOK, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ok   bubbling"))
	assert.True(t, strings.HasPrefix(lines[1], "ok   nested"))
	assert.True(t, strings.HasPrefix(lines[2], "ok   immediate"))
}

func TestRun_Metrics(t *testing.T) {
	code, out, _ := runCLI(t, "-metrics", filepath.Join(testdata, "bubbling.yaml"))

	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "# TYPE eventmix_trigger_total counter")
	assert.Contains(t, out, `eventmix_listener_failure_total{event="boom"} 1`)
}

func TestRun_FailedScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	doc := "listeners:\n  a:\n    return: 1\nsteps:\n  - on: x\n    listener: a\n  - trigger: x\n    expect:\n      return_value: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	code, out, _ := runCLI(t, path)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, out, "FAIL wrong")
	assert.Contains(t, out, "return_value: got 1, want 2")
}

func TestRun_LoadError(t *testing.T) {
	code, _, errOut := runCLI(t, "-log-json", filepath.Join(testdata, "missing.yaml"))
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, errOut, `"msg":"Failed to load scenario"`)
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no files", nil},
		{"bad format", []string{"-format", "xml", "a.yaml"}},
		{"bad log level", []string{"-log-level", "loud", "a.yaml"}},
		{"unknown flag", []string{"-nope"}},
		{"bad parallel", []string{"-parallel", "0", "a.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "eventmix dev")
}
