package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestones/internal/layout"
)

func writeCSV(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plan.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeCSV(t, dir, "date,description,status\n2024-02-23,Genehmigung der DA,done\n")
	out := filepath.Join(dir, "timeline.png")

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"one argument", []string{in}},
		{"three arguments", []string{in, out, "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stderr)

			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr.String(), "Usage: milestones")
			_, err := os.Stat(out)
			assert.True(t, errors.Is(err, os.ErrNotExist))
		})
	}
}

func TestRunUnknownFlag(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-nope", "a.csv", "b.png"}, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "-nope")
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "Usage: milestones")
}

func TestRunRendersImage(t *testing.T) {
	t.Setenv("MILESTONES_DPI", "30")
	dir := t.TempDir()
	in := writeCSV(t, dir, "date,description,status\n2024-02-23,Genehmigung der DA,done\n2024-05-01,Kickoff,open\n")
	out := filepath.Join(dir, "out", "timeline.png")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-dump", in, out}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	_, err := os.Stat(out)
	assert.NoError(t, err)
	_, err = os.Stat(out + ".layout.yaml")
	assert.NoError(t, err)
}

func TestRunFailures(t *testing.T) {
	t.Setenv("MILESTONES_DPI", "30")
	dir := t.TempDir()
	in := writeCSV(t, dir, "date,description,status\n2024-13-01,Broken,open\n")
	out := filepath.Join(dir, "timeline.png")

	var stderr bytes.Buffer
	assert.Equal(t, exitFail, run(context.Background(), []string{in, out}, &stderr))
	_, err := os.Stat(out)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	t.Setenv("MILESTONES_MAX_LANE", "-1")
	assert.Equal(t, exitFail, run(context.Background(), []string{in, out}, &stderr))
}

func TestUsageErrorMessage(t *testing.T) {
	err := &UsageError{Args: []string{"a", "b", "c"}}
	assert.Equal(t, "expected 2 arguments (input, output), got 3", err.Error())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "render failed", describe(errors.New("x")))
	assert.Equal(t, "image too tall", describe(fmt.Errorf("%w: 40000 px", layout.ErrTooTall)))
}
