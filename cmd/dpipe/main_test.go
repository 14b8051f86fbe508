package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunPipeline(t *testing.T) {
	dir := t.TempDir()
	cars := writeCSV(t, dir, "cars.csv", "cyl,hp\n4,90\n4,95\n6,110\n8,200\n")

	var stdout, stderr bytes.Buffer
	query := fmt.Sprintf("%q | group_by cyl | summarize hp = mean() | arrange hp desc", cars)
	code := run([]string{"-format", "csv", query}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "cyl,hp\n8,200\n6,110\n4,92.5\n", stdout.String())
}

func TestRunJoin(t *testing.T) {
	dir := t.TempDir()
	cars := writeCSV(t, dir, "cars.csv", "cyl,hp\n4,90\n6,110\n")
	labels := writeCSV(t, dir, "labels.csv", "cyl,label\n4,small\n")

	var stdout, stderr bytes.Buffer
	query := fmt.Sprintf("%q | left_join %q by cyl", cars, labels)
	code := run([]string{"-format=json", query}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "{\"cyl\":4,\"hp\":90,\"label\":\"small\"}\n{\"cyl\":6,\"hp\":110,\"label\":null}\n", stdout.String())
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	cars := writeCSV(t, dir, "cars.csv", "cyl,hp\n4,90\n")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: dpipe")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{fmt.Sprintf("%q | select mpg", cars)}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown column")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{fmt.Sprintf("%q | frobnicate", cars)}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "parse error")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{`"missing.csv"`}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "load error")

	assert.Empty(t, stdout.String())
}
