package config

import (
	"bytes"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"cars.csv | head 3"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, Config{Query: "cars.csv | head 3", Format: "table"}, cfg)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{"-format", "json", "-max-rows=5", "-debug", "cars.csv"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 5, cfg.MaxRows)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Pretty)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DPIPE_FORMAT", "csv")
	t.Setenv("DPIPE_MAX_ROWS", "10")
	t.Setenv("PRETTY", "1")
	t.Setenv("DEBUG", "1")

	cfg, err := Load([]string{"cars.csv"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, 10, cfg.MaxRows)
	assert.True(t, cfg.Pretty)
	assert.True(t, cfg.Debug)

	cfg, err = Load([]string{"-format=table", "cars.csv"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Format)

	t.Setenv("DPIPE_MAX_ROWS", "many")
	_, err = Load([]string{"cars.csv"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "DPIPE_MAX_ROWS")
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "Query")

	_, err = Load([]string{"-format", "xml", "cars.csv"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "Format")

	_, err = Load([]string{"-max-rows", "-1", "cars.csv"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "MaxRows")

	_, err = Load([]string{"a.csv", "b.csv"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestLoadHelp(t *testing.T) {
	var stderr bytes.Buffer
	_, err := Load([]string{"-h"}, &stderr)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "usage: dpipe")
}
