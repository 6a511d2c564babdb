package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRecord(t *testing.T) {
	p := &phase{name: "record"}
	checkRecord(p, []byte(`{"hourly":{"temperature_2m":[10.1,10.3]}}`))
	assert.True(t, p.passed(), p.errors)
}

func TestCheckRecord_NotJSON(t *testing.T) {
	p := &phase{name: "record"}
	checkRecord(p, []byte("not json"))
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "decode forecast document")
}

func TestValidateSamplingRules(t *testing.T) {
	assert.True(t, validateSamplingRules("").passed())
	assert.True(t, validateSamplingRules(filepath.Join("..", "..", "deploy", "sampling-rules.json")).passed())

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 2, "default": {"fixed_target": 0, "rate": 0}}`), 0o600))
	p := validateSamplingRules(path)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "samples nothing")

	assert.False(t, validateSamplingRules(filepath.Join(t.TempDir(), "absent.json")).passed())
}
