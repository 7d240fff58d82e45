package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileGivesFallbacks(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "none.json"))

	assert.Equal(t, 900, p.Int(KeyWindowWidth, 900))
	assert.Equal(t, 1.5, p.Float("zoom", 1.5))
	assert.Equal(t, "0", p.String("device", "0"))
	assert.True(t, p.Bool(KeyShowResults, true))
}

func TestSave_RoundTripsThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.json")
	p := LoadFrom(path)
	p.SetInt(KeyWindowWidth, 1024)
	p.SetInt(KeyWindowHeight, 700)
	p.SetBool(KeyShowResults, false)
	p.SetString("device", "/tmp/clip.mp4")
	p.SetFloat("zoom", 0.75)
	require.NoError(t, p.Save())

	again := LoadFrom(path)
	assert.Equal(t, 1024, again.Int(KeyWindowWidth, 0))
	assert.Equal(t, 700, again.Int(KeyWindowHeight, 0))
	assert.False(t, again.Bool(KeyShowResults, true))
	assert.Equal(t, "/tmp/clip.mp4", again.String("device", ""))
	assert.Equal(t, 0.75, again.Float("zoom", 0))
	assert.Equal(t, path, again.Path())
}

func TestLoadFrom_CorruptFileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFrom(path)
	assert.Equal(t, 5, p.Int("anything", 5))
}

func TestTypeMismatchUsesFallback(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "p.json"))
	p.SetString(KeyWindowWidth, "wide")
	assert.Equal(t, 640, p.Int(KeyWindowWidth, 640))
	assert.False(t, p.Bool(KeyWindowWidth, false))
}
