package scanmanifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFlagsDefaultsToAll(t *testing.T) {
	e := Entry{Path: "a.out"}
	assert.Equal(t, dwarfidx.IndexAll, e.Flags())
}

func TestEntryFlagsSelectsNamedKinds(t *testing.T) {
	e := Entry{Path: "a.out", Kinds: []string{"types", "functions"}}
	assert.Equal(t, dwarfidx.IndexTypes|dwarfidx.IndexFunctions, e.Flags())
}

func TestEntryFlagsIgnoresUnknownKind(t *testing.T) {
	e := Entry{Path: "a.out", Kinds: []string{"types", "bogus"}}
	assert.Equal(t, dwarfidx.IndexTypes, e.Flags())
}

func TestManifestFlagsUnionsEntries(t *testing.T) {
	m := &Manifest{Binaries: []Entry{
		{Path: "a.out", Kinds: []string{"types"}},
		{Path: "b.out", Kinds: []string{"variables"}},
	}}
	assert.Equal(t, dwarfidx.IndexTypes|dwarfidx.IndexVariables, m.Flags())
}

func TestLoadDecodesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.yaml")
	content := "binaries:\n  - path: /bin/a.out\n    kinds: [types, variables]\n  - path: /bin/b.out\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Binaries, 2)
	assert.Equal(t, "/bin/a.out", m.Binaries[0].Path)
	assert.Equal(t, []string{"types", "variables"}, m.Binaries[0].Kinds)
	assert.Equal(t, []string{"/bin/a.out", "/bin/b.out"}, m.Paths())
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/scan.yaml")
	assert.Error(t, err)
}
