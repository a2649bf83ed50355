// Package scanmanifest decodes the declarative "what to index" file the
// index subcommand accepts as an alternative to listing binaries on the
// command line: a list of ELF paths plus which DIE kinds to index for each.
// This is a separate decoding job from viper's own config-file handling
// (program-wide settings like shard count or log level); a manifest
// describes one indexing run's inputs, not the tool's configuration.
package scanmanifest

import (
	"os"

	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"gopkg.in/yaml.v3"
)

// Entry names one binary to index and which DIE kinds matter for it. An
// empty Kinds list means "everything" (dwarfidx.IndexAll).
type Entry struct {
	Path  string   `yaml:"path"`
	Kinds []string `yaml:"kinds,omitempty"`
}

// Manifest is the top-level shape of a scan manifest file.
type Manifest struct {
	Binaries []Entry `yaml:"binaries"`
}

var kindNames = map[string]dwarfidx.Flags{
	"types":       dwarfidx.IndexTypes,
	"variables":   dwarfidx.IndexVariables,
	"enumerators": dwarfidx.IndexEnumerators,
	"functions":   dwarfidx.IndexFunctions,
}

// Flags resolves an entry's Kinds list to the matching dwarfidx.Flags
// bitmask, defaulting to dwarfidx.IndexAll when Kinds is empty. An unknown
// kind name is ignored rather than rejected, since a manifest written
// against a future drgo version may name a kind this build doesn't have.
func (e Entry) Flags() dwarfidx.Flags {
	if len(e.Kinds) == 0 {
		return dwarfidx.IndexAll
	}
	var flags dwarfidx.Flags
	for _, name := range e.Kinds {
		flags |= kindNames[name]
	}
	return flags
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Paths returns every binary path named in the manifest, in order.
func (m *Manifest) Paths() []string {
	paths := make([]string, len(m.Binaries))
	for i, e := range m.Binaries {
		paths[i] = e.Path
	}
	return paths
}

// Flags ORs every entry's Flags together. dwarfidx.Index selects which DIE
// kinds it indexes once, for the whole index, not per file, so a manifest
// mixing kinds across binaries gets the union of what any entry asked for.
func (m *Manifest) Flags() dwarfidx.Flags {
	var flags dwarfidx.Flags
	for _, e := range m.Binaries {
		flags |= e.Flags()
	}
	return flags
}
