// Package indexcmd implements "drgo index": open a batch of ELF binaries,
// apply relocations and build the DWARF name index, then report what got
// indexed. It exists mostly to exercise and sanity-check C1/C2 from the
// command line before a type or object lookup depends on them.
package indexcmd

import (
	"fmt"
	"sort"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/drgosession"
	"github.com/Manu343726/drgo/pkg/scanmanifest"
	"github.com/spf13/cobra"
)

var manifestPath string

// IndexCmd indexes one or more ELF files and prints a per-tag entry count.
// Binaries can be named on the command line or, via --manifest, in a
// declarative scan manifest (a yaml.v3 document listing paths and which
// DIE kinds to index for each).
var IndexCmd = &cobra.Command{
	Use:   "index [binaries...]",
	Short: "Index the DWARF debug information of one or more ELF binaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		flags := drgosession.IndexFlags()

		if manifestPath != "" {
			manifest, err := scanmanifest.Load(manifestPath)
			if err != nil {
				return drgerr.Wrap(drgerr.InvalidArgument, err, "failed to load manifest %q", manifestPath)
			}
			paths = append(paths, manifest.Paths()...)
			flags = manifest.Flags()
		}
		if len(paths) == 0 {
			return drgerr.New(drgerr.InvalidArgument, "no binaries given: pass paths or --manifest")
		}

		log, err := drgosession.NewLogger()
		if err != nil {
			return err
		}

		prog, err := drgosession.Open(paths, flags, log)
		if err != nil {
			return err
		}
		defer prog.Close()

		entries := prog.Index.All()
		log.Info("indexing complete", "entries", len(entries), "files", len(paths))

		byTag := make(map[string]int)
		for _, e := range entries {
			byTag[e.Tag.String()]++
		}

		for _, tag := range sortedKeys(byTag) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", tag, byTag[tag])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries across %d files\n", len(entries), len(paths))
		return nil
	},
}

func init() {
	IndexCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to a yaml scan manifest listing binaries to index")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
