// Package drgosession is the CLI's composition root: it opens a batch of
// ELF files, applies cross-file relocations, indexes them and wires up a
// *program.Program the way the teacher's main.go (makeCpu) wires a MicroCpu
// out of independently-built components. Every cmd/* subcommand shares this
// instead of repeating the open/relocate/index dance on its own.
package drgosession

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/drgo/pkg/binfmt"
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/drgolog"
	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"github.com/Manu343726/drgo/pkg/program"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// defaultColumnBudget is PrintValue's fallback column budget when stdout
// isn't a terminal (piped output, so there's no "too wide for the window"
// to avoid).
const defaultColumnBudget = 80

// ColumnBudget returns the terminal width of stdout, or defaultColumnBudget
// when stdout isn't a terminal, for cmd/objectcmd's --width flag default.
func ColumnBudget() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultColumnBudget
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultColumnBudget
	}
	return width
}

// NewLogger builds the ambient logger from the persistent flags cmd/root.go
// binds into viper ("log-level", "log-file", "no-color"), so every
// subcommand gets identically configured logging without importing cmd
// itself (which would cycle back through this package).
func NewLogger() (*drgolog.Logger, error) {
	var level slog.Level
	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return drgolog.New(drgolog.Config{
		Level:   level,
		LogFile: viper.GetString("log-file"),
		NoColor: viper.GetBool("no-color"),
	})
}

// IndexFlags returns the index kinds every subcommand indexes: all of them,
// so every subcommand indexes the same tag set. It does not read the
// "shards" persistent flag bound by cmd/root.go; nothing does, and the
// Index's shard table has a fixed size.
func IndexFlags() dwarfidx.Flags {
	return dwarfidx.IndexAll
}

// Open builds a *program.Program over paths: each file is opened and
// registered with the index, relocations are applied across the whole
// batch in one parallel pass (each relocation resolves against its own
// file's symbol table), and the index is then updated.
// The returned Program's Memory reader is the last-opened file's own
// loaded sections, per binfmt.File.ReadMemory's "no live target" story;
// a caller attaching to a real process or core dump should overwrite
// Program.Memory itself before calling ObjectOf.
func Open(paths []string, flags dwarfidx.Flags, log *drgolog.Logger) (*program.Program, error) {
	if len(paths) == 0 {
		return nil, drgerr.New(drgerr.InvalidArgument, "no input files given")
	}

	prog := program.New(flags, program.DwarfResolver{}, nil)

	var files []*binfmt.File
	for _, path := range paths {
		log.Operation("open").Info("opening binary", "path", path)
		f, err := prog.OpenBinary(path)
		if err != nil {
			prog.Close()
			return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to open %q", path)
		}
		files = append(files, f)
		prog.Memory = f
	}

	log.Operation("relocate").Info("applying relocations", "files", len(files))
	if err := binfmt.ApplyRelocations(files); err != nil {
		prog.Close()
		return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to apply relocations")
	}

	log.Operation("index").Info("indexing binaries", "files", len(files))
	if err := prog.Update(); err != nil {
		prog.Close()
		return nil, drgerr.Wrap(drgerr.ELFFormat, err, "failed to index binaries")
	}

	return prog, nil
}

// FormatError renders err the way the CLI prints a failure to the user:
// a drgerr.Error's Kind tag prefixed, or a plain message for anything else.
func FormatError(err error) string {
	if de, ok := err.(*drgerr.Error); ok {
		return fmt.Sprintf("[%s] %s", de.Kind, de.Error())
	}
	return err.Error()
}
