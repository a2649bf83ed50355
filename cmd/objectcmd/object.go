// Package objectcmd implements "drgo object": look up a global variable or
// function by name against indexed binaries and print its value, exercising
// C4's object layer (including a reference bound to a fixed DW_OP_addr
// location) through C5's pretty-printer.
package objectcmd

import (
	"debug/dwarf"
	"fmt"

	"github.com/Manu343726/drgo/pkg/cexpr"
	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/drgosession"
	"github.com/Manu343726/drgo/pkg/object"
	"github.com/spf13/cobra"
)

var columnBudget int

// ObjectCmd resolves name to a variable or function DIE and prints its
// value (or, for a function, its declaration).
var ObjectCmd = &cobra.Command{
	Use:   "object name binaries...",
	Short: "Look up a global object by name and print its value",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, binaries := args[0], args[1:]

		log, err := drgosession.NewLogger()
		if err != nil {
			return err
		}

		prog, err := drgosession.Open(binaries, drgosession.IndexFlags(), log)
		if err != nil {
			return err
		}
		defer prog.Close()

		entries := prog.Lookup(name, dwarf.TagVariable, dwarf.TagSubprogram)
		if len(entries) == 0 {
			return drgerr.New(drgerr.Lookup, "no object named %q in %v", name, binaries)
		}

		obj, err := prog.ObjectOf(entries[0])
		if err != nil {
			return err
		}

		decl, err := (cexpr.Printer{}).Declaration(obj.Type, name)
		if err != nil {
			return err
		}

		if obj.Kind == object.KindNone {
			fmt.Fprintln(cmd.OutOrStdout(), decl)
			return nil
		}

		value, err := cexpr.PrintValue(obj, columnBudget)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", decl, value)
		return nil
	},
}

func init() {
	ObjectCmd.Flags().IntVar(&columnBudget, "width", drgosession.ColumnBudget(), "column budget before switching to multi-line output")
}
