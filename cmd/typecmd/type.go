// Package typecmd implements "drgo type": parse a C type name against an
// indexed program's types and print the resulting declaration, exercising
// C5's parser and pretty-printer against a real DWARF-backed TypeResolver.
package typecmd

import (
	"fmt"

	"github.com/Manu343726/drgo/pkg/cexpr"
	"github.com/Manu343726/drgo/pkg/drgosession"
	"github.com/spf13/cobra"
)

var expand bool

// TypeCmd resolves a C type name (e.g. "struct foo *", "const int[4]")
// against the binaries' combined type information and prints it back out.
var TypeCmd = &cobra.Command{
	Use:   "type typename binaries...",
	Short: "Parse and print a C type name resolved against indexed binaries",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, binaries := args[0], args[1:]

		log, err := drgosession.NewLogger()
		if err != nil {
			return err
		}

		prog, err := drgosession.Open(binaries, drgosession.IndexFlags(), log)
		if err != nil {
			return err
		}
		defer prog.Close()

		parser, err := cexpr.NewParser(typeName, prog)
		if err != nil {
			return err
		}

		qt, err := parser.ParseTypeName()
		if err != nil {
			return err
		}

		printer := cexpr.Printer{}
		decl, err := printer.Declaration(qt, "")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), decl)

		if expand {
			def, err := printer.Definition(qt.Type)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), def)
		}
		return nil
	},
}

func init() {
	TypeCmd.Flags().BoolVar(&expand, "expand", false, "also print the full struct/union/enum definition")
}
