// Package tools holds drgo miscellaneous CLI utilities, the same slot the
// teacher's cmd/tools fills for the CPU toolchain.
package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/drgo/pkg/utils"
	"github.com/spf13/cobra"
)

// ToolsCmd is the parent for miscellaneous drgo tooling.
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "drgo miscellaneous tools",
}

var componentDocs = map[string]string{
	"binfmt":   "C1 binary-format reader: ELF sections, byte-order detection, relocation application.",
	"dwarfidx": "C2 DWARF name index: sharded concurrent map from identifier to DIE entries.",
	"dtype":    "C3 type layer: qualifier algebra, lazy member/parameter resolution, structural equality.",
	"object":   "C4 object layer: values/references, bit-granularity access, casts and arithmetic.",
	"cexpr":    "C5 C front-end: type-name and member-designator parsing, conversions, operators.",
}

var docsCmd = &cobra.Command{
	Use:   "docs component",
	Short: "Show a one-line description of a drgo core component",
	Long: `Dumps a short description of the named drgo component.

Supported components:
` + strings.Join(utils.Map(utils.Keys(componentDocs), func(c string) string { return "  " + c }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.ExactArgs(1)),
	ValidArgs: utils.Keys(componentDocs),
	Run: func(cmd *cobra.Command, args []string) {
		outputFile, _ := cmd.Flags().GetString("output")
		text := componentDocs[args[0]]
		if outputFile != "" {
			file, err := os.Create(outputFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error creating file:", err)
				os.Exit(1)
			}
			defer file.Close()
			fmt.Fprintln(file, text)
			return
		}
		fmt.Println(text)
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the description is dumped to stdout.")
}
