// Command drgo indexes ELF/DWARF binaries and exposes their type and
// object information on the command line.
package main

import "github.com/Manu343726/drgo/cmd"

func main() {
	cmd.Execute()
}
