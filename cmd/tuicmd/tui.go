// Package tuicmd implements "drgo browse": an interactive terminal tree of
// every indexed DIE, grouped by tag, with a detail pane showing the
// resolved type or object for whatever is selected. It is the one surface
// in this CLI that wires rivo/tview and gdamore/tcell/v2, the teacher's
// unused-but-declared TUI stack.
package tuicmd

import (
	"debug/dwarf"
	"fmt"
	"sort"

	"github.com/Manu343726/drgo/pkg/cexpr"
	"github.com/Manu343726/drgo/pkg/drgosession"
	"github.com/Manu343726/drgo/pkg/dtype"
	"github.com/Manu343726/drgo/pkg/dwarfidx"
	"github.com/Manu343726/drgo/pkg/object"
	"github.com/Manu343726/drgo/pkg/program"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

// BrowseCmd opens an interactive tree view over every indexed entry across
// the given binaries.
var BrowseCmd = &cobra.Command{
	Use:   "browse binaries...",
	Short: "Browse indexed types and objects in a terminal UI",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := drgosession.NewLogger()
		if err != nil {
			return err
		}

		prog, err := drgosession.Open(args, drgosession.IndexFlags(), log)
		if err != nil {
			return err
		}
		defer prog.Close()

		return run(prog)
	},
}

func run(prog *program.Program) error {
	app := tview.NewApplication()

	detail := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	detail.SetBorder(true).SetTitle("Detail")

	root := tview.NewTreeNode("entries").SetColor(tcell.ColorYellow)
	tree := tview.NewTreeView().SetRoot(root).SetCurrentNode(root)
	tree.SetBorder(true).SetTitle("Indexed entries")

	byTag := groupByTag(prog.Index.All())
	for _, tag := range sortedTags(byTag) {
		tagNode := tview.NewTreeNode(fmt.Sprintf("%s (%d)", tag, len(byTag[tag]))).
			SetColor(tcell.ColorGreen).
			SetSelectable(true)
		root.AddChild(tagNode)

		for _, entry := range byTag[tag] {
			label := fmt.Sprintf("0x%x @ %s", entry.Offset, entry.BinaryFile().Path)
			leaf := tview.NewTreeNode(label).SetReference(entry).SetSelectable(true)
			tagNode.AddChild(leaf)
		}
	}

	tree.SetSelectedFunc(func(node *tview.TreeNode) {
		entry, ok := node.GetReference().(dwarfidx.Entry)
		if !ok {
			node.SetExpanded(!node.IsExpanded())
			return
		}
		detail.SetText(describe(prog, entry))
	})

	flex := tview.NewFlex().
		AddItem(tree, 0, 1, true).
		AddItem(detail, 0, 2, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(flex, true).SetFocus(tree).Run()
}

func groupByTag(entries []dwarfidx.Entry) map[string][]dwarfidx.Entry {
	out := make(map[string][]dwarfidx.Entry)
	for _, e := range entries {
		out[e.Tag.String()] = append(out[e.Tag.String()], e)
	}
	return out
}

func sortedTags(m map[string][]dwarfidx.Entry) []string {
	tags := make([]string, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// describe resolves entry to a type or object and renders it for the
// detail pane, falling back to the raw error text if resolution fails
// (e.g. a location this core doesn't evaluate, per spec.md's CFI scoping).
func describe(prog *program.Program, entry dwarfidx.Entry) string {
	switch entry.Tag {
	case dwarf.TagVariable, dwarf.TagSubprogram:
		obj, err := prog.ObjectOf(entry)
		if err != nil {
			return fmt.Sprintf("[red]%s", err)
		}
		decl, err := (cexpr.Printer{}).Declaration(obj.Type, "")
		if err != nil {
			return fmt.Sprintf("[red]%s", err)
		}
		if obj.Kind == object.KindNone {
			return decl
		}
		value, err := cexpr.PrintValue(obj, 60)
		if err != nil {
			return decl + "\n[red]" + err.Error()
		}
		return decl + " = " + value

	default:
		t, err := prog.TypeOf(entry)
		if err != nil {
			return fmt.Sprintf("[red]%s", err)
		}
		def, err := (cexpr.Printer{}).Definition(t)
		if err != nil {
			decl, declErr := (cexpr.Printer{}).Declaration(dtype.QualifiedType{Type: t}, "")
			if declErr != nil {
				return fmt.Sprintf("[red]%s", err)
			}
			return decl
		}
		return def
	}
}
