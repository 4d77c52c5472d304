// Command labeltree converts label hierarchy files between the
// CaretHierarchy XML format and the JSON hierarchy format, and prints
// hierarchies for inspection.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dhananjhay/labeltree"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "labeltree",
		Short:         "Inspect and convert label hierarchy files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConvertCmd())
	root.AddCommand(newShowCmd())
	return root
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a hierarchy between XML and JSON, by file extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hier := labeltree.NewHierarchy()
			if err := readHierarchy(hier, args[0]); err != nil {
				return err
			}
			return writeHierarchy(hier, args[1])
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <input>",
		Short: "Print a hierarchy as an indented tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hier := labeltree.NewHierarchy()
			if err := readHierarchy(hier, args[0]); err != nil {
				return err
			}
			printItems(cmd, hier.Root().Children, "")
			return nil
		},
	}
}

func printItems(cmd *cobra.Command, items []labeltree.Item, indent string) {
	for i := range items {
		item := &items[i]
		if item.ID != "" {
			cmd.Printf("%s%s [%s]\n", indent, item.Name, item.ID)
		} else {
			cmd.Printf("%s%s\n", indent, item.Name)
		}
		if item.ExtraInfo != nil {
			for _, pair := range item.ExtraInfo.All() {
				cmd.Printf("%s  %s = %s\n", indent, pair.Key, pair.Value)
			}
		}
		printItems(cmd, item.Children, indent+"   ")
	}
}

func readHierarchy(hier *labeltree.Hierarchy, filename string) error {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xml":
		return hier.ReadXMLFile(filename)
	case ".json":
		return hier.ReadJSONFile(filename)
	default:
		return fmt.Errorf("unsupported input extension %q (want .xml or .json)", ext)
	}
}

func writeHierarchy(hier *labeltree.Hierarchy, filename string) error {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xml":
		return hier.WriteXMLFile(filename)
	case ".json":
		return hier.WriteJSONFile(filename)
	default:
		return fmt.Errorf("unsupported output extension %q (want .xml or .json)", ext)
	}
}
