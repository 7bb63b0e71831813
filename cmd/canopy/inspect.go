package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/compiler"
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <definition.yaml>",
	Short: "Print the state tree of a definition",
	Long: `Prints every state as an indented tree with its transitions. With --yaml
the normalized definition is printed instead, in the sequence form accepted
by every command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")

		def, err := file.NewLoader(args[0]).LoadDefinition(cmd.Context())
		if err != nil {
			return err
		}
		if asYAML {
			data, err := compiler.Marshal(def)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		tree, errs := canopy.Build(def, nil)
		if len(errs) > 0 {
			return fmt.Errorf("%s: %w", args[0], errs[0])
		}
		printTree(cmd.OutOrStdout(), tree.Root())
		return nil
	},
}

func printTree(w io.Writer, s runtime.State) {
	indent := strings.Repeat("  ", s.Depth())
	marker := ""
	if s.IsTerminal() {
		marker = " (terminal)"
	}
	fmt.Fprintf(w, "%s%s%s\n", indent, s.Name(), marker)
	for _, tr := range s.Transitions() {
		guard := ""
		if len(tr.Conditions) > 0 {
			guard = fmt.Sprintf(" [%v]", tr.Conditions)
		}
		fmt.Fprintf(w, "%s  %s%s -> %s\n", indent, tr.Event, guard, tr.Target)
	}
	for _, child := range s.Children() {
		printTree(w, child)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("yaml", false, "Print the normalized definition as YAML")
}
