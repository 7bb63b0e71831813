package main

import (
	"fmt"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <definition.yaml>",
	Short: "Render a markdown description of a machine",
	Long:  `Describes every state of a definition with its actions and transitions, rendered for the terminal. Use --raw for plain markdown.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		width, _ := cmd.Flags().GetInt("width")

		def, err := file.NewLoader(args[0]).LoadDefinition(cmd.Context())
		if err != nil {
			return err
		}
		tree, errs := canopy.Build(def, nil)
		if len(errs) > 0 {
			return fmt.Errorf("%s: %w", args[0], errs[0])
		}

		md := tui.Describe(tree)
		if !raw {
			render, err := tui.NewRenderer(width)
			if err != nil {
				return err
			}
			if md, err = render(md); err != nil {
				return err
			}
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("raw", false, "Print markdown without rendering")
	describeCmd.Flags().Int("width", 0, "Word wrap width")
}
