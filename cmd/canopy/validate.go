package main

import (
	"fmt"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition.yaml>",
	Short: "Check a definition for structural errors",
	Long: `Builds the state tree and reports every structural problem found: missing
start states, destinations that resolve to no state, undeclared events and
misuse of reserved names. With --builtins, actions other than the built-ins
are reported too. States that can never be entered are listed as warnings,
and fail validation with --strict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		builtinsOnly, _ := cmd.Flags().GetBool("builtins")
		strict, _ := cmd.Flags().GetBool("strict")

		def, err := file.NewLoader(args[0]).LoadDefinition(cmd.Context())
		if err != nil {
			return err
		}

		reg := registry.New()
		tree, errs := canopy.Build(def, reg)
		out := cmd.OutOrStdout()
		for _, err := range errs {
			fmt.Fprintf(out, "  - %v\n", err)
		}

		var unreachable []string
		if len(errs) == 0 {
			unreachable = validator.Unreachable(tree)
			for _, path := range unreachable {
				fmt.Fprintf(out, "  ~ state '%s' is never entered\n", path)
			}
		}

		var missing []string
		if builtinsOnly && len(errs) == 0 {
			m, err := canopy.New(def, reg, canopy.WithBuiltins())
			if err != nil {
				return err
			}
			missing = m.Registry().Missing(def.ActionNames()...)
			for _, name := range missing {
				fmt.Fprintf(out, "  - action '%s' is not a built-in\n", name)
			}
		}

		n := len(errs) + len(missing)
		if strict {
			n += len(unreachable)
		}
		if n > 0 {
			return fmt.Errorf("%s: %d problem(s) found", args[0], n)
		}
		fmt.Fprintf(out, "%s is valid\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("builtins", true, "Require every action to be a built-in")
	validateCmd.Flags().Bool("strict", false, "Treat unreachable states as errors")
}
