package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Mode    string // "html" | "xml"
}

// ValidModes defines the allowed markup modes.
var ValidModes = []string{"html", "xml"}

// NewRootCommand creates the root command for the weft CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "weft",
		Short: "weft - server-side template rendering",
		Long:  "Renders markup templates by executing attribute directives over a document event stream.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidMode(opts.Mode) {
				return fmt.Errorf("invalid mode %q: must be one of %v", opts.Mode, ValidModes)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Mode, "mode", "html", "markup mode (html|xml)")

	cmd.AddCommand(NewRenderCommand(opts))

	return cmd
}

func isValidMode(mode string) bool {
	for _, m := range ValidModes {
		if m == mode {
			return true
		}
	}
	return false
}
