package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionInfo identifies the running build, set from main's linker-injected
// build-time variables.
type VersionInfo struct {
	Version string
	Commit  string
}

// NewVersionCommand reports VersionInfo as set on the root command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bowl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cmd.Root().Version)
			return nil
		},
	}
}
