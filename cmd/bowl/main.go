// Command bowl is the reference host for the bowl virtual machine.
package main

import (
	"fmt"
	"os"

	"github.com/mwantia/bowl/cmd/bowl/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})
	root.AddCommand(cli.NewVersionCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
