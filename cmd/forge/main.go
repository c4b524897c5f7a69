package main

import (
	"fmt"
	"os"

	"github.com/forgeplatform/forge/pkg/core"
	"github.com/forgeplatform/forge/pkg/infra"
	"github.com/spf13/cobra"
)

func main() {
	iac := &infra.IacCli{}
	root := &cobra.Command{Use: "forge", SilenceErrors: true}
	err := iac.AddIacCli(root)
	if err != nil {
		panic(err)
	}
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, core.ErrorString(err))
		os.Exit(1)
	}
}
