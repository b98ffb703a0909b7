package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "formflow",
		Short:         "Inspect and run dynamic form descriptors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInspectCommand(), newFillCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "formflow:", err)
		os.Exit(1)
	}
}
