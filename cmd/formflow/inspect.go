package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/descriptor"
)

func newInspectCommand() *cobra.Command {
	var resolve bool

	cmd := &cobra.Command{
		Use:   "inspect <descriptor>",
		Short: "Load a descriptor, optionally resolve repeatable references, and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDescriptor(cmd, args[0])
			if err != nil {
				return err
			}

			if resolve {
				d, err = formflow.Resolve(d)
				if err != nil {
					return err
				}
			}

			out, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if ids := descriptor.DiscriminantFields(d); len(ids) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "discriminant fields: %s\n", strings.Join(ids, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", true, "expand repeatable block references")
	return cmd
}

func loadDescriptor(cmd *cobra.Command, location string) (formflow.GlobalFormDescriptor, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return formflow.LoadDescriptorURL(cmd.Context(), location)
	}
	return formflow.LoadDescriptorFile(cmd.Context(), location)
}
