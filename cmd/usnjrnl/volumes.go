package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/volume"
)

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List local volumes and their serials",
	Long: `Enumerates all locally visible volumes and prints the serial-to-path
map the other commands resolve against. Serials observed on more than
one volume are ambiguous and excluded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := volume.Discover(device.Default())
		if err != nil {
			return err
		}
		if registry.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no volumes found")
			return nil
		}
		for _, serial := range registry.Serials() {
			path, _, err := registry.Lookup(serial)
			if err != nil {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%016x  %s\n", serial, path.Share())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(volumesCmd)
}
