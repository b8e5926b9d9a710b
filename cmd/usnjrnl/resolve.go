package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/identity"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve the stable identity of a file",
	Long: `Resolves the (volume serial, file reference number, change cursor)
identity of a file. Fails when the file has no versioned identity —
the journal is disabled on its volume or the file predates it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := identity.Resolve(device.Default(), args[0])
		if err != nil {
			if errors.Is(err, identity.ErrNoIdentity) {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "volume serial: %016x", id.VolumeSerial)
		if id.ShortSerialOnly {
			fmt.Fprint(out, " (short form)")
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "file id:       %s\n", id.FileID)
		fmt.Fprintf(out, "usn:           %s\n", id.Record.Usn)
		fmt.Fprintf(out, "reason:        %s\n", id.Record.Reason)
		if name := id.Record.Name(); name != "" {
			fmt.Fprintf(out, "name:          %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
