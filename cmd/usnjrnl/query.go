package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/volwatch/usnjrnl/pkg/journal"
)

var queryCmd = &cobra.Command{
	Use:   "query <volume-serial>",
	Short: "Query journal metadata for a volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial, err := parseSerial(args[0])
		if err != nil {
			return err
		}
		sess, done, err := newSession()
		if err != nil {
			return err
		}
		defer done()

		data, status, err := sess.Query(serial)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status:           %s\n", status)
		if status != journal.QuerySuccess {
			return nil
		}
		fmt.Fprintf(out, "journal id:       %#x\n", data.JournalID)
		fmt.Fprintf(out, "first usn:        %s\n", data.FirstUsn)
		fmt.Fprintf(out, "next usn:         %s\n", data.NextUsn)
		fmt.Fprintf(out, "lowest valid usn: %s\n", data.LowestValidUsn)
		fmt.Fprintf(out, "max usn:          %s\n", data.MaxUsn)
		fmt.Fprintf(out, "maximum size:     %d bytes\n", data.MaximumSize)
		fmt.Fprintf(out, "allocation delta: %d bytes\n", data.AllocationDelta)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
