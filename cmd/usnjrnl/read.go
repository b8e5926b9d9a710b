package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/volwatch/usnjrnl/pkg/journal"
	"github.com/volwatch/usnjrnl/pkg/usn"
)

var (
	flagStartUsn   uint64
	flagEndUsn     uint64
	flagExtraReads int
	flagTimeLimit  time.Duration
	flagMaxRecords int
)

var readCmd = &cobra.Command{
	Use:   "read <volume-serial>",
	Short: "Page through journal records from a cursor",
	Long: `Reads change records from the volume's journal starting at --start
(the journal's first USN when omitted). The read stops at --end when
given, at --limit of wall-clock time, after --max records, or at the
end of currently available journal data.`,
	Args: cobra.ExactArgs(1),
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
		if status != journal.QuerySuccess {
			return fmt.Errorf("journal unavailable: %s", status)
		}

		policy, err := cfg.ReadConfigFor(serial)
		if err != nil {
			return err
		}

		opts := journal.ReadOptions{
			JournalID:  data.JournalID,
			StartUsn:   data.FirstUsn,
			EndUsn:     usn.Usn(flagEndUsn),
			ExtraReads: policy.ExtraReads,
			ReasonMask: usn.Reason(policy.ReasonMask),
			BufferSize: policy.BufferSize,
		}
		if cmd.Flags().Changed("start") {
			opts.StartUsn = usn.Usn(flagStartUsn)
		}
		if cmd.Flags().Changed("extra-reads") {
			opts.ExtraReads = flagExtraReads
		}
		limit := policy.TimeLimit
		if cmd.Flags().Changed("limit") {
			limit = flagTimeLimit
		}
		if limit > 0 {
			opts.Deadline = time.Now().Add(limit)
		}

		out := cmd.OutOrStdout()
		shown := 0
		res, err := sess.Read(serial, opts, func(r usn.Record) error {
			if flagMaxRecords > 0 && shown >= flagMaxRecords {
				return errTruncated
			}
			fmt.Fprintln(out, r.String())
			shown++
			return nil
		})
		if err != nil && err != errTruncated {
			return err
		}

		fmt.Fprintf(out, "status: %s  next usn: %s  records: %d", res.Status, res.NextUsn, res.Records)
		if res.TimedOut {
			fmt.Fprint(out, "  (time limit reached)")
		}
		fmt.Fprintln(out)
		return nil
	},
}

var errTruncated = fmt.Errorf("record limit reached")

func init() {
	readCmd.Flags().Uint64Var(&flagStartUsn, "start", 0, "start cursor (default: journal first USN)")
	readCmd.Flags().Uint64Var(&flagEndUsn, "end", 0, "stop once the cursor reaches this USN")
	readCmd.Flags().IntVar(&flagExtraReads, "extra-reads", 0, "extra physical reads allowed past --end")
	readCmd.Flags().DurationVar(&flagTimeLimit, "limit", 0, "soft wall-clock time limit (0 = none)")
	readCmd.Flags().IntVar(&flagMaxRecords, "max", 0, "print at most this many records (0 = all)")
	rootCmd.AddCommand(readCmd)
}
