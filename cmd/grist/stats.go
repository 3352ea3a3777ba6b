package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpl-au/grist"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [file...]",
		Short: "Display file statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			for _, path := range inputPaths(args) {
				in, err := grist.OpenInput(path, logger)
				if err != nil {
					return err
				}
				st, serr := grist.CollectStats(in)
				in.Close()
				if serr != nil {
					return serr
				}
				printStats(cmd.OutOrStdout(), st)
			}
			return nil
		},
	}
}

func printStats(w io.Writer, st *grist.Stats) {
	fmt.Fprintf(w, "%s: %s, %d bytes, %d records\n", st.Name, st.Format, st.Bytes, st.Records)
	if st.Header != nil {
		fmt.Fprintf(w, "  format version %d, stream %s, checksum alg %d, created %s\n",
			st.Header.Version, st.Header.StreamID, st.Header.Algorithm,
			time.UnixMilli(st.Header.Timestamp).UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "  frames %d (dict resets %d, adds %d), value bytes %d, dict bytes %d\n",
			st.Frames, st.DictResets, st.DictAdds, st.ValueBytes, st.DictBytes)
	}
	v := st.Values
	fmt.Fprintf(w, "  values: %d null, %d bool, %d int, %d uint, %d double, %d time, %d string, %d dictref, %d object, %d array\n",
		v.Nulls, v.Bools, v.Ints, v.Uints, v.Doubles, v.Times, v.Strings, v.DictRefs, v.Objects, v.Arrays)
}
