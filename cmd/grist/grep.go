package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpl-au/grist"
)

func newGrepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grep [flags] [file...]",
		Short: "Find records matching a pattern",
		Long: "Scan records for values matching a structured pattern. Exactly one value\n" +
			"pattern must be given. With --bisect, files whose records are ordered by\n" +
			"the patterned value are searched by binary section instead of linearly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			for _, path := range inputPaths(args) {
				pat, err := patternFromFlags(cmd)
				if err != nil {
					return err
				}
				in, err := grist.OpenInput(path, logger)
				if err != nil {
					return err
				}
				g := in.Grepper(pat, os.Stdout, logger)
				runErr := g.Run()
				in.Close()
				if runErr != nil {
					return runErr
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("key", "k", "", "only match values under this exact key")
	f.Int64P("int", "i", 0, "match this integer value")
	f.Uint64P("uint", "u", 0, "match this unsigned integer value")
	f.Float64P("float", "f", 0, "match this float value (bit-exact)")
	f.StringP("str", "s", "", "match strings containing this text")
	f.BoolP("full-match", "F", false, "string pattern must equal the whole value")
	f.StringP("atom", "a", "", "match this atom: null, true or false")
	f.StringP("time", "t", "", "match timestamps in this interval or prefix")
	f.BoolP("count", "c", false, "print only the number of matches")
	f.Uint64P("max-count", "m", 0, "stop after this many matches")
	f.IntP("before-context", "B", 0, "records of leading context")
	f.IntP("after-context", "A", 0, "records of trailing context")
	f.IntP("context", "C", 0, "records of context before and after")
	f.BoolP("bisect", "b", false, "binary search an ordered, seekable file")
	f.Int64("scan-suffix", 0, "give up this many bytes past the last match")

	return cmd
}

// patternFromFlags builds a fresh Pattern for one input. Fresh per file
// because the bisect driver adjusts the scan budget in place.
func patternFromFlags(cmd *cobra.Command) (*grist.Pattern, error) {
	f := cmd.Flags()
	pat := &grist.Pattern{}

	valuePatterns := 0

	if f.Changed("key") {
		k, _ := f.GetString("key")
		pat.Key = &k
	}
	if f.Changed("int") {
		v, _ := f.GetInt64("int")
		pat.Int = &v
		// Non-negative integers are unsigned on the wire, in both
		// flavours; match them too.
		if v >= 0 {
			u := uint64(v)
			pat.Uint = &u
		}
		valuePatterns++
	}
	if f.Changed("uint") {
		v, _ := f.GetUint64("uint")
		pat.Uint = &v
		valuePatterns++
	}
	if f.Changed("float") {
		v, _ := f.GetFloat64("float")
		pat.Double = &v
		valuePatterns++
	}
	if f.Changed("str") {
		s, _ := f.GetString("str")
		full, _ := f.GetBool("full-match")
		pat.Str = &grist.StrPattern{Needle: s, FullMatch: full}
		valuePatterns++
	}
	if f.Changed("atom") {
		s, _ := f.GetString("atom")
		var atom grist.Atom
		switch s {
		case "null":
			atom = grist.AtomNull
		case "true":
			atom = grist.AtomTrue
		case "false":
			atom = grist.AtomFalse
		default:
			return nil, fmt.Errorf("unknown atom %q: want null, true or false", s)
		}
		pat.Atom = &atom
		valuePatterns++
	}
	if f.Changed("time") {
		s, _ := f.GetString("time")
		tr, err := grist.ParseTimeRange(s)
		if err != nil {
			return nil, err
		}
		pat.Time = &tr
		valuePatterns++
	}

	if valuePatterns != 1 {
		return nil, fmt.Errorf("exactly one value pattern required, got %d: %w",
			valuePatterns, grist.ErrNoPattern)
	}

	if f.Changed("max-count") {
		n, _ := f.GetUint64("max-count")
		pat.NumMatches = &n
	}
	if f.Changed("scan-suffix") {
		n, _ := f.GetInt64("scan-suffix")
		pat.ScanSuffix = &n
	}
	if f.Changed("context") {
		n, _ := f.GetInt("context")
		pat.BeforeContext, pat.AfterContext = n, n
	}
	if f.Changed("before-context") {
		pat.BeforeContext, _ = f.GetInt("before-context")
	}
	if f.Changed("after-context") {
		pat.AfterContext, _ = f.GetInt("after-context")
	}
	pat.Count, _ = f.GetBool("count")
	pat.Bisect, _ = f.GetBool("bisect")

	return pat, nil
}
