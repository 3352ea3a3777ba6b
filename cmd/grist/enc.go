package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpl-au/grist"
)

func newEncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enc [flags] [file...]",
		Short: "Encode JSON lines into a grist file",
		Long: "Read line-delimited JSON and write the grist binary encoding. Strings that\n" +
			"are RFC3339 timestamps become native time values.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			useZstd, _ := cmd.Flags().GetBool("zstd")
			dictCap, _ := cmd.Flags().GetInt("dict-cap")
			alg, _ := cmd.Flags().GetInt("checksum")

			var w io.Writer = os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if useZstd {
				zw, err := grist.NewZstdWriter(w)
				if err != nil {
					return err
				}
				defer zw.Close()
				w = zw
			}

			enc, err := grist.NewEncoder(w, grist.EncoderConfig{
				Algorithm: alg,
				DictCap:   dictCap,
			})
			if err != nil {
				return err
			}

			for _, path := range inputPaths(args) {
				if err := encodeFile(path, enc); err != nil {
					return err
				}
			}
			return enc.Close()
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "output path (default stdout)")
	f.Bool("zstd", false, "compress the output stream")
	f.Int("dict-cap", 0, "interning table cap (default 4096)")
	f.Int("checksum", 0, "checksum algorithm: 1=xxh3, 2=fnv1a, 3=blake2b")

	return cmd
}

func encodeFile(path string, enc *grist.Encoder) error {
	var r io.Reader = os.Stdin
	name := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
		name = path
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), grist.MaxRecordSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := enc.EncodeLine(scanner.Bytes()); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	return scanner.Err()
}
