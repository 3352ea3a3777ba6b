package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpl-au/grist"
)

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat [file...]",
		Short: "Decode files to JSON lines on stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			for _, path := range inputPaths(args) {
				in, err := grist.OpenInput(path, logger)
				if err != nil {
					return err
				}
				catErr := catInput(in, os.Stdout)
				in.Close()
				if catErr != nil {
					return catErr
				}
			}
			return nil
		},
	}
}

func catInput(in *grist.Input, w io.Writer) error {
	if in.Format == grist.FormatBinary {
		dec := grist.NewDecoder(in.Src, in.Header.Algorithm, nil)
		emit := grist.NewEmitter(w)
		for {
			emit.Reset()
			ok, err := dec.NextRecord(emit)
			if err != nil {
				return err
			}
			if !ok {
				return emit.Flush()
			}
			emit.EndRecord()
		}
	}

	// Textual input: echo records byte-for-byte.
	var line []byte
	for {
		var err error
		line, err = in.Src.ReadLine(line[:0])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
}
