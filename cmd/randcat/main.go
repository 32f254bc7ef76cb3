/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// randcat is a utility for reviewing randcheck run recordings.  It
// understands the format written by github.com/hyperledger-labs/randcheck/recorder
// and is able to parse and filter these files by action name and by
// touched pool.
package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/hyperledger-labs/randcheck/recorder"
)

type arguments struct {
	input   *os.File
	plain   bool
	actions []string
	pools   []string
}

func excludeByName(value string, include []string) bool {
	if include == nil {
		return false
	}
	for _, includeName := range include {
		if includeName == value {
			return false
		}
	}
	return true
}

func excludedByPool(entry *recorder.RecordedInvocation, pools []string) bool {
	if pools == nil {
		return false
	}
	for _, pool := range pools {
		for _, arg := range entry.Args {
			if arg.Pool == pool {
				return false
			}
		}
		for _, target := range entry.TargetPools {
			if target == pool {
				return false
			}
		}
	}
	return true
}

func formatEntry(entry *recorder.RecordedInvocation) string {
	result := fmt.Sprintf("%6d %s(", entry.Seq, entry.Action)
	for i, arg := range entry.Args {
		if i > 0 {
			result += ", "
		}
		result += fmt.Sprintf("%s<%s>", arg.Value, arg.Pool)
	}
	result += ")"
	if len(entry.TargetPools) > 0 {
		result += fmt.Sprintf("-->%s into %v", entry.Returned, entry.TargetPools)
	} else if entry.Returned != "" {
		result += "-->" + entry.Returned
	}
	return result
}

func (a *arguments) execute(output io.Writer) error {
	defer a.input.Close()

	var source io.Reader = a.input
	if !a.plain {
		gzReader, err := gzip.NewReader(a.input)
		if err != nil {
			return errors.WithMessage(err, "input is not gzip compressed (use --plain for raw streams)")
		}
		defer gzReader.Close()
		source = gzReader
	}

	header, entries, err := recorder.ReadRecording(source)
	if err != nil {
		return errors.WithMessage(err, "failed reading input")
	}

	fmt.Fprintf(output, "run=%s name=%q seed=%d steps=%d\n", header.RunID, header.Name, header.Seed, header.Steps)

	for _, entry := range entries {
		if excludeByName(entry.Action, a.actions) {
			continue
		}
		if excludedByPool(entry, a.pools) {
			continue
		}
		fmt.Fprintln(output, formatEntry(entry))
	}

	return nil
}

func parseArgs(args []string) (*arguments, error) {
	app := kingpin.New("randcat", "Utility for processing randcheck run recordings.")
	input := app.Flag("input", "The input file to read (defaults to stdin).").Default(os.Stdin.Name()).File()
	plain := app.Flag("plain", "Read the input as a raw stream, without gzip decompression.").Default("false").Bool()
	actions := app.Flag("action", "Report entries for this action only, may be repeated.").Strings()
	pools := app.Flag("pool", "Report entries touching this pool only, may be repeated.").Strings()

	_, err := app.Parse(args)
	if err != nil {
		return nil, err
	}

	return &arguments{
		input:   *input,
		plain:   *plain,
		actions: *actions,
		pools:   *pools,
	}, nil
}

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%s, try --help", err)
	}

	if err := args.execute(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
