// SPDX-License-Identifier: MIT

// Command validate checks a training configuration document and reports
// every violation.
//
// Exit codes:
//
//	0  document is valid
//	1  document is invalid
//	2  usage or I/O error
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ivadomed/ivadoconf/internal/config"
	"github.com/ivadomed/ivadoconf/internal/log"
	"github.com/ivadomed/ivadoconf/internal/validate"
	"github.com/ivadomed/ivadoconf/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ivadoconf-validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		file      = fs.String("f", "", `path to the configuration document, or "-" for stdin`)
		format    = fs.String("format", "json", "document format when reading stdin: json or yaml")
		effective = fs.Bool("effective", false, "print the effective configuration (defaults and env applied)")
		quiet     = fs.Bool("quiet", false, "suppress output, use the exit code only")
		showVer   = fs.Bool("version", false, "print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVer {
		fmt.Fprintf(stdout, "ivadoconf-validate %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		return 0
	}
	if *file == "" {
		fmt.Fprintln(stderr, "usage: ivadoconf-validate -f <config.json> [-effective] [-quiet]")
		return 2
	}

	log.Configure(log.Config{Output: stderr, Service: "ivadoconf-validate"})

	var cfg *config.AppConfig
	var err error
	if *file == "-" {
		var data []byte
		data, err = io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "error: read stdin: %v\n", err)
			return 2
		}
		cfg, err = config.NewLoader("", version.Version).LoadBytes(data, *format)
	} else {
		cfg, err = config.NewLoader(*file, version.Version).Load()
	}
	if err != nil {
		var verr validate.ValidationError
		if errors.As(err, &verr) {
			if !*quiet {
				fmt.Fprintf(stderr, "%s: %d problem(s) found\n", *file, len(verr.Errors()))
				for _, e := range verr.Errors() {
					fmt.Fprintf(stderr, "  %s: %s\n", e.Field, e.Message)
				}
			}
			return 1
		}
		if !*quiet {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		if errors.Is(err, config.ErrUnknownConfigField) || errors.Is(err, config.ErrLegacyConfigField) {
			return 1
		}
		return 2
	}

	if *effective {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "    ")
		if err := enc.Encode(config.MaskSecrets(*cfg)); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
	} else if !*quiet {
		fmt.Fprintf(stdout, "%s: valid\n", *file)
	}
	return 0
}
