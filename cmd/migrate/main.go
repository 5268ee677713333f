// SPDX-License-Identifier: MIT

// Command migrate rewrites a legacy training configuration document to the
// current schema. The rewrite is atomic: the output file is replaced via
// rename, never truncated in place.
//
// Exit codes:
//
//	0  migrated (or already current)
//	1  document cannot be migrated
//	2  usage or I/O error
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/ivadomed/ivadoconf/internal/config"
	"github.com/ivadomed/ivadoconf/internal/log"
	"github.com/ivadomed/ivadoconf/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ivadoconf-migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		file    = fs.String("f", "", "path to the legacy document (JSON or YAML)")
		output  = fs.String("o", "", "output path (default: rewrite in place)")
		dryRun  = fs.Bool("dry-run", false, "print the planned changes without writing")
		showVer = fs.Bool("version", false, "print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVer {
		fmt.Fprintf(stdout, "ivadoconf-migrate %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		return 0
	}
	if *file == "" {
		fmt.Fprintln(stderr, "usage: ivadoconf-migrate -f <config.json> [-o <out.json>] [-dry-run]")
		return 2
	}

	log.Configure(log.Config{Output: stderr, Service: "ivadoconf-migrate"})

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	isYAML := false
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".json":
	case ".yaml", ".yml":
		isYAML = true
	default:
		fmt.Fprintf(stderr, "error: unsupported format %s\n", filepath.Ext(*file))
		return 2
	}

	raw := make(map[string]any)
	if isYAML {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: parse %s: %v\n", *file, err)
		return 2
	}

	changes, err := config.MigrateDocument(raw)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, config.SummarizeChanges(changes))
	if *dryRun {
		return 0
	}

	var out []byte
	if isYAML {
		out, err = yaml.Marshal(raw)
	} else {
		out, err = json.MarshalIndent(raw, "", "    ")
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: encode document: %v\n", err)
		return 2
	}
	if !isYAML {
		out = append(out, '\n')
	}

	target := *output
	if target == "" {
		target = *file
	}
	if err := renameio.WriteFile(target, out, 0o644); err != nil {
		fmt.Fprintf(stderr, "error: write %s: %v\n", target, err)
		return 2
	}

	fmt.Fprintf(stdout, "wrote %s\n", target)
	return 0
}
